// Copyright (C) 2022-2024, VigilantDoomer
//
// This file is part of DengMap program.
//
// DengMap is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// DengMap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with DengMap.  If not, see <https://www.gnu.org/licenses/>.
package main

import (
	"strings"
)

const (
	MATF_SKYMASK = 0x1 // sky, things behind are never drawn
	MATF_MASKED  = 0x2 // has see-through pixels
)

const SKY_FLAT_PREFIX = "F_SKY"

type Material struct {
	Name  string
	Flags int
}

func (m *Material) IsSky() bool {
	return m.Flags&MATF_SKYMASK != 0
}

func (m *Material) IsOpaque() bool {
	return m.Flags&MATF_MASKED == 0
}

// Materials are interned by upper-cased name
type MaterialLibrary struct {
	byName map[string]*Material
}

func NewMaterialLibrary() *MaterialLibrary {
	return &MaterialLibrary{
		byName: make(map[string]*Material),
	}
}

func isNoMaterial(name string) bool {
	return name == "" || name == "-"
}

// Returns the material for name, creating it on first use. "" and "-"
// resolve to nil
func (lib *MaterialLibrary) Resolve(name string) *Material {
	if isNoMaterial(name) {
		return nil
	}
	key := strings.ToUpper(name)
	if m, ok := lib.byName[key]; ok {
		return m
	}
	m := &Material{Name: key}
	if strings.HasPrefix(key, SKY_FLAT_PREFIX) {
		m.Flags |= MATF_SKYMASK
	}
	lib.byName[key] = m
	return m
}

// Loaders call this for textures that are known to be see-through
func (lib *MaterialLibrary) DeclareMasked(name string) {
	if m := lib.Resolve(name); m != nil {
		m.Flags |= MATF_MASKED
	}
}

func (lib *MaterialLibrary) Len() int {
	return len(lib.byName)
}
