// Copyright (C) 2022, VigilantDoomer
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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrBadWad = errors.New("not a valid wad file")

// Lumps that may follow a level marker
var LEVEL_LUMPS = []string{"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES", "SEGS",
	"SSECTORS", "NODES", "SECTORS", "REJECT", "BLOCKMAP", "BEHAVIOR", "SCRIPTS"}
var LUMP_MUSTEXIST = []string{"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES", "SECTORS"}

// An opened wad: header and directory. Lump contents are read on demand
type WadFile struct {
	name   string
	r      io.ReaderAt
	closer io.Closer
	header WadHeader
	dir    []LumpEntry
}

// ByteSliceBeforeTerm returns a part of the original bytes
// excluding everything that starts with zero-byte character.
// This allows string operations (such as pattern matching) to be performed
// correctly on returned value
func ByteSliceBeforeTerm(b []byte) []byte {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		return b
	} else {
		return b[:i]
	}
}

func OpenWad(fileName string) (*WadFile, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	wad, err := ReadWad(f, stat.Size(), fileName)
	if err != nil {
		f.Close()
		return nil, err
	}
	wad.closer = f
	return wad, nil
}

// Reads the header and the directory of a wad of the given size
func ReadWad(r io.ReaderAt, size int64, name string) (*WadFile, error) {
	wad := &WadFile{
		name: name,
		r:    r,
	}
	hsize := int64(binary.Size(wad.header))
	err := binary.Read(io.NewSectionReader(r, 0, hsize), binary.LittleEndian,
		&wad.header)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't read file header of %s: %s",
			ErrBadWad, name, err)
	}
	if wad.header.MagicSig == IWAD_MAGIC_SIG {
		Log.Verbose(1, "%s is an IWAD\n", name)
	} else if wad.header.MagicSig == PWAD_MAGIC_SIG {
		Log.Verbose(1, "%s is a PWAD\n", name)
	} else {
		return nil, fmt.Errorf("%w: %s has no IWAD/PWAD signature", ErrBadWad, name)
	}
	Log.Verbose(1, "The directory contains %d lumps and starts at %d byte offset\n",
		wad.header.LumpCount, wad.header.DirectoryStart)

	entrySize := int64(binary.Size(LumpEntry{}))
	dirSize := int64(wad.header.LumpCount) * entrySize
	if int64(wad.header.DirectoryStart)+dirSize > size {
		return nil, fmt.Errorf("%w: directory of %s (%d lumps at %d) is past the end of file",
			ErrBadWad, name, wad.header.LumpCount, wad.header.DirectoryStart)
	}

	// Read in whole directory at once
	wad.dir = make([]LumpEntry, wad.header.LumpCount)
	err = binary.Read(io.NewSectionReader(r, int64(wad.header.DirectoryStart),
		dirSize), binary.LittleEndian, wad.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read lump info from %s: %s",
			ErrBadWad, name, err)
	}
	for i, entry := range wad.dir {
		if int64(entry.FilePos)+int64(entry.Size) > size {
			return nil, fmt.Errorf("%w: lump #%d (%s) of %s is past the end of file",
				ErrBadWad, i, ByteSliceBeforeTerm(entry.Name[:]), name)
		}
	}
	return wad, nil
}

func (w *WadFile) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

func (w *WadFile) Name() string {
	return w.name
}

func (w *WadFile) NumLumps() int {
	return len(w.dir)
}

func (w *WadFile) ReadLump(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(w.dir) {
		return nil, fmt.Errorf("lump index %d out of range", idx)
	}
	entry := w.dir[idx]
	buf := make([]byte, entry.Size)
	if entry.Size == 0 {
		return buf, nil
	}
	_, err := w.r.ReadAt(buf, int64(entry.FilePos))
	if err != nil {
		return nil, fmt.Errorf("reading lump %s: %w",
			ByteSliceBeforeTerm(entry.Name[:]), err)
	}
	return buf, nil
}

func isLevelLump(name string) bool {
	for _, s := range LEVEL_LUMPS {
		if s == name {
			return true
		}
	}
	return false
}

// Names of the level markers in directory order
func (w *WadFile) Levels() []string {
	var res []string
	for _, entry := range w.dir {
		bname := ByteSliceBeforeTerm(entry.Name[:])
		if IsALevel(bname) {
			res = append(res, string(bname))
		}
	}
	return res
}

// The lumps of one level, by name
type LevelLumps struct {
	name  string
	lumps map[string][]byte
}

func (l *LevelLumps) Name() string {
	return l.name
}

func (l *LevelLumps) Has(lumpName string) bool {
	_, ok := l.lumps[lumpName]
	return ok
}

func (l *LevelLumps) Get(lumpName string) []byte {
	return l.lumps[lumpName]
}

// Reads the lumps that follow the marker of the named level. Duplicates of a
// lump are ignored, the first one wins
func (w *WadFile) ReadLevel(levelName string) (*LevelLumps, error) {
	levelName = strings.ToUpper(levelName)
	marker := -1
	for i, entry := range w.dir {
		if string(ByteSliceBeforeTerm(entry.Name[:])) == levelName {
			marker = i
			break
		}
	}
	if marker < 0 {
		return nil, fmt.Errorf("level %s not found in %s", levelName, w.name)
	}
	level := &LevelLumps{
		name:  levelName,
		lumps: make(map[string][]byte),
	}
	for i := marker + 1; i < len(w.dir); i++ {
		bname := string(ByteSliceBeforeTerm(w.dir[i].Name[:]))
		if !isLevelLump(bname) {
			break
		}
		if level.Has(bname) {
			Log.Error("Level %s has one or more duplicate of lump %s - only first one is used\n",
				levelName, bname)
			continue
		}
		data, err := w.ReadLump(i)
		if err != nil {
			return nil, err
		}
		level.lumps[bname] = data
	}
	for _, must := range LUMP_MUSTEXIST {
		if !level.Has(must) {
			return nil, fmt.Errorf("%w: level %s is missing lump %s", ErrBadWad,
				levelName, must)
		}
	}
	return level, nil
}

// Decodes a lump that is an array of fixed size records
func decodeLump[T any](level *LevelLumps, lumpName string, recordSize int) ([]T, error) {
	data := level.Get(lumpName)
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("%w: %s lump of %s is %d bytes, not a multiple of %d",
			ErrBadWad, lumpName, level.name, len(data), recordSize)
	}
	res := make([]T, len(data)/recordSize)
	if len(res) == 0 {
		return res, nil
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, res); err != nil {
		return nil, fmt.Errorf("%w: decoding %s of %s: %s", ErrBadWad, lumpName,
			level.name, err)
	}
	return res, nil
}

// Builds a wad in memory. Used to write small test wads and by the tools
// that need to write levels out
type WadWriter struct {
	buf     bytes.Buffer
	entries []LumpEntry
}

func (ww *WadWriter) AddLump(name string, data []byte) {
	var entry LumpEntry
	entry.FilePos = uint32(binary.Size(WadHeader{}) + ww.buf.Len())
	entry.Size = uint32(len(data))
	copy(entry.Name[:], []byte(strings.ToUpper(name)))
	ww.buf.Write(data)
	ww.entries = append(ww.entries, entry)
}

// Appends the records of data, a slice of fixed size structs, as one lump
func (ww *WadWriter) AddRecords(name string, data interface{}) error {
	var b bytes.Buffer
	if err := binary.Write(&b, binary.LittleEndian, data); err != nil {
		return err
	}
	ww.AddLump(name, b.Bytes())
	return nil
}

func (ww *WadWriter) Bytes() []byte {
	var out bytes.Buffer
	hsize := binary.Size(WadHeader{})
	header := WadHeader{
		MagicSig:       PWAD_MAGIC_SIG,
		LumpCount:      uint32(len(ww.entries)),
		DirectoryStart: uint32(hsize + ww.buf.Len()),
	}
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(ww.buf.Bytes())
	binary.Write(&out, binary.LittleEndian, ww.entries)
	return out.Bytes()
}
