// Copyright (C) 2022-2023, VigilantDoomer
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

// Central log (stdout/stderr) of the program
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sync"
)

type MyLogger struct {
	leafs bytes.Buffer
	// Mutex is used to order writes to stdin and stderr, as well as Sync call
	mu sync.Mutex
}

// Logs specific to thread, or even just one task (one task is always worked on
// by a single thread and never shared with other threads until complete, but a
// single thread may work on many tasks - each of them will have their own
// logger). Their output is not forwarded to the stdout or stdin, but is instead
// buffered until (usually just one of them) is merged into main log of MyLogger
// type. Most of such logs are instead getting discarded altogether
type MiniLogger struct {
	buf   bytes.Buffer
	leafs bytes.Buffer
}

func CreateLogger() *MyLogger {
	var b bytes.Buffer
	log := new(MyLogger)
	log.leafs = b
	return log
}

var Log = CreateLogger()

var syslog = log.New(os.Stdout, "", 0)
var errlog = log.New(os.Stderr, "", 0)

// Your generic printf to let user see things
func (log *MyLogger) Printf(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	syslog.Printf(s, a...)
	return
}

// As generic as printf, but writes to stderr instead of stdout
// Does NOT interrupt execution of the program
func (log *MyLogger) Error(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	errlog.Printf(s, a...)
	return
}

// For advanced users or users that are curious, or programmers, there is
// stuff they might want to see but only when they can really bother to spend
// time reading it
func (log *MyLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	if verbosityLevel <= config.VerbosityLevel {
		log.mu.Lock()
		defer log.mu.Unlock()
		syslog.Printf(s, a...)
		return
	}
}

// Panicking is not a good thing, but at least we can now use formatted printing
// for it
func (log *MyLogger) Panic(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	panic(fmt.Sprintf(s, a...))
}

func (log *MyLogger) DumpLeaf(face *Face, list []*HEdge) {
	if !config.DumpLeafs || face == nil { // reference to global: config
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	writeLeafDump(&log.leafs, face, list)
}

// One line per half-edge. Half-edges of a leaf are supposed to share a
// sector, the ones that don't are marked
func writeLeafDump(buf *bytes.Buffer, face *Face, list []*HEdge) {
	var leafSector *Sector
	for _, e := range list {
		if e.lineDef != nil && e.sector != nil {
			leafSector = e.sector
			break
		}
	}
	buf.WriteString(fmt.Sprintf("Leaf #%d (%d half-edges):\n", face.index, len(list)))
	for _, e := range list {
		line := -1
		if e.lineDef != nil {
			line = e.lineDef.index
		}
		buf.WriteString(fmt.Sprintf(
			"  Linedef: %d Side: %d (%v,%v) - (%v, %v)",
			line, e.side, e.pSX, e.pSY, e.pEX, e.pEY))
		if e.sector != nil && leafSector != nil && e.sector != leafSector {
			buf.WriteString(fmt.Sprintf(" BAD! Sector = %d\n", e.sector.index))
		} else {
			buf.WriteString("\n")
		}
	}
}

func (log *MyLogger) GetDumpedLeafs() string {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.leafs.String()
}

// Sync is used to wait until all messages are written to the output
func (log *MyLogger) Sync() {
	log.mu.Lock()
	log.mu.Unlock()
}

func (log *MyLogger) Merge(mlog *MiniLogger, preface string) {
	if mlog == nil {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(preface) > 0 {
		syslog.Print(preface)
	}
	content := mlog.buf.String()
	if len(content) > 0 {
		syslog.Print(content)
	}
	leafs := mlog.leafs.String()
	if len(leafs) > 0 {
		log.leafs.WriteString(leafs)
	}
}

func (mlog *MiniLogger) Printf(s string, a ...interface{}) {
	if mlog == nil {
		Log.Printf(s, a...)
		return
	}
	mlog.buf.WriteString(fmt.Sprintf(s, a...))
}

func (mlog *MiniLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	if mlog == nil {
		Log.Verbose(verbosityLevel, s, a...)
		return
	}
	if verbosityLevel <= config.VerbosityLevel {
		mlog.buf.WriteString(fmt.Sprintf(s, a...))
	}
}

func (mlog *MiniLogger) DumpLeaf(face *Face, list []*HEdge) {
	if mlog == nil {
		Log.DumpLeaf(face, list)
		return
	}
	if !config.DumpLeafs || face == nil { // reference to global: config
		return
	}
	writeLeafDump(&mlog.leafs, face, list)
}

func CreateMiniLogger() *MiniLogger {
	var b bytes.Buffer
	var b2 bytes.Buffer
	mlog := new(MiniLogger)
	mlog.leafs = b
	mlog.buf = b2
	return mlog
}
