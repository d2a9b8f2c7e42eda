//
// FrankyGo - UCI chess engine in GO for learning purposes
//
// MIT License
//
// Copyright (c) 2018-2020 Frank Kopp
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

package transpositiontable

import (
	"unsafe"

	"github.com/KronsyC/chess/internal/position"
)

// PerftCounts is the leaf-node breakdown cached for a position explored to
// a given depth. It mirrors movegen.PerftResults field-for-field (so the
// two are convertible by a plain type conversion) without this package
// importing movegen, which would create an import cycle.
type PerftCounts struct {
	Nodes             uint64
	Captures          uint64
	EnPassantCaptures uint64
	CastlesKingside   uint64
	CastlesQueenside  uint64
	Promotions        uint64
	Regulars          uint64
	Checkmates        uint64
	Stalemates        uint64
}

// TtEntry is a single perft-cache slot. It maps the position identified by
// Key, explored to the remaining Depth, to the PerftCounts produced by that
// exploration. Age counts generations since the entry was last refreshed by
// a Probe hit and drives replacement in Put.
type TtEntry struct {
	key   position.Key
	depth int8
	age   uint8

	PerftCounts
}

// TtEntrySize is the size in bytes of a single TtEntry, used to derive how
// many entries fit into a requested memory budget.
const TtEntrySize = unsafe.Sizeof(TtEntry{})

func (e *TtEntry) decreaseAge() {
	if e.age > 0 {
		e.age--
	}
}

func (e *TtEntry) increaseAge() {
	if e.age < 255 {
		e.age++
	}
}

// Key returns the Zobrist key this entry was stored under.
func (e *TtEntry) Key() position.Key {
	return e.key
}

// Depth returns the remaining depth this entry's counts were computed for.
func (e *TtEntry) Depth() int8 {
	return e.depth
}

// Age returns the number of generations since this entry was last refreshed.
func (e *TtEntry) Age() uint8 {
	return e.age
}
