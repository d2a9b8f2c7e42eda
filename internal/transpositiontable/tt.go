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

// Package transpositiontable implements a perft transposition table (cache)
// keyed on (Zobrist hash, remaining depth). Probe/Put are safe for concurrent
// use from the parallel perft driver: the backing array is split into a
// fixed number of shards, each guarded by its own mutex, so lookups and
// stores against different shards never block each other. Resize and Clear
// are not safe to call concurrently with Probe/Put and must only be used
// between perft runs.
package transpositiontable

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/op/go-logging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	myLogging "github.com/KronsyC/chess/internal/logging"
	"github.com/KronsyC/chess/internal/position"
	"github.com/KronsyC/chess/internal/types"
	"github.com/KronsyC/chess/internal/util"
)

var out = message.NewPrinter(language.German)

const (
	// MaxSizeInMB maximal memory usage of tt
	MaxSizeInMB = 65_536

	// shardCount is the number of independent locks guarding the backing
	// array. Probes/puts whose entry index falls in different shards never
	// contend; this is the "shard-locked hash map" the parallel perft
	// driver needs for its optional transposition cache.
	shardCount = 256
)

// TtTable is the actual transposition table
// object holding data and state.
// Create with NewTtTable()
type TtTable struct {
	log                *logging.Logger
	data               []TtEntry
	shards             [shardCount]sync.Mutex
	sizeInByte         uint64
	hashKeyMask        uint64
	maxNumberOfEntries uint64
	numberOfEntries    uint64
	Stats              TtStats
}

// TtStats holds statistical data on tt usage
type TtStats struct {
	numberOfPuts       uint64
	numberOfCollisions uint64
	numberOfOverwrites uint64
	numberOfUpdates    uint64
	numberOfProbes     uint64
	numberOfHits       uint64
	numberOfMisses     uint64
}

// NewTtTable creates a new TtTable with the given number of bytes
// as a maximum of memory usage. actual size will be determined
// by the number of elements fitting into this size which need
// to be a power of 2 for efficient hashing/addressing via bit
// masks.
func NewTtTable(sizeInMByte int) *TtTable {
	tt := TtTable{
		log:                myLogging.GetLog("tt"),
		data:               nil,
		sizeInByte:         0,
		hashKeyMask:        0,
		maxNumberOfEntries: 0,
		numberOfEntries:    0,
	}
	tt.Resize(sizeInMByte)
	return &tt
}

// Resize resizes the tt table. All entries will be cleared.
// Unlike Probe and Put, Resize takes no locks and must not be
// called while other goroutines use the table.
func (tt *TtTable) Resize(sizeInMByte int) {
	if sizeInMByte > MaxSizeInMB {
		tt.log.Error(out.Sprintf("Requested size for TT of %d MB reduced to max of %d MB", sizeInMByte, MaxSizeInMB))
		sizeInMByte = MaxSizeInMB
	}

	// calculate the maximum power of 2 of entries fitting into the given size in MB
	tt.sizeInByte = uint64(sizeInMByte) * types.MB
	tt.maxNumberOfEntries = 1 << uint64(math.Floor(math.Log2(float64(tt.sizeInByte/TtEntrySize))))
	tt.hashKeyMask = tt.maxNumberOfEntries - 1 // --> 0x0001111....111

	// if TT is resized to 0 we cant have any entries.
	if tt.sizeInByte == 0 {
		tt.maxNumberOfEntries = 0
	}

	// calculate the real memory usage
	tt.sizeInByte = tt.maxNumberOfEntries * TtEntrySize

	// Create new slice/array - garbage collections takes care of cleanup
	tt.data = make([]TtEntry, tt.maxNumberOfEntries)

	tt.log.Info(out.Sprintf("TT Size %d MByte, Capacity %d entries (size=%dByte) (Requested were %d MBytes)",
		tt.sizeInByte/types.MB, tt.maxNumberOfEntries, unsafe.Sizeof(TtEntry{}), sizeInMByte))
	tt.log.Debug(util.MemStat())
}

// shardFor returns the mutex guarding the given array index.
func (tt *TtTable) shardFor(index uint64) *sync.Mutex {
	return &tt.shards[index%shardCount]
}

// GetEntry returns a pointer to the corresponding tt entry.
// Given key is checked against the entry's key. When
// equal pointer to entry will be returned. Otherwise
// nil will be returned.
// Does not change statistics.
func (tt *TtTable) GetEntry(key position.Key) *TtEntry {
	index := tt.hash(key)
	shard := tt.shardFor(index)
	shard.Lock()
	defer shard.Unlock()
	e := &tt.data[index]
	if e.key == key {
		return e
	}
	return nil
}

// Probe returns a pointer to a copy of the corresponding tt entry
// or nil if it was not found. Decreases TtEntry.Age by 1.
// The copy is taken while the entry's shard is locked, so a concurrent
// Put into the same slot cannot change what the caller reads; a Put that
// lands after the copy is simply not seen by this caller.
func (tt *TtTable) Probe(key position.Key) *TtEntry {
	index := tt.hash(key)
	shard := tt.shardFor(index)
	shard.Lock()
	defer shard.Unlock()

	atomic.AddUint64(&tt.Stats.numberOfProbes, 1)
	e := &tt.data[index]
	if e.key == key {
		e.decreaseAge()
		atomic.AddUint64(&tt.Stats.numberOfHits, 1)
		hit := *e
		return &hit
	}
	atomic.AddUint64(&tt.Stats.numberOfMisses, 1)
	return nil
}

// Put stores counts, the leaf-node breakdown computed for key at the given
// remaining depth. Safe for concurrent use: the entry's shard is locked for
// the duration of the read-modify-write, so two goroutines racing to store
// into the same slot serialize rather than tear the entry.
func (tt *TtTable) Put(key position.Key, depth int8, counts PerftCounts) {

	// if the size of the TT = 0 we
	// do not store anything
	if tt.maxNumberOfEntries == 0 {
		return
	}

	index := tt.hash(key)
	shard := tt.shardFor(index)
	shard.Lock()
	defer shard.Unlock()

	entryDataPtr := &tt.data[index]

	atomic.AddUint64(&tt.Stats.numberOfPuts, 1)

	// empty slot
	if entryDataPtr.key == 0 {
		atomic.AddUint64(&tt.numberOfEntries, 1)
		entryDataPtr.key = key
		entryDataPtr.depth = depth
		entryDataPtr.age = 1
		entryDataPtr.PerftCounts = counts
		return
	}

	// Same hash but different position
	if entryDataPtr.key != key {
		atomic.AddUint64(&tt.Stats.numberOfCollisions, 1)
		// overwrite if
		// - the new entry's depth is higher
		// - the new entry's depth is same and the previous entry is old (is aged)
		if depth > entryDataPtr.depth ||
			(depth == entryDataPtr.depth && entryDataPtr.age > 1) {
			atomic.AddUint64(&tt.Stats.numberOfOverwrites, 1)
			entryDataPtr.key = key
			entryDataPtr.depth = depth
			entryDataPtr.age = 1
			entryDataPtr.PerftCounts = counts
		}
		return
	}

	// Same hash and same position -> refresh if at least as deep
	if depth >= entryDataPtr.depth {
		atomic.AddUint64(&tt.Stats.numberOfUpdates, 1)
		entryDataPtr.depth = depth
		entryDataPtr.age = 1
		entryDataPtr.PerftCounts = counts
	}
}

// Clear clears all entries of the tt
// Unlike Probe and Put, Clear takes no locks and must not be
// called while other goroutines use the table.
func (tt *TtTable) Clear() {
	// Create new slice/array - garbage collections takes care of cleanup
	tt.data = make([]TtEntry, tt.maxNumberOfEntries)
	tt.numberOfEntries = 0
	tt.Stats = TtStats{}
}

// Hashfull returns how full the transposition table is in permill as per UCI
func (tt *TtTable) Hashfull() int {
	if tt.maxNumberOfEntries == 0 {
		return 0
	}
	return int((1000 * tt.numberOfEntries) / tt.maxNumberOfEntries)
}

// String returns a string representation of this TtTable instance
func (tt *TtTable) String() string {
	return out.Sprintf("TT: size %d MB max entries %d of size %d Bytes entries %d (%d%%) puts %d "+
		"updates %d collisions %d overwrites %d probes %d hits %d (%d%%) misses %d (%d%%)",
		tt.sizeInByte/types.MB, tt.maxNumberOfEntries, unsafe.Sizeof(TtEntry{}), tt.numberOfEntries, tt.Hashfull()/10,
		tt.Stats.numberOfPuts, tt.Stats.numberOfUpdates, tt.Stats.numberOfCollisions, tt.Stats.numberOfOverwrites, tt.Stats.numberOfProbes,
		tt.Stats.numberOfHits, (tt.Stats.numberOfHits*100)/(1+tt.Stats.numberOfProbes),
		tt.Stats.numberOfMisses, (tt.Stats.numberOfMisses*100)/(1+tt.Stats.numberOfProbes))
}

// Len returns the number of non empty entries in the tt
func (tt *TtTable) Len() uint64 {
	return tt.numberOfEntries
}

// AgeEntries ages each entry in the tt
// Creates a number of go routines with processes each
// a certain slice of data to process
func (tt *TtTable) AgeEntries() {
	startTime := time.Now()
	if tt.numberOfEntries > 0 {
		numberOfGoroutines := uint64(32) // arbitrary - uses up to 32 threads
		var wg sync.WaitGroup
		wg.Add(int(numberOfGoroutines))
		slice := tt.maxNumberOfEntries / numberOfGoroutines
		for i := uint64(0); i < numberOfGoroutines; i++ {
			go func(i uint64) {
				defer wg.Done()
				start := i * slice
				end := start + slice
				if i == numberOfGoroutines-1 {
					end = tt.maxNumberOfEntries
				}
				for n := start; n < end; n++ {
					if tt.data[n].key != 0 {
						tt.data[n].increaseAge()
					}
				}
			}(i)
		}
		wg.Wait()
	}
	elapsed := time.Since(startTime)
	tt.log.Debug(out.Sprintf("Aged %d entries of %d in %d ms\n", tt.numberOfEntries, len(tt.data), elapsed.Milliseconds()))
}

// ///////////////////////////////////////////////////////////
// Private
// ///////////////////////////////////////////////////////////

// hash generates the internal hash key for the data array
func (tt *TtTable) hash(key position.Key) uint64 {
	return uint64(key) & tt.hashKeyMask
}


