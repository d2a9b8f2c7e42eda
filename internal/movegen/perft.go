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

package movegen

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KronsyC/chess/internal/config"
	"github.com/KronsyC/chess/internal/position"
	"github.com/KronsyC/chess/internal/transpositiontable"
	. "github.com/KronsyC/chess/internal/types"
)

var out = message.NewPrinter(language.German)

// moveCategory classifies a legal move into the leaf categories a perft
// run reports. Castling side and en passant/promotion overlap are derived
// from the move itself plus the position it was generated on; the move
// encoding only distinguishes Normal/Promotion/EnPassant/Castling, so
// capture-ness is recovered from board occupancy before the move is made.
type moveCategory int

const (
	catRegular moveCategory = iota
	catCapture
	catEnpassant
	catPromote
	catCapturePromote
	catCastleKingside
	catCastleQueenside
)

func classifyMove(p *position.Position, m Move) moveCategory {
	switch m.MoveType() {
	case EnPassant:
		return catEnpassant
	case Castling:
		switch m.To() {
		case SqG1, SqG8:
			return catCastleKingside
		default:
			return catCastleQueenside
		}
	case Promotion:
		if p.IsCapturingMove(m) {
			return catCapturePromote
		}
		return catPromote
	default:
		if p.IsCapturingMove(m) {
			return catCapture
		}
		return catRegular
	}
}

// PerftResults aggregates the leaf statistics of a perft walk: the total
// leaf count (Nodes) plus a breakdown of the move category that produced
// each leaf and how many leaves were checkmate or stalemate positions.
type PerftResults struct {
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

// add merges other into r. Addition is commutative so subtrees explored
// concurrently may be folded back in any order.
func (r *PerftResults) add(other PerftResults) {
	r.Nodes += other.Nodes
	r.Captures += other.Captures
	r.EnPassantCaptures += other.EnPassantCaptures
	r.CastlesKingside += other.CastlesKingside
	r.CastlesQueenside += other.CastlesQueenside
	r.Promotions += other.Promotions
	r.Regulars += other.Regulars
	r.Checkmates += other.Checkmates
	r.Stalemates += other.Stalemates
}

// String renders the results with a German thousands separator, matching
// the locale-aware printer used for the rest of this package's output.
func (r PerftResults) String() string {
	return out.Sprintf(
		"nodes=%d captures=%d ep=%d O-O=%d O-O-O=%d promotions=%d regulars=%d checkmates=%d stalemates=%d",
		r.Nodes, r.Captures, r.EnPassantCaptures, r.CastlesKingside, r.CastlesQueenside,
		r.Promotions, r.Regulars, r.Checkmates, r.Stalemates)
}

// Perft drives a move-tree enumeration from a position to a fixed depth.
// A single instance may be reused across calls; Stop cancels a run that
// is in flight in another goroutine.
type Perft struct {
	stopFlag bool
	tt       *transpositiontable.TtTable
}

// NewPerft creates a new empty Perft instance.
func NewPerft() *Perft {
	return &Perft{}
}

// haltingDepthForCache reports whether depth is shallow enough, relative to
// p's current halfmove clock, that the 50-move stalemate rule cannot fire
// anywhere within the subtree being cached. The Zobrist hash does not encode
// the halfmove clock (SPEC §9), so a cache entry keyed on hash alone would be
// wrong for a subtree that crosses the 100-ply threshold; such subtrees are
// simply never probed or stored.
func haltingDepthForCache(p *position.Position, depth int) bool {
	return p.HalfMoveClock()+depth < 100
}

// Stop requests that an in-flight Run return early. Subtrees already
// dispatched to a goroutine still finish; no new recursion is started
// once the flag is observed.
func (perft *Perft) Stop() {
	perft.stopFlag = true
}

// Run computes perft(depth) for fen. Depth 0 returns the zero value by
// convention. The root's legal moves are fanned out across goroutines
// bounded by config.Settings.Perft.MaxParallelism (0 means GOMAXPROCS);
// each child walks its own copy of the position so no mutable state is
// shared between goroutines.
func (perft *Perft) Run(fen string, depth int) (PerftResults, error) {
	perft.stopFlag = false
	if depth <= 0 {
		return PerftResults{}, nil
	}
	p, err := position.NewPositionFen(fen)
	if err != nil {
		return PerftResults{}, err
	}
	if config.Settings.Perft.UseTtCache && perft.tt == nil {
		perft.tt = transpositiontable.NewTtTable(config.Settings.Perft.TtSizeMb)
	}
	return perft.fanOut(p, depth), nil
}

func (perft *Perft) fanOut(p *position.Position, depth int) PerftResults {
	mg := NewMoveGen()
	moves := mg.GenerateLegalMoves(p, GenAll)

	if depth == 1 {
		return leafCounts(mg, p, *moves)
	}

	rootMoves := make([]Move, len(*moves))
	copy(rootMoves, *moves)

	limit := config.Settings.Perft.MaxParallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	sem := semaphore.NewWeighted(int64(limit))

	var group errgroup.Group
	var mu sync.Mutex
	var total PerftResults

	for _, m := range rootMoves {
		if perft.stopFlag {
			break
		}
		m := m
		child := *p
		if err := sem.Acquire(context.Background(), 1); err != nil {
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)
			child.DoMove(m)
			res := perft.walk(&child, depth-1)
			child.UndoMove()
			mu.Lock()
			total.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return total
}

// walk sequentially enumerates the subtree rooted at p to the given depth.
// Each stack frame owns its own Movegen so recursive calls never share a
// move buffer with their caller. When a transposition cache is attached
// (config.Settings.Perft.UseTtCache), the (Zobrist hash, depth) pair is
// probed before descending and stored after, except within reach of the
// 50-move threshold where the hash alone cannot disambiguate the result
// (see haltingDepthForCache).
func (perft *Perft) walk(p *position.Position, depth int) PerftResults {
	if depth == 0 {
		return PerftResults{}
	}

	cacheable := perft.tt != nil && haltingDepthForCache(p, depth)
	if cacheable {
		if e := perft.tt.Probe(p.ZobristKey()); e != nil && int(e.Depth()) == depth {
			return PerftResults(e.PerftCounts)
		}
	}

	mg := NewMoveGen()
	moves := mg.GenerateLegalMoves(p, GenAll)

	var res PerftResults
	if depth == 1 {
		res = leafCounts(mg, p, *moves)
	} else {
		movesCopy := make([]Move, len(*moves))
		copy(movesCopy, *moves)

		for _, m := range movesCopy {
			if perft.stopFlag {
				break
			}
			p.DoMove(m)
			res.add(perft.walk(p, depth-1))
			p.UndoMove()
		}
	}

	if cacheable {
		perft.tt.Put(p.ZobristKey(), int8(depth), transpositiontable.PerftCounts(res))
	}
	return res
}

// leafCounts classifies and plays each move once, without further descent,
// and tallies checkmate/stalemate on the resulting position.
func leafCounts(mg *Movegen, p *position.Position, moves []Move) PerftResults {
	var res PerftResults
	for _, m := range moves {
		switch classifyMove(p, m) {
		case catCapture:
			res.Captures++
		case catEnpassant:
			res.Captures++
			res.EnPassantCaptures++
		case catPromote:
			res.Promotions++
		case catCapturePromote:
			res.Promotions++
			res.Captures++
		case catCastleKingside:
			res.CastlesKingside++
		case catCastleQueenside:
			res.CastlesQueenside++
		default:
			res.Regulars++
		}
		res.Nodes++

		p.DoMove(m)
		inCheck := p.HasCheck()
		hasMove := mg.HasLegalMove(p)
		switch {
		case inCheck && !hasMove:
			res.Checkmates++
		case !inCheck && !hasMove:
			res.Stalemates++
		}
		p.UndoMove()
	}
	return res
}
