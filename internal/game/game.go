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

// Package game wraps a Position with the absorbing game-state machine
// (whose turn it is, or how the game ended) and a make-move operation
// that keeps the two in sync.
package game

import (
	"errors"
	"fmt"

	myLogging "github.com/KronsyC/chess/internal/logging"
	"github.com/KronsyC/chess/internal/movegen"
	"github.com/KronsyC/chess/internal/position"
	. "github.com/KronsyC/chess/internal/types"
)

var log = myLogging.GetLog("game")

// ErrGameFinished is returned by MakeMove when called on a Game whose
// State is already terminal (WhiteVictory, BlackVictory or Stalemate).
var ErrGameFinished = errors.New("game has already finished")

// ErrIllegalMove is returned by MakeMove when the given move is not a
// legal move in the current position.
var ErrIllegalMove = errors.New("move is not legal in the current position")

// State represents the status of a Game. WhiteToMove and BlackToMove
// are the only non-terminal states; the other three are absorbing.
type State int

const (
	WhiteToMove State = iota
	BlackToMove
	WhiteVictory
	BlackVictory
	Stalemate
)

// String returns a human readable representation of the state.
func (s State) String() string {
	switch s {
	case WhiteToMove:
		return "WhiteToMove"
	case BlackToMove:
		return "BlackToMove"
	case WhiteVictory:
		return "WhiteVictory"
	case BlackVictory:
		return "BlackVictory"
	case Stalemate:
		return "Stalemate"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether a Game in this state can no longer make a move.
func (s State) IsTerminal() bool {
	return s == WhiteVictory || s == BlackVictory || s == Stalemate
}

// Game is a Position paired with its current State. It is mutated only
// through MakeMove; a zero-value Game is not usable, use NewGame or
// NewGameFen.
type Game struct {
	Position *position.Position
	State    State
	mg       *movegen.Movegen
}

// NewGame creates a Game from the standard starting position.
func NewGame() *Game {
	g, _ := NewGameFen(position.StartFen)
	return g
}

// NewGameFen creates a Game from the given fen string. It returns an
// error if the fen is invalid.
func NewGameFen(fen string) (*Game, error) {
	pos, err := position.NewPositionFen(fen)
	if err != nil {
		return nil, err
	}
	g := &Game{
		Position: pos,
		mg:       movegen.NewMoveGen(),
	}
	g.State = g.classify()
	return g, nil
}

// fiftyMoveLimit is the halfmove clock value (100 plies, 50 full moves
// without a pawn move or capture) at which the game is drawn.
const fiftyMoveLimit = 100

// classify derives the current State from the position: whether the side
// to move is checkmated or stalemated takes priority over the fifty-move
// clock, so a mating move played on move 50 is still a win, not a draw.
func (g *Game) classify() State {
	toMove := g.Position.NextPlayer()
	if g.mg.HasLegalMove(g.Position) {
		if g.Position.HalfMoveClock() >= fiftyMoveLimit {
			return Stalemate
		}
		if toMove == White {
			return WhiteToMove
		}
		return BlackToMove
	}
	if g.Position.HasCheck() {
		// side to move is checkmated, so the other side won
		if toMove == White {
			return BlackVictory
		}
		return WhiteVictory
	}
	return Stalemate
}

// MakeMove plays m on the Game's position and transitions State.
// It returns ErrGameFinished if the game has already ended, and
// ErrIllegalMove if m is not a legal move in the current position.
func (g *Game) MakeMove(m Move) error {
	if g.State.IsTerminal() {
		return ErrGameFinished
	}
	if !g.mg.ValidateMove(g.Position, m) {
		return ErrIllegalMove
	}
	g.Position.DoMove(m)
	g.State = g.classify()
	log.Debugf("played %s, new state %s", m.StringUci(), g.State)
	return nil
}

// LegalMoves returns the legal moves available in the current position.
// Each call returns a newly allocated slice that the caller owns.
func (g *Game) LegalMoves() []Move {
	ms := g.mg.GenerateLegalMoves(g.Position, movegen.GenAll)
	moves := make([]Move, ms.Len())
	for i := 0; i < ms.Len(); i++ {
		moves[i] = ms.At(i)
	}
	return moves
}

// String returns the fen of the underlying position annotated with the
// game state.
func (g *Game) String() string {
	return fmt.Sprintf("%s [%s]", g.Position.StringFen(), g.State)
}
