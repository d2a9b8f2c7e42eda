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

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KronsyC/chess/internal/config"
	"github.com/KronsyC/chess/internal/logging"
	"github.com/KronsyC/chess/internal/movegen"
	"github.com/KronsyC/chess/internal/position"
)

var out = message.NewPrinter(language.German)

func main() {
	fen := flag.String("fen", position.StartFen, "fen of the position to run perft on")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: perft [-fen FEN] <ply>")
		os.Exit(1)
	}

	ply, err := strconv.Atoi(flag.Arg(0))
	if err != nil || ply < 0 {
		fmt.Fprintf(os.Stderr, "invalid ply %q: must be a non-negative integer\n", flag.Arg(0))
		os.Exit(1)
	}

	config.Setup()
	logging.GetLog("perft")

	p := movegen.NewPerft()
	start := time.Now()
	results, err := p.Run(*fen, ply)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out.Printf("Perft(%d) = %s [%s]\n", ply, results, elapsed)
}
