// livechess-uci is an adaptor for using a DGT EBoard via LiveChess as a UCI engine
// front-end: it relays moves detected on the physical board into the search core's
// position and otherwise behaves exactly like cmd/morlock over the UCI protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/engine"
	"github.com/herohde/kestrel/pkg/engine/uci"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search/searchctl"
	"github.com/herohde/livechess-go/pkg/livechess"
	"github.com/seekerror/logw"
)

var (
	serial  = flag.String("serial", "auto", "Board selection by serial number (default: auto)")
	flip    = flag.Bool("flip", false, "Flip board")
	weights = flag.String("weights", "", "Path to NNUE weight file. If unset, a zero network is used")
	hash    = flag.Uint("hash", 32, "Transposition table size in MB")
	threads = flag.Uint("threads", 1, "Default lazy-SMP worker count")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: livechess-uci [options]

livechess-uci drives the engine from a DGT EBoard via LiveChess.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	id := livechess.EBoardSerial(*serial)
	if id == "auto" {
		auto, err := livechess.AutoDetect(ctx, livechess.DefaultClient)
		if err != nil {
			logw.Exitf(ctx, "Autodetect failed: %v", err)
		}
		id = auto
	}

	client, events, err := livechess.NewFeed(ctx, id)
	if err != nil {
		logw.Exitf(ctx, "Feed for %v failed: %v", id, err)
	}
	if *flip {
		if err := client.Flip(ctx, true); err != nil {
			logw.Exitf(ctx, "Flip board %v failed: %v", id, err)
		}
	}
	if err := client.Setup(ctx, fen.Initial); err != nil {
		logw.Exitf(ctx, "Setup board %v failed: %v", id, err)
	}

	net := eval.NewZeroNetwork()
	if *weights != "" {
		f, err := os.Open(*weights)
		if err != nil {
			logw.Exitf(ctx, "Failed to open weights: %v", err)
		}
		defer f.Close()

		net, err = eval.LoadWeights(f)
		if err != nil {
			logw.Exitf(ctx, "Failed to load weights: %v", err)
		}
	}

	// As in cmd/morlock, the UCI driver installs its own per-search time manager from
	// "go"'s wtime/btime/movetime; this Compound with no members never aborts on its own.
	var tm searchctl.Compound

	e := engine.New(ctx, "livechess-uci", "herohde", net, tm,
		engine.WithOptions(engine.Options{Hash: *hash, Threads: *threads}))
	e.SetHash(ctx, *hash)

	go relayBoardMoves(ctx, e, events)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}

// relayBoardMoves watches the physical eboard and pushes each detected human move onto
// the engine's current position. The LiveChess feed only reports the resulting board
// layout, not a move in engine notation, so the move is recovered by trying every legal
// move from the engine's current position and keeping the one whose resulting layout
// matches.
func relayBoardMoves(ctx context.Context, e *engine.Engine, events <-chan livechess.EBoardEventResponse) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if len(event.San) == 0 {
				continue
			}
			if m, ok := matchBoardEvent(e, event); ok {
				if err := e.Move(ctx, m); err != nil {
					logw.Errorf(ctx, "Rejecting eboard move %v: %v", m, err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func matchBoardEvent(e *engine.Engine, event livechess.EBoardEventResponse) (string, bool) {
	b := e.Board()
	for _, m := range b.Position().PseudoLegalMoves(b.Turn()) {
		fb := b.Fork()
		if !fb.PushMove(m) {
			continue
		}
		next := strings.Split(fen.Encode(fb.Position(), fb.Turn(), 0, 0), " ")[0]
		if next == event.Board {
			return m.String(), true
		}
	}
	return "", false
}
