package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/herohde/kestrel/pkg/engine"
	"github.com/herohde/kestrel/pkg/engine/console"
	"github.com/herohde/kestrel/pkg/engine/uci"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search/searchctl"
	"github.com/seekerror/logw"
)

var (
	weights = flag.String("weights", "", "Path to NNUE weight file. If unset, a zero network is used")
	hash    = flag.Uint("hash", 32, "Transposition table size in MB")
	depth   = flag.Uint("depth", 0, "Default search depth limit (zero: no limit)")
	threads = flag.Uint("threads", 1, "Default lazy-SMP worker count")
	seed    = flag.Int64("seed", 0, "Zobrist hashing seed. If zero, the default table is used")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: morlock [options]

KESTREL is a UCI chess engine.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

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

	// No time manager fires on its own by default: the UCI driver installs a per-search
	// Dynamic or FixedTime manager from "go"'s wtime/btime/movetime, and the console
	// driver relies on explicit "halt". Compound with no members never aborts.
	var tm searchctl.Compound

	opts := []engine.Option{
		engine.WithOptions(engine.Options{Depth: *depth, Hash: *hash, Threads: *threads}),
	}
	if *seed != 0 {
		opts = append(opts, engine.WithZobrist(*seed))
	}

	e := engine.New(ctx, "morlock", "herohde", net, tm, opts...)
	e.SetHash(ctx, *hash)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		// Use UCI protocol.

		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	case console.ProtocolName:
		driver, out := console.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
