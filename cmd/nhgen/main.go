// nhgen writes the word neighborhoods of one query and exits. The query is
// taken from -q or read from stdin, so FASTA-less sequence dumps can be piped in.
//
//	nhgen -matrix BLOSUM62 -w 3 -t 13 -q MKVLAAGIVGL
//	cat query.seq | nhgen -matrix DNA -w 11 -t 40 -format msgpack > seeds.mp
//
// TSV output has one line per neighbor: offset, infix, neighbor and score.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/bastiangx/seedserve/internal/logger"
	"github.com/bastiangx/seedserve/internal/utils"
	"github.com/bastiangx/seedserve/pkg/config"
	"github.com/bastiangx/seedserve/pkg/matrix"
	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/bastiangx/seedserve/pkg/server"
	"github.com/joho/godotenv"
	"github.com/vmihailenco/msgpack/v5"
)

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.New("nhgen").Fatal(err)
	}
}

// run parses args, generates the neighborhoods of the query and writes them to stdout.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	_ = godotenv.Load()
	cfg := config.DefaultConfig()

	flags := flag.NewFlagSet("nhgen", flag.ContinueOnError)
	query := flags.String("q", "", "Query sequence (default: read stdin)")
	configFile := flags.String("config", "", "Path to config file")
	dataDir := flags.String("data", "", "Directory containing matrix files")
	matrixName := flags.String("matrix", cfg.Search.Matrix, "Substitution matrix")
	alphabet := flags.String("alphabet", cfg.Search.Alphabet, "Restrict the matrix to these symbols")
	wordSize := flags.Int("w", cfg.Search.WordSize, "Word size")
	threshold := flags.Int("t", cfg.Search.Threshold, "Neighborhood score threshold")
	threads := flags.Int("threads", cfg.Search.Threads, "Worker goroutines (0 for all CPUs)")
	format := flags.String("format", "tsv", "Output format: tsv or msgpack")
	debugMode := flags.Bool("d", false, "Toggle debug mode")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger.Setup(*debugMode)
	log := logger.New("nhgen")

	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["matrix"] {
		cfg.SetMatrix(*matrixName)
	}
	if set["alphabet"] {
		cfg.Search.Alphabet = *alphabet
	}
	if set["w"] {
		cfg.Search.WordSize = *wordSize
	}
	if set["t"] {
		cfg.Search.Threshold = *threshold
	}
	if set["threads"] {
		cfg.Search.Threads = *threads
	}
	if set["data"] {
		cfg.Search.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if *format != "tsv" && *format != "msgpack" {
		return fmt.Errorf("unknown format %q", *format)
	}

	raw := *query
	if raw == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading query: %w", err)
		}
		raw = string(data)
	}
	seq := utils.NormalizeQuery(raw)
	if seq == "" {
		return errors.New("empty query")
	}

	m, err := matrix.NewRegistry(cfg.Search.DataDir).Resolve(cfg.Search.Matrix, cfg.Search.Alphabet)
	if err != nil {
		return fmt.Errorf("failed to load matrix: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := neighborhood.GenerateContext(ctx, seq, m, cfg.Search.WordSize, cfg.Search.Threshold, cfg.Search.EffectiveThreads())
	if err != nil {
		return fmt.Errorf("generating neighborhoods: %w", err)
	}
	elapsed := time.Since(start)
	log.Debugf("%d infixes of %d residues against %s in %v", len(results), len(seq), m.Name(), elapsed)

	out := bufio.NewWriter(stdout)
	if *format == "msgpack" {
		err = msgpack.NewEncoder(out).Encode(server.NewNeighborhoodResponse("nhgen", results, elapsed))
	} else {
		err = writeTSV(out, results)
	}
	if err == nil {
		err = out.Flush()
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// writeTSV writes one offset/infix/neighbor/score line per neighbor.
func writeTSV(w io.Writer, results []neighborhood.Result) error {
	line := make([]byte, 0, 64)
	for _, r := range results {
		for _, n := range r.Neighbors {
			line = strconv.AppendInt(line[:0], int64(r.Offset), 10)
			line = append(line, '\t')
			line = append(line, r.Infix...)
			line = append(line, '\t')
			line = append(line, n.Word...)
			line = append(line, '\t')
			line = strconv.AppendInt(line, int64(n.Score), 10)
			line = append(line, '\n')
			if _, err := w.Write(line); err != nil {
				return fmt.Errorf("offset %d: %w", r.Offset, err)
			}
		}
	}
	return nil
}
