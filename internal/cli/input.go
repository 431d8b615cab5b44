// Package cli handles cmd line input and neighborhood rendering for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/seedserve/internal/logger"
	"github.com/bastiangx/seedserve/internal/utils"
	"github.com/bastiangx/seedserve/pkg/neighborhood"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// InputHandler reads one query per line and prints the neighborhood of each
// of its infixes. Lines starting with ':' change settings:
//
//	:w 4    word size
//	:t 12   threshold
//	:n 5    neighbors shown per infix
type InputHandler struct {
	engine       *neighborhood.Engine
	matrixName   string
	opts         neighborhood.Options
	limit        int
	in           io.Reader
	out          io.Writer
	styles       styles
	logger       *log.Logger
	requestCount int
}

type styles struct {
	infix    lipgloss.Style
	word     lipgloss.Style
	exact    lipgloss.Style
	positive lipgloss.Style
	negative lipgloss.Style
	muted    lipgloss.Style
}

func newStyles(out io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(out)
	if !color {
		plain := r.NewStyle()
		return styles{infix: plain, word: plain, exact: plain, positive: plain, negative: plain, muted: plain}
	}
	return styles{
		infix:    r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"}),
		word:     r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}),
		exact:    r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#907aa9", Dark: "#c4a7e7"}),
		positive: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#56949f", Dark: "#31748f"}),
		negative: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"}),
		muted:    r.NewStyle().Faint(true),
	}
}

// NewInputHandler creates a handler on stdin/stdout.
func NewInputHandler(engine *neighborhood.Engine, matrixName string, opts neighborhood.Options, limit int, color bool) *InputHandler {
	return NewInputHandlerWithIO(engine, matrixName, opts, limit, color, os.Stdin, os.Stdout)
}

// NewInputHandlerWithIO creates a handler reading from in and rendering to out.
func NewInputHandlerWithIO(engine *neighborhood.Engine, matrixName string, opts neighborhood.Options, limit int, color bool, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		engine:     engine,
		matrixName: matrixName,
		opts:       opts,
		limit:      limit,
		in:         in,
		out:        out,
		styles:     newStyles(out, color),
		logger:     logger.NewWithConfig(out, "", log.GetLevel(), false, false, log.TextFormatter),
	}
}

// Start runs the input loop until the input ends or ctx is cancelled.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintf(h.out, "SeedServe CLI [%s, w=%d, t=%d]\n", h.matrixName, h.opts.WordSize, h.opts.Threshold)
	fmt.Fprintln(h.out, "type a query and press Enter to see its neighborhood (Ctrl+C to exit):")
	reader := bufio.NewReader(h.in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			h.handleInput(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(line)
		return
	}
	h.requestCount++

	query := utils.NormalizeQuery(line)
	if query == "" {
		h.logger.Warnf("Nothing left of %q after normalisation", line)
		return
	}

	start := time.Now()
	rep, err := h.engine.Run(ctx, query, h.opts)
	if err != nil {
		h.logger.Errorf("Query %d: %v", h.requestCount, err)
		return
	}
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for query %d", elapsed, h.requestCount)

	total := 0
	for _, r := range rep.Results {
		total += len(r.Neighbors)
		h.render(r)
	}
	fmt.Fprintln(h.out, h.styles.muted.Render(fmt.Sprintf("%s infixes, %s neighbors, %d workers, %v",
		utils.FormatWithCommas(len(rep.Results)), utils.FormatWithCommas(total), rep.Workers, elapsed.Round(time.Microsecond))))
}

// render prints one infix and its best scoring neighbors.
func (h *InputHandler) render(r neighborhood.Result) {
	header := fmt.Sprintf("%5d  %s  (%s neighbors)", r.Offset, h.styles.infix.Render(r.Infix), utils.FormatWithCommas(len(r.Neighbors)))
	if utils.IsRepetitive(r.Infix) {
		header += h.styles.muted.Render("  low complexity")
	}
	fmt.Fprintln(h.out, header)

	best := slices.Clone(r.Neighbors)
	slices.SortStableFunc(best, func(a, b neighborhood.Neighbor) int { return b.Score - a.Score })
	if h.limit > 0 && len(best) > h.limit {
		best = best[:h.limit]
	}
	for i, n := range best {
		word := h.styles.word.Render(n.Word)
		if n.Word == r.Infix {
			word = h.styles.exact.Render(n.Word)
		}
		score := h.styles.positive
		if n.Score < 0 {
			score = h.styles.negative
		}
		fmt.Fprintf(h.out, "       %2d. %s %s\n", i+1, word, score.Render(fmt.Sprintf("%4d", n.Score)))
	}
}

func (h *InputHandler) handleCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		h.logger.Errorf("Usage: :w <size> | :t <threshold> | :n <limit>")
		return
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil {
		h.logger.Errorf("Not a number: %s", fields[1])
		return
	}
	switch fields[0] {
	case ":w":
		if v < 1 {
			h.logger.Errorf("Word size must be at least 1")
			return
		}
		h.opts.WordSize = v
	case ":t":
		h.opts.Threshold = v
	case ":n":
		h.limit = v
	default:
		h.logger.Errorf("Unknown command: %s", fields[0])
		return
	}
	fmt.Fprintf(h.out, "w=%d t=%d limit=%d\n", h.opts.WordSize, h.opts.Threshold, h.limit)
}
