package worker

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/types"
)

// Progress tallies a batch of assessments as results arrive and keeps a
// running status line with the best location seen so far.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	live    bool
	started time.Time

	total   int
	done    int
	sources map[types.AssessmentSource]int
	best    *Result
	slowest time.Duration
}

// NewProgress creates a tally for total locations. With live set, every
// recorded result redraws the status line on stderr.
func NewProgress(total int, live bool) *Progress {
	return &Progress{
		out:     os.Stderr,
		live:    live,
		started: time.Now(),
		total:   total,
		sources: make(map[types.AssessmentSource]int),
	}
}

// Record adds one result. It is safe to call from worker goroutines and
// matches ResultFunc.
func (p *Progress) Record(r Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if p.done > p.total {
		p.total = p.done
	}
	p.sources[r.Assessment.Source]++
	if r.Elapsed > p.slowest {
		p.slowest = r.Elapsed
	}
	if p.best == nil || r.Assessment.CombinedScore() > p.best.Assessment.CombinedScore() {
		best := r
		p.best = &best
	}

	if p.live {
		fmt.Fprintf(p.out, "\r%-72s", p.status())
	}
}

// Best returns the highest scoring result recorded so far.
func (p *Progress) Best() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.best == nil {
		return Result{}, false
	}
	return *p.best, true
}

// Done ends the live status line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live && p.done > 0 {
		fmt.Fprintln(p.out)
	}
}

// Summary describes the finished batch: how many locations were assessed,
// which one scored best and which sources answered.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Assessed %d/%d locations in %s", p.done, p.total, time.Since(p.started).Round(time.Millisecond))
	if p.best != nil {
		fmt.Fprintf(&b, ", best %d at %s", p.best.Assessment.CombinedScore(), p.best.Job.Coordinate)
	}
	if len(p.sources) > 0 {
		fmt.Fprintf(&b, " (%s; slowest %s)", p.sourceCounts(), p.slowest.Round(time.Millisecond))
	}
	return b.String()
}

// status is the live line. Callers hold p.mu.
func (p *Progress) status() string {
	line := fmt.Sprintf("%d/%d assessed", p.done, p.total)
	if p.best != nil {
		line += fmt.Sprintf(" | best %d at %s", p.best.Assessment.CombinedScore(), p.best.Job.Coordinate)
	}
	if n := p.sources[types.SourceSynthetic]; n > 0 {
		line += fmt.Sprintf(" | %d synthetic", n)
	}
	return line
}

// sourceCounts renders "gemini=3 synthetic=1" in name order. Callers hold p.mu.
func (p *Progress) sourceCounts() string {
	names := make([]string, 0, len(p.sources))
	for src := range p.sources {
		names = append(names, string(src))
	}
	slices.Sort(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, p.sources[types.AssessmentSource(name)])
	}
	return strings.Join(parts, " ")
}
