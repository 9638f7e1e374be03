// Package engine drives the two-phase check/execute protocol over a parsed
// pipeline script. Check binds variables and resolves every stage reference
// into concrete shell commands without side effects on the outside world;
// Execute runs the resolved tree through the CommandRunner collaborator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openge/bpipe/internal/logger"
	"github.com/openge/bpipe/pkgs/ast"
	"github.com/openge/bpipe/pkgs/parser"
	"github.com/openge/bpipe/pkgs/plan"
	"github.com/openge/bpipe/pkgs/script"
)

// Pipeline owns one script's text and its single check/execute cycle.
// There are no reset semantics: load, check once, execute once.
type Pipeline struct {
	path   string
	text   string
	script *ast.Script
	root   queue

	runner CommandRunner
	stderr io.Writer
	log    *zap.SugaredLogger

	input     string
	checked   bool
	startTime time.Time
	stopTime  time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the default shell runner; tests use this to capture
// commands without spawning processes.
func WithRunner(r CommandRunner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithStderr redirects the progress banners and diagnostics.
func WithStderr(w io.Writer) Option {
	return func(p *Pipeline) { p.stderr = w }
}

// WithLogger attaches a diagnostics logger. Banners are observable output
// and always go to the error stream regardless of the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// Load reads and comment-strips the script at path. An unreadable file is a
// recoverable error, not a fatal one.
func Load(path string, opts ...Option) (*Pipeline, error) {
	text, err := script.Load(path)
	if err != nil {
		return nil, err
	}
	p := NewFromSource(text, opts...)
	p.path = path
	return p, nil
}

// NewFromSource builds a pipeline from already-loaded script text. The text
// is assumed comment-stripped; use script.StripComments otherwise.
func NewFromSource(text string, opts ...Option) *Pipeline {
	p := &Pipeline{
		text:   text,
		stderr: os.Stderr,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = &ShellRunner{Stderr: p.stderr}
	}
	// Parallel branches emit stage banners concurrently; keep each write
	// whole.
	p.stderr = &syncWriter{w: p.stderr}
	return p
}

// syncWriter serializes writes from concurrent parallel branches.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}

// Check parses the script text once, seeds the run-time variable state from
// the optional input filename and the script's globals, and validates and
// resolves the whole composition tree. It never invokes an external
// process. Execute must not be called unless Check succeeded.
func (p *Pipeline) Check(inputFilename string) error {
	if p.checked {
		return errors.New("pipeline already checked; a pipeline supports one check/execute cycle")
	}

	parsed, err := parser.Parse(p.text)
	if err != nil {
		return err
	}
	p.script = parsed
	p.root = p.compile(parsed.Root)

	st := newState(inputFilename, parsed.Globals)
	if err := p.root.check(st); err != nil {
		return err
	}

	p.input = inputFilename
	p.checked = true
	p.log.Debugw("pipeline checked",
		"stages", len(parsed.Stages),
		"tree", parsed.Root.String(),
	)
	return nil
}

// Execute runs the resolved tree. Start and finish timestamps and the
// pass/fail banner are observable side effects on the error stream, and are
// also retrievable through StartTime and StopTime.
func (p *Pipeline) Execute(ctx context.Context) error {
	if !p.checked {
		return errors.New("pipeline has not been checked; call Check before Execute")
	}

	p.startTime = time.Now()
	fmt.Fprintf(p.stderr, "=== Starting pipeline at %s ===\n", p.startTime.Format(time.ANSIC))

	err := p.root.execute(ctx)

	p.stopTime = time.Now()
	if err != nil {
		fmt.Fprintf(p.stderr, "=== Pipeline FAILED at %s ===\n", p.stopTime.Format(time.ANSIC))
		return err
	}
	fmt.Fprintf(p.stderr, "=== Finished successfully at %s ===\n", p.stopTime.Format(time.ANSIC))
	return nil
}

// Print renders the composition tree in the diagnostic notation, e.g.
// Serial(align,Parallel(sort,dedup)). It parses on demand so an unchecked
// pipeline can still be printed.
func (p *Pipeline) Print(w io.Writer) error {
	if p.script == nil {
		parsed, err := parser.Parse(p.text)
		if err != nil {
			return err
		}
		p.script = parsed
	}
	fmt.Fprintln(w, p.script.String())
	return nil
}

// Plan snapshots the checked pipeline: every stage reference in tree order
// with its resolved commands.
func (p *Pipeline) Plan() (*plan.Plan, error) {
	if !p.checked {
		return nil, errors.New("pipeline has not been checked; call Check before Plan")
	}

	name := p.path
	if name == "" {
		name = "(inline script)"
	}
	out := &plan.Plan{
		Script:    name,
		Input:     p.input,
		CreatedAt: time.Now(),
	}
	collectStages(p.root, out)
	return out, nil
}

// collectStages walks the queue tree in order, appending resolved stage
// references.
func collectStages(q queue, out *plan.Plan) {
	switch n := q.(type) {
	case *stageRef:
		out.Stages = append(out.Stages, plan.Stage{Name: n.name, Commands: n.commands})
	case *serialQueue:
		collectStages(n.left, out)
		collectStages(n.right, out)
	case *parallelQueue:
		collectStages(n.left, out)
		collectStages(n.right, out)
	}
}

// Script exposes the parse product; nil before Check or Print.
func (p *Pipeline) Script() *ast.Script { return p.script }

// StartTime reports when Execute began; zero before Execute.
func (p *Pipeline) StartTime() time.Time { return p.startTime }

// StopTime reports when Execute finished; zero before Execute.
func (p *Pipeline) StopTime() time.Time { return p.stopTime }
