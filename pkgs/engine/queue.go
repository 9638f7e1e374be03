package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openge/bpipe/pkgs/ast"
	"github.com/openge/bpipe/pkgs/lexer"
)

// queue is the engine-side composition tree. Each variant carries exactly
// the check and execute capabilities the two-phase protocol needs; check
// validates and resolves without touching any external process, execute runs
// the resolved commands.
type queue interface {
	check(st state) error
	execute(ctx context.Context) error
}

// compile binds an AST composition node into the engine's queue tree.
func (p *Pipeline) compile(node ast.Node) queue {
	switch n := node.(type) {
	case *ast.StageRef:
		return &stageRef{pipeline: p, name: n.Name}
	case *ast.Serial:
		return &serialQueue{left: p.compile(n.Left), right: p.compile(n.Right)}
	case *ast.Parallel:
		return &parallelQueue{left: p.compile(n.Left), right: p.compile(n.Right)}
	default:
		panic(fmt.Sprintf("unsupported composition node %T", node))
	}
}

// stageRef names one declared stage and, after check, owns its concrete
// command list.
type stageRef struct {
	pipeline *Pipeline
	name     string
	stage    *ast.Stage
	commands []string
}

func (r *stageRef) check(st state) error {
	r.stage = r.pipeline.script.Stage(r.name)
	if r.stage == nil {
		return &UnknownStageError{
			Name:       r.name,
			Suggestion: suggestStage(r.name, r.pipeline.script.StageNames()),
		}
	}

	for _, template := range r.stage.ExecLines {
		// The working filename pair: while an input is known, each command
		// of this stage sees output = input + "." + stageName.
		if input, ok := st["input"]; ok {
			st["output"] = input + "." + r.stage.Name
		}

		command, err := expand(template, r.stage.Name, st)
		if err != nil {
			return err
		}
		r.commands = append(r.commands, command)
	}

	// Advance the chain: the next serial stage's input is this stage's
	// output, unless the stage forwards its input unchanged.
	if output, ok := st["output"]; ok && !r.stage.ForwardInput {
		st["input"] = output
	}

	return nil
}

func (r *stageRef) execute(ctx context.Context) error {
	p := r.pipeline
	fmt.Fprintf(p.stderr, "=== Stage %s %s ===\n", r.name, time.Now().Format(time.ANSIC))

	for _, command := range r.commands {
		p.log.Debugw("running command", "stage", r.name, "command", command)
		status, err := p.runner.Run(ctx, command)
		if err != nil {
			return fmt.Errorf("stage %s: %w", r.name, err)
		}
		if status != 0 {
			fmt.Fprintf(p.stderr, "Execution of stage failed (%d).\n", status)
			return &ExitStatusError{Stage: r.name, Command: command, Status: status}
		}
	}
	return nil
}

// expand substitutes $VAR and ${VAR} references in a command template.
//
// The scan is a single left-to-right pass that advances past each spliced
// value: a value that itself starts with '$' is never re-expanded. Brace
// references run to the first '}' inclusive; bare references run through
// alphanumerics and '_' (a wider class than bare identifiers accept).
func expand(template, stageName string, st state) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '$' {
			b.WriteByte(template[i])
			i++
			continue
		}

		var name string
		if i+1 < len(template) && template[i+1] == '{' {
			j := i + 2
			for j < len(template) && template[j] != '}' {
				j++
			}
			if j >= len(template) {
				// Unterminated brace: the rest of the template is the name,
				// which cannot be declared and so fails the lookup below.
				name = template[i+2:]
				i = len(template)
			} else {
				name = template[i+2 : j]
				i = j + 1
			}
		} else {
			j := i + 1
			for j < len(template) && lexer.IsVarNameChar(template[j]) {
				j++
			}
			name = template[i+1 : j]
			i = j
		}

		value, ok := st[name]
		if !ok {
			return "", &UndefinedVariableError{Variable: name, Stage: stageName}
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

// serialQueue composes two queues with AND short-circuit semantics: the
// right child neither checks nor runs unless the left succeeded.
type serialQueue struct {
	left, right queue
}

func (q *serialQueue) check(st state) error {
	if err := q.left.check(st); err != nil {
		return err
	}
	return q.right.check(st)
}

func (q *serialQueue) execute(ctx context.Context) error {
	if err := q.left.execute(ctx); err != nil {
		return err
	}
	return q.right.execute(ctx)
}

// parallelQueue composes two queues as a fan-out with join. During check
// each branch gets an independent copy of the variable state as of entry;
// the state after the node is the entry state, never a merge of branch
// results. During execute both branches run to completion regardless of
// either's outcome.
type parallelQueue struct {
	left, right queue
}

func (q *parallelQueue) check(st state) error {
	if err := q.left.check(st.clone()); err != nil {
		return err
	}
	return q.right.check(st.clone())
}

func (q *parallelQueue) execute(ctx context.Context) error {
	branches := []queue{q.left, q.right}

	var wg sync.WaitGroup
	errChan := make(chan error, len(branches))

	for _, branch := range branches {
		wg.Add(1)
		go func(branch queue) {
			defer wg.Done()
			errChan <- branch.execute(ctx)
		}(branch)
	}

	go func() {
		wg.Wait()
		close(errChan)
	}()

	// No short-circuit here: a failing branch must not cancel or skip its
	// sibling, so errors are collected only after both complete.
	var failures []string
	for err := range errChan {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("parallel execution failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
