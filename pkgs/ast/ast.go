package ast

import (
	"fmt"
	"strings"
)

// Position represents a location in the source script
type Position struct {
	Offset int // byte offset into the comment-stripped script text
	Line   int // 1-indexed
	Column int // 1-indexed
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Stage is a named unit of work made of ordered shell-command templates.
// Stages are immutable after parse; composition nodes reference them by name.
type Stage struct {
	Name         string            // unique among declared stages; empty until assigned
	ExecLines    []string          // command templates in declaration order, may contain $VAR / ${VAR}
	Filter       string            // optional filter name set by filter("...") or @Filter("...")
	ForwardInput bool              // stage does not rename the pipeline's working file
	Doc          map[string]string // doc metadata (title/author/constraints/desc); inert at run time
	Pos          Position
}

// AddExecLine appends a command template in declaration order.
func (s *Stage) AddExecLine(line string) {
	s.ExecLines = append(s.ExecLines, line)
}

// SetDoc records a doc attribute. A bare `doc "text"` statement is stored
// under the "desc" key.
func (s *Stage) SetDoc(key, value string) {
	if s.Doc == nil {
		s.Doc = make(map[string]string)
	}
	s.Doc[key] = value
}

// Node is a composition tree node combining stages via the serial (+) and
// parallel ([,]) operators. The tree is binary: n-ary chains are left-folded
// during parsing into left-leaning trees. Nodes are pure syntax; resolution
// against the declared-stage list happens in the engine's check phase.
type Node interface {
	// String renders the node in the diagnostic tree notation, e.g.
	// Serial(align,Parallel(sort,dedup)).
	String() string

	node()
}

// StageRef names a declared stage. Resolution is deferred to check time so
// stages may be referenced before their declaration is parsed.
type StageRef struct {
	Name string
	Pos  Position
}

func (r *StageRef) String() string { return r.Name }
func (r *StageRef) node()          {}

// Serial runs its left child, then its right child only if the left
// succeeded.
type Serial struct {
	Left, Right Node
}

func (s *Serial) String() string {
	return fmt.Sprintf("Serial(%s,%s)", s.Left, s.Right)
}
func (s *Serial) node() {}

// Parallel fans out both children concurrently and joins on completion of
// both, regardless of either's outcome.
type Parallel struct {
	Left, Right Node
}

func (p *Parallel) String() string {
	return fmt.Sprintf("Parallel(%s,%s)", p.Left, p.Right)
}
func (p *Parallel) node() {}

// Script is the parse product of one pipeline-description file: the declared
// stages, the global variable table, and the run block's composition tree.
// A Script supports at most one check/execute cycle.
type Script struct {
	Source  string            // comment-stripped script text
	Stages  []*Stage          // declaration order
	Globals map[string]string // first assignment wins; later duplicates ignored
	Root    Node              // the run block's expression
	Title   string            // about block title, if any; inert
}

// Stage returns the first declared stage with the given name, or nil.
func (s *Script) Stage(name string) *Stage {
	for _, st := range s.Stages {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// StageNames returns the declared stage names in declaration order.
func (s *Script) StageNames() []string {
	names := make([]string, 0, len(s.Stages))
	for _, st := range s.Stages {
		names = append(names, st.Name)
	}
	return names
}

// String renders the composition tree for diagnostics.
func (s *Script) String() string {
	if s.Root == nil {
		return "(no run block)"
	}
	var b strings.Builder
	b.WriteString(s.Root.String())
	return b.String()
}
