package engine

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// UnknownStageError reports a composition-tree reference that matched no
// declared stage.
type UnknownStageError struct {
	Name       string
	Suggestion string // closest declared stage name, if one is plausible
}

func (e *UnknownStageError) Error() string {
	msg := fmt.Sprintf("stage name %q didn't match any known stages", e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// UndefinedVariableError reports a $VAR reference with no binding in the
// run-time variable state.
type UndefinedVariableError struct {
	Variable string
	Stage    string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("variable %q is not defined in stage %s", e.Variable, e.Stage)
}

// ExitStatusError reports a command that exited nonzero during execute.
type ExitStatusError struct {
	Stage   string
	Command string
	Status  int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("stage %s: command exited with status %d", e.Stage, e.Status)
}

// suggestStage returns the declared stage name closest to the unknown name,
// or "" when nothing is near enough to be a plausible typo.
func suggestStage(name string, candidates []string) string {
	const maxDistance = 3

	best := ""
	bestDistance := maxDistance + 1
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		d := fuzzy.LevenshteinDistance(name, candidate)
		if d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}
	return best
}
