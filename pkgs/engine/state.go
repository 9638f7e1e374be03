package engine

// state is the run-time variable table threaded through the check phase.
// Stages mutate it as they are visited: resolving a stage refreshes
// "output" and, unless the stage forwards its input, advances "input" so
// the next serial stage sees the new working filename.
type state map[string]string

// newState seeds the table for one check pass. A caller-supplied input
// filename always wins over a script-declared global of the same name.
func newState(inputFilename string, globals map[string]string) state {
	st := make(state, len(globals)+2)
	if inputFilename != "" {
		st["input"] = inputFilename
	}
	for name, value := range globals {
		if _, exists := st[name]; !exists {
			st[name] = value
		}
	}
	return st
}

// clone returns an independent copy. Each branch of a parallel node checks
// against its own copy of the state as of entry to the node; sibling
// branches never see each other's input/output mutations.
func (st state) clone() state {
	dup := make(state, len(st))
	for name, value := range st {
		dup[name] = value
	}
	return dup
}
