package pipeline

import "github.com/marcelocantos/pipesh/internal/lex"

// OpPipe separates stages on a command line.
const OpPipe = string(lex.Pipe)

// Stage represents a single command in a pipeline. Args[0] is the
// capability name; a stage with no args is empty and never runs.
type Stage struct {
	Args []string
}

// Name returns the capability name, or "" for an empty stage.
func (s Stage) Name() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

// Pipeline is an ordered chain of stages. Data flows from each stage's
// output into the next stage's input. A parsed pipeline always has at least
// one stage.
type Pipeline struct {
	Stages []Stage
}

// Names returns the capability name of every stage, in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name()
	}
	return names
}
