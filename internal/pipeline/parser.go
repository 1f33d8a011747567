package pipeline

import (
	"fmt"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/lex"
)

// Split groups a token sequence into stages, breaking on separators.
// Empty stages are preserved, so k separators always yield k+1 stages.
func Split(toks []lex.Token) *Pipeline {
	p := &Pipeline{Stages: []Stage{{}}}
	for _, tok := range toks {
		switch tok.Kind {
		case lex.Separator:
			p.Stages = append(p.Stages, Stage{})
		default:
			last := &p.Stages[len(p.Stages)-1]
			last.Args = append(last.Args, tok.Text)
		}
	}
	return p
}

// Parse tokenizes a command line and splits it into stages.
func Parse(line string) (*Pipeline, error) {
	toks, err := lex.All(line)
	if err != nil {
		return nil, err
	}
	return Split(toks), nil
}

// Validate checks every stage before anything runs: no stage may be empty,
// every stage must name a registered capability, that capability's tier
// must be enabled, and its arguments must pass the registry's rules.
func Validate(p *Pipeline, reg *cap.Registry) error {
	_, err := resolve(p, reg)
	return err
}

func resolve(p *Pipeline, reg *cap.Registry) ([]cap.Capability, error) {
	if len(p.Stages) == 0 {
		return nil, &StageError{Index: 0, Err: ErrEmptyCommand}
	}
	caps := make([]cap.Capability, len(p.Stages))
	for i, st := range p.Stages {
		if len(st.Args) == 0 {
			return nil, &StageError{Index: i, Err: ErrEmptyCommand}
		}
		c, ok := reg.Lookup(st.Name())
		if !ok {
			return nil, &StageError{Index: i, Err: &UnknownCommandError{Name: st.Name()}}
		}
		if err := reg.CheckTier(c.Tier()); err != nil {
			return nil, &StageError{Index: i, Err: fmt.Errorf("%s: %w", st.Name(), err)}
		}
		if err := reg.CheckRules(st.Name(), st.Args[1:]); err != nil {
			return nil, &StageError{Index: i, Err: err}
		}
		caps[i] = c
	}
	return caps, nil
}
