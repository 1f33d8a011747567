package builtin

import (
	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/kv"
)

// RegisterAll adds all built-in capabilities to the registry. The
// variable builtins are only registered when store is non-nil.
func RegisterAll(r *cap.Registry, store kv.Store) {
	r.Register(&Cat{})
	r.Register(&Count{})
	r.Register(&Echo{})
	r.Register(&Eval{})
	r.Register(&Greet{})
	r.Register(&Help{})
	r.Register(&Jq{})
	if store != nil {
		r.Register(&Del{Store: store})
		r.Register(&Get{Store: store})
		r.Register(&Keys{Store: store})
		r.Register(&Set{Store: store})
	}
}
