package cap

import (
	"context"
	"fmt"
	"sort"

	"github.com/marcelocantos/pipesh/internal/rules"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// Tier represents the safety level of a capability.
type Tier int

const (
	TierRead  Tier = iota // pure or read-only operations (echo, count, get)
	TierWrite             // mutate the external store (set, del)
)

func (t Tier) String() string {
	switch t {
	case TierRead:
		return "read"
	case TierWrite:
		return "write"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier converts a string to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "read":
		return TierRead, nil
	case "write":
		return TierWrite, nil
	default:
		return 0, fmt.Errorf("unknown tier: %q", s)
	}
}

// Capability is the interface every builtin must implement.
type Capability interface {
	// Name returns the identifier used as the first word of a stage.
	Name() string

	// Description returns a human-readable summary for help output.
	Description() string

	// Tier returns the safety classification.
	Tier() Tier

	// Run executes the capability. args[0] is the capability's own name.
	// It reads items from in until it has what it needs (in is already
	// closed for the first stage) and writes items to out. Problems are
	// reported as lines on errs; a non-nil return is reported there too.
	// Run must not close out or errs: the executor owns those handles.
	Run(ctx context.Context, args []string, in *stream.Receiver, out, errs *stream.Sender) error
}

// Registry maps capability names to implementations and controls tier
// access and argument rules. It is populated once at setup; after it has
// been handed to an executor it is read-only and safe for concurrent
// lookups.
type Registry struct {
	caps  map[string]Capability
	tiers map[Tier]bool
	rules *rules.RuleSet
}

// NewRegistry creates an empty registry with every tier enabled.
// Hardcoded rules are always active.
func NewRegistry() *Registry {
	return &Registry{
		caps: make(map[string]Capability),
		tiers: map[Tier]bool{
			TierRead:  true,
			TierWrite: true,
		},
		rules: rules.NewRuleSet(rules.Hardcoded()...),
	}
}

// Register adds a capability to the registry, replacing any previous
// capability with the same name.
func (r *Registry) Register(c Capability) {
	r.caps[c.Name()] = c
}

// Lookup returns a capability by exact, case-sensitive name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.caps[name]
	return c, ok
}

// CheckTier returns an error if the given tier is not enabled.
func (r *Registry) CheckTier(t Tier) error {
	if !r.tiers[t] {
		return fmt.Errorf("tier %q is disabled", t)
	}
	return nil
}

// SetTier enables or disables a tier.
func (r *Registry) SetTier(t Tier, enabled bool) {
	r.tiers[t] = enabled
}

// SetRules replaces the rule set. Callers should build rs on top of
// rules.Hardcoded so the built-in checks stay present.
func (r *Registry) SetRules(rs *rules.RuleSet) {
	r.rules = rs
}

// CheckRules validates a stage's arguments (excluding the name) against
// every rule for the named capability.
func (r *Registry) CheckRules(capName string, args []string) error {
	if r.rules == nil {
		return nil
	}
	return r.rules.Check(capName, args)
}

// All returns all registered capabilities sorted by name.
func (r *Registry) All() []Capability {
	caps := make([]Capability, 0, len(r.caps))
	for _, c := range r.caps {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool {
		return caps[i].Name() < caps[j].Name()
	})
	return caps
}

type contextKey struct{}

// NewContext returns a context with the registry attached.
func NewContext(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, contextKey{}, reg)
}

// RegistryFromContext retrieves the registry from a context.
func RegistryFromContext(ctx context.Context) (*Registry, bool) {
	reg, ok := ctx.Value(contextKey{}).(*Registry)
	return reg, ok
}
