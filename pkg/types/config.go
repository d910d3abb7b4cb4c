package types

import "errors"

// Config selects store-wide policies for linkgraph.New.
type Config struct {
	// FatalPolicy picks how internal invariant violations end: FatalPanic
	// (default) or FatalExit.
	FatalPolicy string `json:"fatal_policy" yaml:"fatal_policy"`

	// Metrics enables the Prometheus collectors.
	Metrics bool `json:"metrics" yaml:"metrics"`
}

// Supported fatal policies.
const (
	FatalPanic = "panic"
	FatalExit  = "exit"
)

// Config validation errors.
var (
	ErrFatalPolicyUnknown = errors.New("unknown fatal policy")
)

// knownFatalPolicies lists the policies that Validate accepts.
var knownFatalPolicies = map[string]bool{
	"":         true,
	FatalPanic: true,
	FatalExit:  true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if !knownFatalPolicies[c.FatalPolicy] {
		return ErrFatalPolicyUnknown
	}
	return nil
}
