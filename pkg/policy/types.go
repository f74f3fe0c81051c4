package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/NetworkManager/nmstate/pkg/state"
)

// Policy is a declarative rule set resolved against the current network
// state to produce a concrete desired state.
type Policy struct {
	// Capture maps capture names to gjson path expressions evaluated
	// against the current state (or, with the "capture." prefix, against
	// other captures).
	Capture map[string]string `json:"capture,omitempty" yaml:"capture,omitempty"`

	// DesiredState is the templated desired state; string values may
	// contain "{{ expression }}" placeholders.
	DesiredState state.Doc `json:"desiredState,omitempty" yaml:"desiredState,omitempty"`
}

// Parse decodes a policy document from YAML or JSON text.
func Parse(b []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}
	return &p, nil
}

// IsEmpty reports whether the policy has neither captures nor a desired
// state.
func (p *Policy) IsEmpty() bool {
	return len(p.Capture) == 0 && len(p.DesiredState) == 0
}
