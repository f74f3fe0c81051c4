package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/NetworkManager/nmstate/pkg/state"
)

// capturePrefix marks a path component resolved against already-taken
// captures instead of the current state.
const capturePrefix = "capture."

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
var captureRefRe = regexp.MustCompile(`capture\.([A-Za-z0-9_-]+)`)

// Resolver evaluates policies against a current state document.
type Resolver struct {
	log zerolog.Logger
}

// NewResolver creates a policy resolver.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{
		log: logger.With().Str("component", "policy-resolver").Logger(),
	}
}

// Resolve evaluates the policy's captures against current and expands the
// placeholders of its desired state, returning the concrete desired state
// document. Resolution is deterministic: the same policy and state always
// produce the same document.
func (r *Resolver) Resolve(pol *Policy, current state.Doc) (state.Doc, error) {
	captures, err := r.resolveCaptures(pol.Capture, current)
	if err != nil {
		return nil, err
	}

	envJSON, err := environment(current, captures)
	if err != nil {
		return nil, err
	}

	expanded, err := substitute(map[string]any(pol.DesiredState), envJSON)
	if err != nil {
		return nil, err
	}
	doc, ok := expanded.(map[string]any)
	if !ok {
		return state.Doc{}, nil
	}
	return state.Doc(doc), nil
}

// resolveCaptures evaluates capture expressions, deferring any capture
// that references a not-yet-taken capture until a later pass. A pass with
// no progress means a cycle or an unknown capture name.
func (r *Resolver) resolveCaptures(exprs map[string]string, current state.Doc) (map[string]any, error) {
	captures := make(map[string]any, len(exprs))
	remaining := make(map[string]string, len(exprs))
	for name, expr := range exprs {
		remaining[name] = expr
	}

	for len(remaining) > 0 {
		progress := false
		for name, expr := range remaining {
			if waitsOn(expr, remaining) {
				continue
			}
			envJSON, err := environment(current, captures)
			if err != nil {
				return nil, err
			}
			res := gjson.GetBytes(envJSON, expr)
			if !res.Exists() {
				return nil, fmt.Errorf("capture %q: expression %q matched nothing", name, expr)
			}
			captures[name] = res.Value()
			delete(remaining, name)
			progress = true
			r.log.Debug().Str("capture", name).Str("expression", expr).Msg("capture resolved")
		}
		if !progress {
			names := make([]string, 0, len(remaining))
			for name := range remaining {
				names = append(names, name)
			}
			return nil, fmt.Errorf("unresolvable captures %v: reference cycle or unknown capture name", names)
		}
	}
	return captures, nil
}

// waitsOn reports whether expr references a capture that has not been
// taken yet.
func waitsOn(expr string, remaining map[string]string) bool {
	for _, m := range captureRefRe.FindAllStringSubmatch(expr, -1) {
		if _, pending := remaining[m[1]]; pending {
			return true
		}
	}
	return false
}

// environment builds the JSON document path expressions evaluate against:
// the current state with resolved captures attached under "capture".
func environment(current state.Doc, captures map[string]any) ([]byte, error) {
	env := current.Clone()
	if env == nil {
		env = state.Doc{}
	}
	env["capture"] = captures
	b, err := env.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to build capture environment: %w", err)
	}
	return b, nil
}

// substitute walks a desired-state tree replacing "{{ expression }}"
// placeholders. A string that is exactly one placeholder takes the
// selected value with its type; placeholders embedded in longer strings
// are stringified in place.
func substitute(v any, envJSON []byte) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			sub, err := substitute(val, envJSON)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		}
		return out, nil
	case state.Doc:
		return substitute(map[string]any(t), envJSON)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			sub, err := substitute(val, envJSON)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	case string:
		return substituteString(t, envJSON)
	default:
		return v, nil
	}
}

func substituteString(s string, envJSON []byte) (any, error) {
	matches := placeholderRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	// A lone placeholder spanning the whole string keeps the selected
	// value's type (numbers stay numbers, mappings stay mappings).
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		expr := strings.TrimSpace(s[matches[0][2]:matches[0][3]])
		res := gjson.GetBytes(envJSON, expr)
		if !res.Exists() {
			return nil, fmt.Errorf("placeholder %q matched nothing", expr)
		}
		return res.Value(), nil
	}

	var firstErr error
	out := placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		expr := strings.TrimSpace(placeholderRe.FindStringSubmatch(m)[1])
		res := gjson.GetBytes(envJSON, expr)
		if !res.Exists() {
			if firstErr == nil {
				firstErr = fmt.Errorf("placeholder %q matched nothing", expr)
			}
			return m
		}
		return res.String()
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
