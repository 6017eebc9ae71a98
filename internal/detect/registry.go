package detect

import "fmt"

// RegistrationError describes why a detector was rejected at registration.
// Malformed plugin objects get one of these instead of a crash, and the
// rejection never aborts registration of other detectors.
type RegistrationError struct {
	RuleID string
	Reason string
}

func (e *RegistrationError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("detector registration: %s", e.Reason)
	}
	return fmt.Sprintf("detector registration %q: %s", e.RuleID, e.Reason)
}

// Registry maps rule identifiers to detectors. It is constructed explicitly
// at startup and passed by reference into the orchestrator; there is no
// ambient global registry. Iteration order is registration order.
type Registry struct {
	order    []string
	byRule   map[string]Detector
	disabled map[string]struct{}
}

// NewRegistry creates an empty registry. Detectors whose rule id appears in
// disabledRules are silently excluded at registration.
func NewRegistry(disabledRules []string) *Registry {
	disabled := make(map[string]struct{}, len(disabledRules))
	for _, id := range disabledRules {
		disabled[id] = struct{}{}
	}
	return &Registry{
		byRule:   make(map[string]Detector),
		disabled: disabled,
	}
}

// Register adds a detector. Registering a second detector under an existing
// rule id replaces the first (last registered wins) while keeping the
// original registration position. A rule id on the disabled list is dropped
// without error.
func (r *Registry) Register(d Detector) error {
	if d == nil {
		return &RegistrationError{Reason: "nil detector"}
	}
	id := d.RuleID()
	if id == "" {
		return &RegistrationError{Reason: "empty rule id"}
	}
	if _, off := r.disabled[id]; off {
		return nil
	}
	if _, exists := r.byRule[id]; !exists {
		r.order = append(r.order, id)
	}
	r.byRule[id] = d
	return nil
}

// RegisterAll registers every detector, collecting per-detector errors so a
// single malformed plugin object does not block the rest.
func (r *Registry) RegisterAll(dd ...Detector) []error {
	var errs []error
	for _, d := range dd {
		if err := r.Register(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Get returns the detector for a rule id, or nil.
func (r *Registry) Get(ruleID string) Detector {
	return r.byRule[ruleID]
}

// All returns the registered detectors in registration order.
func (r *Registry) All() []Detector {
	out := make([]Detector, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byRule[id])
	}
	return out
}

// RuleIDs returns the registered rule ids in registration order.
func (r *Registry) RuleIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	return len(r.order)
}
