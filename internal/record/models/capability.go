package models

import (
	"slices"
	"sort"
	"sync"

	dErrors "stewardship/pkg/domain-errors"
)

// Capability names one of the four stewardship concerns a host model can
// opt into.
type Capability string

const (
	CapabilityOwnership      Capability = "ownership"
	CapabilityAccess         Capability = "access"
	CapabilityAssignment     Capability = "assignment"
	CapabilityResponsibility Capability = "responsibility"
)

// AllCapabilities lists every capability in a stable order.
var AllCapabilities = []Capability{
	CapabilityOwnership,
	CapabilityAccess,
	CapabilityAssignment,
	CapabilityResponsibility,
}

func (c Capability) IsValid() bool {
	return slices.Contains(AllCapabilities, c)
}

// ParseCapability converts a string to a Capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown capability: "+s)
	}
	return c, nil
}

// Capability interfaces. Cross-capability checks go through these accessors;
// the boolean is false when the record's model did not opt in.
type (
	Ownable interface {
		OwnershipState() (*Ownership, bool)
	}
	Accessible interface {
		AccessState() (*Access, bool)
	}
	Assignable interface {
		AssignmentState() (*Assignment, bool)
	}
	Responsible interface {
		ResponsibilityState() (*Responsibility, bool)
	}
)

// Registry is the static table of host models and the capabilities each one
// opts into. It is populated at startup and read by record creation and the
// dashboard.
type Registry struct {
	mu     sync.RWMutex
	models map[string][]Capability
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string][]Capability)}
}

// Register declares model with the given capabilities. Registering a model
// twice replaces its capability set.
func (r *Registry) Register(model string, caps ...Capability) error {
	if model == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "model name is required")
	}
	if len(caps) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "model must declare at least one capability")
	}
	unique := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if !c.IsValid() {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown capability: "+string(c))
		}
		if !slices.Contains(unique, c) {
			unique = append(unique, c)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[model] = unique
	return nil
}

// MustRegister is Register for static startup tables.
func (r *Registry) MustRegister(model string, caps ...Capability) *Registry {
	if err := r.Register(model, caps...); err != nil {
		panic(err)
	}
	return r
}

// Capabilities returns the capabilities declared for model.
func (r *Registry) Capabilities(model string) ([]Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.models[model]
	return slices.Clone(caps), ok
}

func (r *Registry) Has(model string, c Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.models[model], c)
}

// ModelsWith returns the sorted names of every model declaring c.
func (r *Registry) ModelsWith(c Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, caps := range r.models {
		if slices.Contains(caps, c) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Models returns every registered model name, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Example host models shipped with the service.
const (
	ModelTask      = "project.task"
	ModelProject   = "project.project"
	ModelMilestone = "project.milestone"
	ModelDocument  = "document"
)

// DefaultRegistry returns a registry holding the example host models.
func DefaultRegistry() *Registry {
	return NewRegistry().
		MustRegister(ModelTask, AllCapabilities...).
		MustRegister(ModelProject, CapabilityOwnership, CapabilityAccess, CapabilityResponsibility).
		MustRegister(ModelMilestone, CapabilityOwnership, CapabilityAssignment).
		MustRegister(ModelDocument, CapabilityOwnership, CapabilityAccess, CapabilityResponsibility)
}
