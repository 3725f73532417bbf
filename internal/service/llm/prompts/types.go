package prompts

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultTemplateID is the template used when none is configured
const DefaultTemplateID = "digital-marketing/maxreach"

// ErrUnknownTemplate is returned when no builder is registered for a template id
var ErrUnknownTemplate = errors.New("unknown template")

// URLContext is the source site data embedded in a URL-mode prompt
type URLContext struct {
	URL             string
	Title           string
	MetaDescription string
	Text            string
	Industry        string
}

// SeedContext is the brand seed embedded in a company-name prompt
type SeedContext struct {
	CompanyName string
	Industry    string
}

// Builder constructs the generation prompt for one template. Implementations must be
// pure: the same context always yields the same prompt.
type Builder interface {
	ID() string
	FromURL(ctx URLContext) string
	FromSeed(ctx SeedContext) string
}

// Registry maps template ids to prompt builders
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates a registry holding the given builders
func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for _, b := range builders {
		r.Register(b)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in template
func DefaultRegistry() *Registry {
	return NewRegistry(NewMaxReach())
}

// Register adds or replaces a builder
func (r *Registry) Register(b Builder) {
	r.builders[b.ID()] = b
}

// Get returns the builder for a template id
func (r *Registry) Get(templateID string) (Builder, error) {
	b, ok := r.builders[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	return b, nil
}

// IDs lists the registered template ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.builders))
	for id := range r.builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
