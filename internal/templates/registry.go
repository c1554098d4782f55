package templates

import (
	"sort"

	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
)

// StepDefinition is one ordered stage inside a template blueprint.
type StepDefinition struct {
	StepKey     string `json:"step_key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Template is a static, ordered blueprint a journey is instantiated from.
type Template struct {
	TemplateID string           `json:"template_id"`
	Title      string           `json:"title"`
	Steps      []StepDefinition `json:"steps"`
}

// Registry is the read-only catalog of journey templates. The catalog ships
// with the binary; nothing mutates it at runtime, so lookups need no locking.
type Registry struct {
	byID  map[string]Template
	order []string
}

// NewRegistry builds a registry over the built-in catalog.
func NewRegistry() *Registry {
	return newRegistry(catalog)
}

func newRegistry(entries []Template) *Registry {
	byID := make(map[string]Template, len(entries))
	order := make([]string, 0, len(entries))
	for _, tpl := range entries {
		if _, exists := byID[tpl.TemplateID]; exists {
			continue
		}
		byID[tpl.TemplateID] = tpl
		order = append(order, tpl.TemplateID)
	}
	sort.Strings(order)
	return &Registry{byID: byID, order: order}
}

// GetTemplate returns the template registered under id.
func (r *Registry) GetTemplate(id string) (Template, error) {
	tpl, ok := r.byID[id]
	if !ok {
		return Template{}, pkgerrors.New(pkgerrors.CodeUnknownTemplate, "unknown journey template").
			WithDetails(map[string]any{"template_id": id})
	}
	return tpl, nil
}

// ListTemplates returns every registered template, ordered by id.
func (r *Registry) ListTemplates() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
