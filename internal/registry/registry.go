// Package registry builds and holds the catalog of callable tools derived
// from an API specification.
package registry

import (
	"sort"
	"sync/atomic"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/specbridge/specbridge/internal/common"
	"github.com/specbridge/specbridge/internal/schema"
	"github.com/specbridge/specbridge/internal/spec"
	"github.com/specbridge/specbridge/internal/toolname"
	"github.com/specbridge/specbridge/internal/whitelist"
)

// Binding ties a tool name to the operation it was derived from.
type Binding struct {
	Name        string
	Description string
	Method      string // upper-case HTTP verb
	Path        string // path template
	Operation   *openapi3.Operation
	PathItem    *openapi3.PathItem
	InputSchema *schema.Object
}

// Options controls tool-name derivation during a build.
type Options struct {
	NamePrefix    string
	NameMaxLength int
}

// Registry is the process-wide tool catalog. Rebuild publishes a complete new
// snapshot with an atomic pointer swap, so concurrent lookups never observe a
// partially-built or empty intermediate state.
type Registry struct {
	snap   atomic.Pointer[snapshot]
	logger *common.Logger
}

type snapshot struct {
	byName  map[string]*Binding
	ordered []*Binding
}

// New creates an empty registry.
func New(logger *common.Logger) *Registry {
	r := &Registry{logger: logger}
	r.snap.Store(&snapshot{byName: map[string]*Binding{}})
	return r
}

// Rebuild derives the catalog from a freshly loaded specification, replacing
// any prior catalog wholesale. Paths are visited in sorted order and methods
// in sorted order within a path, so duplicate-name resolution is
// deterministic: the first registration wins and later collisions are logged
// and skipped, as are names failing the protocol pattern. Returns the number
// of registered tools.
func (r *Registry) Rebuild(doc *spec.Document, rules whitelist.Rules, opts Options) int {
	next := &snapshot{byName: map[string]*Binding{}}
	defer r.snap.Store(next)

	if !doc.HasPaths() {
		r.logger.Warn().Msg("No paths in specification; tool catalog is empty")
		return 0
	}

	nameOpts := toolname.Options{Prefix: opts.NamePrefix, MaxLength: opts.NameMaxLength}

	for _, path := range doc.PathTemplates() {
		if !rules.Allows(path) {
			r.logger.Debug().Str("path", path).Msg("Path not whitelisted; skipping")
			continue
		}
		item := doc.PathItem(path)
		if item == nil {
			continue
		}
		for _, method := range sortedMethods(item) {
			op := item.Operations()[method]
			raw := method + " " + path

			detail := toolname.NormalizeDetail(raw, nameOpts)
			if detail.Truncated {
				r.logger.Warn().
					Str("operation", raw).
					Str("name", detail.Name).
					Int("cap", detail.Cap).
					Str("cap_source", string(detail.CapSource)).
					Msg("Tool name truncated to length cap")
			}

			if !toolname.ValidName.MatchString(detail.Name) {
				r.logger.Error().
					Str("operation", raw).
					Str("name", detail.Name).
					Msg("Derived tool name fails protocol pattern; skipping")
				continue
			}
			if _, exists := next.byName[detail.Name]; exists {
				r.logger.Warn().
					Str("operation", raw).
					Str("name", detail.Name).
					Msg("Duplicate tool name; skipping")
				continue
			}

			binding := &Binding{
				Name:        detail.Name,
				Description: describe(op),
				Method:      method,
				Path:        path,
				Operation:   op,
				PathItem:    item,
				InputSchema: schema.Build(op, item, path),
			}
			next.byName[binding.Name] = binding
			next.ordered = append(next.ordered, binding)

			r.logger.Debug().
				Str("name", binding.Name).
				Str("operation", raw).
				Msg("Registered tool")
		}
	}

	r.logger.Info().Int("tools", len(next.ordered)).Msg("Tool catalog built")
	return len(next.ordered)
}

// Lookup returns the binding for a tool name from the current snapshot.
func (r *Registry) Lookup(name string) (*Binding, bool) {
	b, ok := r.snap.Load().byName[name]
	return b, ok
}

// Tools returns the current catalog in registration order.
func (r *Registry) Tools() []*Binding {
	return r.snap.Load().ordered
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.snap.Load().ordered)
}

// sortedMethods returns the HTTP verbs declared on a path item in sorted
// order. Operations() only yields real verbs, so extension keys never leak in.
func sortedMethods(item *openapi3.PathItem) []string {
	ops := item.Operations()
	methods := make([]string, 0, len(ops))
	for method := range ops {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

func describe(op *openapi3.Operation) string {
	if op == nil {
		return "No description available"
	}
	if op.Summary != "" {
		return op.Summary
	}
	if op.Description != "" {
		return op.Description
	}
	return "No description available"
}
