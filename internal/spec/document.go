// Package spec loads and models OpenAPI/Swagger documents.
package spec

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document is a parsed API specification. OAS is the (possibly converted)
// OpenAPI 3 model; Raw preserves the top-level mapping as parsed so Swagger 2
// fields like host/schemes/basePath remain addressable after conversion.
type Document struct {
	OAS    *openapi3.T
	Raw    map[string]any
	Source string
}

// HasPaths reports whether the document declares any paths. A document with
// no paths yields an empty tool catalog, not an error.
func (d *Document) HasPaths() bool {
	return d != nil && d.OAS != nil && d.OAS.Paths != nil && d.OAS.Paths.Len() > 0
}

// PathTemplates returns the declared path templates in sorted order. Map
// iteration order is randomized, and registration must be deterministic so
// name collisions always resolve the same way.
func (d *Document) PathTemplates() []string {
	if d == nil || d.OAS == nil || d.OAS.Paths == nil {
		return nil
	}
	items := d.OAS.Paths.Map()
	templates := make([]string, 0, len(items))
	for path := range items {
		templates = append(templates, path)
	}
	sort.Strings(templates)
	return templates
}

// PathItem returns the path item for a template, or nil.
func (d *Document) PathItem(template string) *openapi3.PathItem {
	if d == nil || d.OAS == nil || d.OAS.Paths == nil {
		return nil
	}
	return d.OAS.Paths.Value(template)
}

// BaseURL resolves the base URL for outgoing API calls. Priority: the first
// syntactically valid absolute URL among the operator overrides, then the
// first OpenAPI 3 server URL, then the Swagger 2 scheme://host + basePath
// fallback. No resolvable base URL is a hard error.
func (d *Document) BaseURL(override []string) (string, error) {
	if len(override) > 0 {
		for _, candidate := range override {
			candidate = strings.TrimSpace(candidate)
			if isAbsoluteHTTP(candidate) {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("no valid URL in base URL override %q", strings.Join(override, ","))
	}

	if d != nil && d.OAS != nil {
		for _, server := range d.OAS.Servers {
			if server != nil && server.URL != "" {
				return server.URL, nil
			}
		}
	}

	// Swagger 2 fallback from the raw document.
	if d != nil && d.Raw != nil {
		host, _ := d.Raw["host"].(string)
		if host != "" {
			scheme := "https"
			if schemes, ok := d.Raw["schemes"].([]any); ok && len(schemes) > 0 {
				if s, ok := schemes[0].(string); ok && s != "" {
					scheme = s
				}
			}
			basePath, _ := d.Raw["basePath"].(string)
			return scheme + "://" + host + basePath, nil
		}
	}

	return "", fmt.Errorf("no servers or host/schemes in spec and no base URL override")
}

func isAbsoluteHTTP(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}
