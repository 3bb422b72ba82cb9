// Package auth derives outgoing authentication headers and handles
// credential injection into query or body documents.
package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Auth modes. ModeAPIKey sends the secret verbatim in a configurable header.
const (
	ModeBearer = "bearer"
	ModeAPIKey = "api-key"
	ModeNone   = "none"
)

// Config is the operator-supplied auth surface.
type Config struct {
	Mode         string // bearer (default), api-key, none
	Secret       string
	Header       string // header name for api-key mode, default Authorization
	Location     string // credential injection expression: query.<name> or body.<dotted.path>
	ExtraHeaders string // static headers, one "Header: Value" per line
}

// Resolver applies static auth headers and optional credential injection.
type Resolver struct {
	mode   string
	secret string
	header string
	inject *injection
	extra  http.Header
}

// injection is a parsed location expression. Target is "query" or "body";
// path is the remaining dotted segments.
type injection struct {
	target string
	path   []string
}

// New builds a Resolver. An invalid location expression is returned as an
// error alongside a Resolver that works without injection, so a typo in the
// expression degrades auth rather than aborting startup.
func New(cfg Config) (*Resolver, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = ModeBearer
	}
	header := cfg.Header
	if header == "" {
		header = "Authorization"
	}

	r := &Resolver{
		mode:   mode,
		secret: cfg.Secret,
		header: header,
		extra:  parseExtraHeaders(cfg.ExtraHeaders),
	}

	if cfg.Location != "" {
		inj, err := parseLocation(cfg.Location)
		if err != nil {
			return r, err
		}
		r.inject = inj
	}
	return r, nil
}

// Headers returns the static auth headers plus any configured extra headers.
// Extra headers are applied last and may override the auth header.
func (r *Resolver) Headers() http.Header {
	h := http.Header{}
	if r.secret != "" {
		switch r.mode {
		case ModeBearer:
			h.Set("Authorization", "Bearer "+r.secret)
		case ModeAPIKey:
			h.Set(r.header, r.secret)
		case ModeNone:
			// No auth header; the secret may still be injected below.
		}
	}
	for key, vals := range r.extra {
		for _, v := range vals {
			h.Set(key, v)
		}
	}
	return h
}

// InjectsBody reports whether the configured location targets the body.
func (r *Resolver) InjectsBody() bool {
	return r.inject != nil && r.inject.target == "body"
}

// InjectQuery writes the secret into the query values when the configured
// location targets the query. Any caller-supplied value at that name is
// overwritten; the injection location is reserved for the credential.
func (r *Resolver) InjectQuery(q url.Values) {
	if r.inject == nil || r.inject.target != "query" || r.secret == "" {
		return
	}
	q.Set(r.inject.path[0], r.secret)
}

// InjectBody writes the secret into the body document when the configured
// location targets the body, creating intermediate objects as needed and
// overwriting any caller-supplied value at the leaf.
func (r *Resolver) InjectBody(body map[string]any) {
	if r.inject == nil || r.inject.target != "body" || r.secret == "" || body == nil {
		return
	}
	node := body
	for _, key := range r.inject.path[:len(r.inject.path)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node = child
	}
	node[r.inject.path[len(r.inject.path)-1]] = r.secret
}

// parseLocation validates a dotted location expression. Query locations take
// exactly one name; body locations take one or more segments.
func parseLocation(expr string) (*injection, error) {
	segments := strings.Split(strings.TrimSpace(expr), ".")
	if len(segments) < 2 {
		return nil, fmt.Errorf("invalid credential location %q: want query.<name> or body.<path>", expr)
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("invalid credential location %q: empty segment", expr)
		}
	}
	target := segments[0]
	path := segments[1:]
	switch target {
	case "query":
		if len(path) != 1 {
			return nil, fmt.Errorf("invalid credential location %q: query takes a single name", expr)
		}
	case "body":
		// Any depth.
	default:
		return nil, fmt.Errorf("invalid credential location %q: target must be query or body", expr)
	}
	return &injection{target: target, path: path}, nil
}

// parseExtraHeaders parses "Header: Value" lines. Lines without a colon are
// ignored.
func parseExtraHeaders(s string) http.Header {
	h := http.Header{}
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		h.Set(key, strings.TrimSpace(value))
	}
	return h
}
