// Package dispatch resolves a tool call into an executed HTTP request against
// the downstream API and a classified response.
package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/specbridge/specbridge/internal/auth"
	"github.com/specbridge/specbridge/internal/common"
	"github.com/specbridge/specbridge/internal/registry"
	"github.com/specbridge/specbridge/internal/spec"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Classification tags how a response body parsed.
type Classification string

const (
	ClassificationJSON Classification = "json"
	ClassificationText Classification = "text"
)

// Result is the uniform outcome of a dispatched call. Non-2xx statuses are
// still results, not errors; only transport-level faults become errors.
type Result struct {
	StatusCode     int
	Headers        http.Header
	Body           string
	Classification Classification
}

// Options controls request execution. TLS verification for API calls is
// toggled independently from spec fetches.
type Options struct {
	BaseURLOverride    []string
	StripParam         string
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxResponseBytes   int64
}

// Dispatcher executes tool calls. Each invocation runs synchronously;
// downstream failures are never retried.
type Dispatcher struct {
	registry *registry.Registry
	doc      *spec.Document
	auth     *auth.Resolver
	client   *http.Client
	opts     Options
	logger   *common.Logger
}

// New creates a Dispatcher. Zero options fall back to a 30s call timeout and
// a 10MB response cap.
func New(reg *registry.Registry, doc *spec.Document, resolver *auth.Resolver, opts Options, logger *common.Logger) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = 10 * 1024 * 1024
	}

	transport := &http.Transport{}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Dispatcher{
		registry: reg,
		doc:      doc,
		auth:     resolver,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:   opts,
		logger: logger,
	}
}

// Call resolves name against the registry, builds the HTTP request from the
// argument map, executes it, and classifies the response. All failures come
// back as *CallError.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*Result, error) {
	binding, ok := d.registry.Lookup(name)
	if !ok {
		return nil, errorf(KindLookup, "unknown function %q", name)
	}

	baseURL, err := d.doc.BaseURL(d.opts.BaseURLOverride)
	if err != nil {
		return nil, errorf(KindConfiguration, "%v", err)
	}

	remaining := cloneArgs(args)
	if d.opts.StripParam != "" {
		delete(remaining, d.opts.StripParam)
	}

	path, err := substitutePathParams(binding.Path, remaining)
	if err != nil {
		return nil, err
	}

	reqURL, query, body, err := d.buildRequestParts(binding.Method, baseURL, path, remaining)
	if err != nil {
		return nil, err
	}

	req, err := d.buildRequest(ctx, binding.Method, reqURL, query, body)
	if err != nil {
		return nil, errorf(KindTransport, "failed to build request: %v", err)
	}

	d.logger.Debug().
		Str("method", binding.Method).
		Str("url", req.URL.String()).
		Str("tool", name).
		Msg("Dispatching API request")

	start := time.Now()
	resp, err := d.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		d.logger.Error().Err(err).Str("tool", name).Dur("duration", duration).Msg("API request failed")
		return nil, errorf(KindTransport, "API request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, d.opts.MaxResponseBytes))
	if err != nil {
		return nil, errorf(KindTransport, "failed to read response: %v", err)
	}

	result := classify(resp, raw)

	d.logger.Debug().
		Int("status", result.StatusCode).
		Str("classification", string(result.Classification)).
		Dur("duration", duration).
		Str("tool", name).
		Msg("API response received")

	return result, nil
}

// substitutePathParams fills every {placeholder} in the template from the
// argument map and removes consumed values so they are never re-sent as
// query or body parameters. All missing placeholders are reported together.
func substitutePathParams(template string, args map[string]any) (string, error) {
	var missing []string
	path := template
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := m[1]
		value, ok := args[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(fmt.Sprintf("%v", value)))
		delete(args, name)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", errorf(KindValidation, "missing required path parameters: %s", strings.Join(missing, ", "))
	}
	return path, nil
}

// buildRequestParts partitions the remaining arguments: read-only and
// idempotent-without-body methods send them as query parameters, everything
// else as a JSON body. Credential injection lands in whichever document the
// configured location names.
func (d *Dispatcher) buildRequestParts(method, baseURL, path string, remaining map[string]any) (string, url.Values, map[string]any, error) {
	reqURL := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")

	query := url.Values{}
	var body map[string]any

	if usesQueryParams(method) {
		for key, value := range remaining {
			query.Set(key, fmt.Sprintf("%v", value))
		}
		if d.auth.InjectsBody() {
			d.logger.Warn().
				Str("method", method).
				Msg("Credential location targets body but method carries no body; skipping injection")
		}
	} else {
		body = remaining
		if body == nil {
			body = map[string]any{}
		}
		d.auth.InjectBody(body)
	}
	d.auth.InjectQuery(query)

	return reqURL, query, body, nil
}

func (d *Dispatcher) buildRequest(ctx context.Context, method, reqURL string, query url.Values, body map[string]any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, err
	}

	if len(query) > 0 {
		merged := req.URL.Query()
		for key, vals := range query {
			for _, v := range vals {
				merged.Set(key, v)
			}
		}
		req.URL.RawQuery = merged.Encode()
	}

	for key, vals := range d.auth.Headers() {
		for _, v := range vals {
			req.Header.Set(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// usesQueryParams reports whether remaining arguments ride the query string
// rather than a JSON body.
func usesQueryParams(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodDelete:
		return true
	}
	return false
}

// classify tags the response body: strictly parseable JSON is "json",
// everything else is "text".
func classify(resp *http.Response, raw []byte) *Result {
	body := strings.TrimSpace(string(raw))
	classification := ClassificationText
	if body != "" && json.Valid([]byte(body)) {
		classification = ClassificationJSON
	}
	return &Result{
		StatusCode:     resp.StatusCode,
		Headers:        resp.Header,
		Body:           body,
		Classification: classification,
	}
}

func cloneArgs(args map[string]any) map[string]any {
	cloned := make(map[string]any, len(args))
	for k, v := range args {
		cloned[k] = v
	}
	return cloned
}
