package spec

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/specbridge/specbridge/internal/common"
)

// LoadError reports a specification that could not be fetched or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load spec from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoaderOptions controls spec fetching. TLS verification for spec fetches is
// toggled independently from later API calls.
type LoaderOptions struct {
	Retries            int
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Loader fetches and parses OpenAPI/Swagger documents from a URL or local path.
type Loader struct {
	retries int
	client  *http.Client
	logger  *common.Logger
}

// NewLoader creates a Loader. Zero options fall back to 3 retries and a 10s
// fetch timeout.
func NewLoader(opts LoaderOptions, logger *common.Logger) *Loader {
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Loader{
		retries: retries,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Load reads and parses the spec at source. Source may be an http(s) URL, a
// file:// URL, or a bare filesystem path. Remote fetches retry up to the
// configured budget; local reads fail immediately on a missing file. Failure
// is always reported as a *LoadError.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	var data []byte
	var err error

	switch {
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		data, err = l.fetch(ctx, source)
	case strings.HasPrefix(source, "file://"):
		data, err = os.ReadFile(strings.TrimPrefix(source, "file://"))
	default:
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	doc.Source = source

	l.logger.Debug().
		Str("source", source).
		Int("bytes", len(data)).
		Msg("Loaded API specification")
	return doc, nil
}

// fetch retrieves the spec over HTTP with retries. A non-2xx status counts as
// a failed attempt.
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= l.retries; attempt++ {
		data, err := l.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		l.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("retries", l.retries).
			Msg("Spec fetch attempt failed")
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", l.retries, lastErr)
}

func (l *Loader) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Parse interprets raw spec bytes: strict JSON first, then YAML. Swagger 2.0
// documents are converted to OpenAPI 3 so the rest of the system handles one
// model, while the raw mapping keeps the v2 host/schemes/basePath fields.
func Parse(data []byte) (*Document, error) {
	raw := map[string]any{}
	jsonErr := json.Unmarshal(data, &raw)
	if jsonErr != nil {
		if yamlErr := yaml.Unmarshal(data, &raw); yamlErr != nil {
			return nil, fmt.Errorf("content is neither valid JSON (%v) nor valid YAML (%v)", jsonErr, yamlErr)
		}
	}

	if swagger, _ := raw["swagger"].(string); strings.HasPrefix(swagger, "2") {
		return parseV2(raw)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	return &Document{OAS: doc, Raw: raw}, nil
}

func parseV2(raw map[string]any) (*Document, error) {
	// Normalize through JSON so YAML-sourced documents unmarshal the same way.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize Swagger 2 document: %w", err)
	}
	var doc2 openapi2.T
	if err := json.Unmarshal(normalized, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse Swagger 2 document: %w", err)
	}
	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert Swagger 2 document: %w", err)
	}
	return &Document{OAS: doc3, Raw: raw}, nil
}
