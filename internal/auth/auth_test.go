package auth

import (
	"net/url"
	"testing"
)

func TestHeaders_BearerDefault(t *testing.T) {
	r, err := New(Config{Secret: "tok123"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := r.Headers()
	if got := h.Get("Authorization"); got != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", got)
	}
}

func TestHeaders_APIKeyCustomHeader(t *testing.T) {
	r, err := New(Config{Mode: ModeAPIKey, Secret: "k-9", Header: "X-Api-Key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := r.Headers()
	if got := h.Get("X-Api-Key"); got != "k-9" {
		t.Errorf("X-Api-Key = %q, want k-9", got)
	}
	if h.Get("Authorization") != "" {
		t.Error("api-key mode should not set Authorization")
	}
}

func TestHeaders_NoneModeAndEmptySecret(t *testing.T) {
	r, _ := New(Config{Mode: ModeNone, Secret: "ignored"})
	if len(r.Headers()) != 0 {
		t.Error("none mode should produce no auth headers")
	}

	r, _ = New(Config{})
	if len(r.Headers()) != 0 {
		t.Error("empty secret should produce no auth headers")
	}
}

func TestHeaders_ExtraHeadersOverride(t *testing.T) {
	r, err := New(Config{
		Secret:       "tok",
		ExtraHeaders: "X-Tenant: acme\nAuthorization: Custom scheme\nbogus-line",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := r.Headers()
	if got := h.Get("X-Tenant"); got != "acme" {
		t.Errorf("X-Tenant = %q, want acme", got)
	}
	if got := h.Get("Authorization"); got != "Custom scheme" {
		t.Errorf("Authorization = %q, extra header should override", got)
	}
}

func TestInjectQuery(t *testing.T) {
	r, err := New(Config{Secret: "tok", Location: "query.token"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q := url.Values{"token": {"caller-supplied"}}
	r.InjectQuery(q)
	if got := q.Get("token"); got != "tok" {
		t.Errorf("token = %q, credential should overwrite caller value", got)
	}
	if r.InjectsBody() {
		t.Error("query location should not report body injection")
	}
}

func TestInjectBody_NestedPathCreated(t *testing.T) {
	r, err := New(Config{Secret: "tok", Location: "body.auth.key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !r.InjectsBody() {
		t.Fatal("body location should report body injection")
	}

	body := map[string]any{"title": "x"}
	r.InjectBody(body)

	auth, ok := body["auth"].(map[string]any)
	if !ok {
		t.Fatal("intermediate auth object should be created")
	}
	if auth["key"] != "tok" {
		t.Errorf("auth.key = %v, want tok", auth["key"])
	}
	if body["title"] != "x" {
		t.Error("unrelated body fields must survive injection")
	}
}

func TestInjectBody_OverwritesLeaf(t *testing.T) {
	r, _ := New(Config{Secret: "tok", Location: "body.key"})
	body := map[string]any{"key": "caller"}
	r.InjectBody(body)
	if body["key"] != "tok" {
		t.Errorf("key = %v, credential should overwrite caller value", body["key"])
	}
}

func TestNew_InvalidLocationDegrades(t *testing.T) {
	cases := []string{"token", "header.key", "query.a.b", "query.", "body."}
	for _, loc := range cases {
		r, err := New(Config{Secret: "tok", Location: loc})
		if err == nil {
			t.Errorf("New(location=%q): expected error", loc)
			continue
		}
		if r == nil {
			t.Errorf("New(location=%q): resolver should still be usable", loc)
			continue
		}
		// Injection is disabled but static headers still work.
		q := url.Values{}
		r.InjectQuery(q)
		if len(q) != 0 {
			t.Errorf("New(location=%q): injection should be disabled", loc)
		}
		if r.Headers().Get("Authorization") == "" {
			t.Errorf("New(location=%q): bearer header should still be set", loc)
		}
	}
}
