// Package contract provides contract tests that validate API responses against the OpenAPI spec.
package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// testConfig holds test configuration.
type testConfig struct {
	BaseURL  string
	SpecPath string
}

// getConfig returns test configuration from environment.
func getConfig(t *testing.T) *testConfig {
	t.Helper()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Default: project root/docs/api/openapi.yaml
	specPath := os.Getenv("OPENAPI_SPEC_PATH")
	if specPath == "" {
		wd, _ := os.Getwd()
		specPath = filepath.Join(wd, "..", "..", "docs", "api", "openapi.yaml")
	}

	return &testConfig{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		SpecPath: specPath,
	}
}

// loadSpec loads and validates the OpenAPI spec.
func loadSpec(t *testing.T, path string) (*openapi3.T, routers.Router) {
	t.Helper()

	loader := openapi3.NewLoader()

	spec, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI spec from %s: %v", path, err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("Failed to create router from spec: %v", err)
	}

	return spec, router
}

// validateAgainstSpec checks a captured response against the documented schema.
func validateAgainstSpec(t *testing.T, router routers.Router, req *http.Request, status int, header http.Header, body []byte) {
	t.Helper()

	route, pathParams, err := router.FindRoute(req)
	if err != nil {
		t.Fatalf("Could not find route in spec for %s %s: %v", req.Method, req.URL, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: status,
		Header: header,
		Body:   io.NopCloser(bytes.NewReader(body)),
	}

	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("Response validation failed for %s %s (%d): %v\nBody: %s", req.Method, req.URL.Path, status, err, body)
	}
}

// TestOpenAPISpecValid ensures the OpenAPI spec is valid.
func TestOpenAPISpecValid(t *testing.T) {
	cfg := getConfig(t)
	spec, _ := loadSpec(t, cfg.SpecPath)

	for _, path := range []string{"/", "/register", "/login", "/summarize", "/healthz", "/readyz", "/metrics"} {
		if spec.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in spec", path)
		}
	}
}

// TestLiveEndpoints validates a running server against the spec.
// Skipped when no server answers at API_BASE_URL.
func TestLiveEndpoints(t *testing.T) {
	cfg := getConfig(t)
	_, router := loadSpec(t, cfg.SpecPath)

	client := &http.Client{Timeout: 10 * time.Second}

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		header map[string]string
	}{
		{"hello", http.MethodGet, "/", nil, nil},
		{"healthz", http.MethodGet, "/healthz", nil, nil},
		{"readyz", http.MethodGet, "/readyz", nil, nil},
		{"login_bad_credentials", http.MethodPost, "/login", map[string]string{"username": "nobody-here", "password": "wrongpassword"}, nil},
		{"register_invalid", http.MethodPost, "/register", map[string]string{"username": "x"}, nil},
		{"summarize_no_token", http.MethodPost, "/summarize", map[string]string{"text": "hello"}, nil},
		{"summarize_bad_token", http.MethodPost, "/summarize", map[string]string{"text": "hello"}, map[string]string{"Authorization": "Bearer not.a.token"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var reader io.Reader
			if tc.body != nil {
				data, _ := json.Marshal(tc.body)
				reader = bytes.NewReader(data)
			}

			req, err := http.NewRequest(tc.method, cfg.BaseURL+tc.path, reader)
			if err != nil {
				t.Fatalf("Failed to create request: %v", err)
			}
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}

			resp, err := client.Do(req)
			if err != nil {
				t.Skipf("Server not available: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)

			if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			// The spec's server URL is fixed; route on path alone.
			specReq, _ := http.NewRequest(tc.method, "http://localhost:8080"+tc.path, nil)
			validateAgainstSpec(t, router, specReq, resp.StatusCode, resp.Header, body)
		})
	}
}
