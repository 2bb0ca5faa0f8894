package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// maxReportedBody bounds how much of a response body a failure message quotes.
const maxReportedBody = 300

// OpenAPIValidator checks live responses against the documented API contract.
type OpenAPIValidator struct {
	router routers.Router
}

// NewOpenAPIValidator loads the document at specPath or fails the test.
func NewOpenAPIValidator(t *testing.T, specPath string) *OpenAPIValidator {
	t.Helper()
	v, err := LoadOpenAPIValidator(specPath)
	if err != nil {
		t.Fatalf("load OpenAPI validator: %v", err)
	}
	return v
}

// LoadOpenAPIValidator loads and validates the document at specPath.
// It is the TestMain counterpart of NewOpenAPIValidator.
func LoadOpenAPIValidator(specPath string) (*OpenAPIValidator, error) {
	doc, err := openapi3.NewLoader().LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", specPath, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document %s: %w", specPath, err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build OpenAPI router: %w", err)
	}
	return &OpenAPIValidator{router: router}, nil
}

// plainTextPaths answer with text and are not part of the documented JSON API.
var plainTextPaths = map[string]bool{
	"/":        true,
	"/healthz": true,
	"/readyz":  true,
}

// ValidateResponse reports a test error when resp does not match the operation
// documented for req. resp.Body is replaced so callers can still read it.
func (v *OpenAPIValidator) ValidateResponse(t *testing.T, req *http.Request, resp *http.Response) {
	t.Helper()
	if plainTextPaths[req.URL.Path] {
		return
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		t.Errorf("read response body: %v", err)
		return
	}

	if err := v.check(req, resp, body); err != nil {
		t.Errorf("%s %s -> %d does not match the API contract: %v\nbody: %s",
			req.Method, req.URL.Path, resp.StatusCode, err, quote(body))
	}
}

func (v *OpenAPIValidator) check(req *http.Request, resp *http.Response, body []byte) error {
	// The legacy router matches on the path alone; drop scheme and host.
	pathOnly, err := http.NewRequest(req.Method, req.URL.RequestURI(), nil)
	if err != nil {
		return err
	}
	route, pathParams, err := v.router.FindRoute(pathOnly)
	if err != nil {
		return fmt.Errorf("undocumented route: %w", err)
	}

	return openapi3filter.ValidateResponse(context.Background(), &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   io.NopCloser(bytes.NewReader(body)),
		Options: &openapi3filter.Options{
			MultiError:            true,
			IncludeResponseStatus: true,
		},
	})
}

func quote(body []byte) string {
	s := string(bytes.TrimSpace(body))
	if len(s) > maxReportedBody {
		return s[:maxReportedBody] + "..."
	}
	return s
}
