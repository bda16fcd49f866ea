// Package e2e drives a running votacao server through Gherkin scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	baseURL  string
	client   *http.Client
	status   int
	body     []byte
	agendaID string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
	tc.agendaID = ""
}

func (tc *TestContext) POST(path string, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	tc.body, err = io.ReadAll(resp.Body)
	tc.status = resp.StatusCode
	return err
}

func (tc *TestContext) GetLastResponseStatus() int { return tc.status }

func (tc *TestContext) GetLastResponseBody() []byte { return tc.body }

// GetResponseField reads a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(tc.body, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.body)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.body)
	}
	return v, nil
}

func (tc *TestContext) SetAgendaID(agendaID string) { tc.agendaID = agendaID }

func (tc *TestContext) GetAgendaID() string { return tc.agendaID }
