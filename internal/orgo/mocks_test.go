package orgo

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// call is one expected request and the canned response for it.
type call struct {
	Method   string
	URL      string
	Status   int
	Body     string
	Error    error
	WantBody string
}

// mockHTTPClient replays calls in order and checks each request against them.
type mockHTTPClient struct {
	t        *testing.T
	calls    []call
	requests []*http.Request
	bodies   []string
}

func newMockHTTPClient(t *testing.T, calls ...call) *mockHTTPClient {
	return &mockHTTPClient{t: t, calls: calls}
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.t.Helper()
	n := len(m.requests)
	if n >= len(m.calls) {
		m.t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
	c := m.calls[n]

	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	if diff := cmp.Diff(c.Method+" "+c.URL, req.Method+" "+req.URL.String()); diff != "" {
		m.t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if c.WantBody != "" {
		if diff := cmp.Diff(c.WantBody, body); diff != "" {
			m.t.Errorf("request body mismatch (-want +got):\n%s", diff)
		}
	}
	if c.Error != nil {
		return nil, c.Error
	}

	status := c.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(c.Body))),
		Header:     make(http.Header),
	}, nil
}

func (m *mockHTTPClient) callCount() int {
	return len(m.requests)
}
