package orgo

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testBase = "https://api.test"

func newTestClient(m *mockHTTPClient) *Client {
	return NewClient(testBase+"/", "sk-test", WithHTTPClient(m))
}

func TestEnsureProject_Existing(t *testing.T) {
	m := newMockHTTPClient(t, call{
		Method: "GET", URL: testBase + "/projects/by-name/samantha-vault",
		Body: `{"id":"p1","name":"samantha-vault"}`,
	})
	c := newTestClient(m)

	p, err := c.EnsureProject(context.Background(), "samantha-vault")
	if err != nil {
		t.Fatalf("EnsureProject() error = %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("ID = %s, want p1", p.ID)
	}
	if m.callCount() != 1 {
		t.Errorf("Expected 1 request, got %d", m.callCount())
	}

	req := m.requests[0]
	if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Header.Get("User-Agent"); got != DefaultUserAgent {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestEnsureProject_CreatesOnNotFound(t *testing.T) {
	m := newMockHTTPClient(t,
		call{Method: "GET", URL: testBase + "/projects/by-name/new", Status: 404, Body: `{"error":"not found"}`},
		call{Method: "POST", URL: testBase + "/projects", WantBody: `{"name":"new"}`, Body: `{"id":"p2","name":"new"}`},
	)
	c := newTestClient(m)

	p, err := c.EnsureProject(context.Background(), "new")
	if err != nil {
		t.Fatalf("EnsureProject() error = %v", err)
	}
	if p.ID != "p2" {
		t.Errorf("ID = %s, want p2", p.ID)
	}
}

func TestEnsureProject_OtherErrorIsReturned(t *testing.T) {
	m := newMockHTTPClient(t,
		call{Method: "GET", URL: testBase + "/projects/by-name/x", Status: 401, Body: `{"message":"bad key"}`},
	)
	c := newTestClient(m)

	_, err := c.EnsureProject(context.Background(), "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 401 || apiErr.Message != "bad key" {
		t.Errorf("Unexpected APIError %+v", apiErr)
	}
	if IsNotFound(err) {
		t.Error("IsNotFound() = true for 401")
	}
}

func TestCreateComputer(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantURL string
		wantErr bool
	}{
		{
			name:    "url returned",
			body:    `{"id":"c1","name":"vm","status":"starting","url":"https://view/c1"}`,
			wantURL: "https://view/c1",
		},
		{
			name:    "url defaulted",
			body:    `{"id":"c1","name":"vm"}`,
			wantURL: "https://www.orgo.ai/workspaces/c1",
		},
		{
			name:    "missing id",
			body:    `{"name":"vm"}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  500,
			body:    "boom",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockHTTPClient(t, call{
				Method:   "POST",
				URL:      testBase + "/computers",
				Status:   tt.status,
				Body:     tt.body,
				WantBody: `{"project_id":"p1","name":"vm","os":"linux","ram":4,"cpu":2}`,
			})
			c := newTestClient(m)

			comp, err := c.CreateComputer(context.Background(), CreateComputerRequest{
				ProjectID: "p1", Name: "vm", OS: "linux", RAM: 4, CPU: 2,
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateComputer() error = %v", err)
			}
			if comp.URL != tt.wantURL {
				t.Errorf("URL = %s, want %s", comp.URL, tt.wantURL)
			}
			if m.requests[0].Header.Get("Content-Type") != "application/json" {
				t.Error("Expected JSON content type")
			}
		})
	}
}

func TestGetAndDeleteComputer(t *testing.T) {
	m := newMockHTTPClient(t,
		call{Method: "GET", URL: testBase + "/computers/c1", Body: `{"id":"c1","status":"running"}`},
		call{Method: "DELETE", URL: testBase + "/computers/c1", Status: 204},
		call{Method: "DELETE", URL: testBase + "/computers/c2", Status: 404, Body: "missing"},
	)
	c := newTestClient(m)
	ctx := context.Background()

	comp, err := c.GetComputer(ctx, "c1")
	if err != nil {
		t.Fatalf("GetComputer() error = %v", err)
	}
	if comp.Status != "running" || comp.URL != ViewURL("c1") {
		t.Errorf("Unexpected computer %+v", comp)
	}

	if err := c.DeleteComputer(ctx, "c1"); err != nil {
		t.Errorf("DeleteComputer(c1) error = %v", err)
	}

	err = c.DeleteComputer(ctx, "c2")
	if !IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("Expected raw body in error, got %v", err)
	}
}

func TestBash(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOutput string
		wantCode   int
	}{
		{name: "exit code zero", body: `{"output":"ok\n","exit_code":0}`, wantOutput: "ok\n", wantCode: 0},
		{name: "exit code wins over success", body: `{"output":"x","exit_code":2,"success":true}`, wantOutput: "x", wantCode: 2},
		{name: "success false", body: `{"output":"E: fail","success":false}`, wantOutput: "E: fail", wantCode: 1},
		{name: "success true", body: `{"output":"done","success":true}`, wantOutput: "done", wantCode: 0},
		{name: "neither field", body: `{"output":"DONE"}`, wantOutput: "DONE", wantCode: 0},
		{name: "error text used as output", body: `{"error":"not found","success":false}`, wantOutput: "not found", wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockHTTPClient(t, call{
				Method:   "POST",
				URL:      testBase + "/computers/c1/bash",
				Body:     tt.body,
				WantBody: `{"command":"echo hi"}`,
			})
			c := newTestClient(m)

			out, code, err := c.Bash(context.Background(), "c1", "echo hi")
			if err != nil {
				t.Fatalf("Bash() error = %v", err)
			}
			if out != tt.wantOutput || code != tt.wantCode {
				t.Errorf("Bash() = (%q, %d), want (%q, %d)", out, code, tt.wantOutput, tt.wantCode)
			}
		})
	}
}

func TestBash_TransportError(t *testing.T) {
	m := newMockHTTPClient(t, call{
		Method: "POST", URL: testBase + "/computers/c1/bash", Error: errors.New("connection reset"),
	})
	c := newTestClient(m)

	if _, _, err := c.Bash(context.Background(), "c1", "true"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestScreenshot_Base64(t *testing.T) {
	png := []byte("\x89PNG fake")
	enc := base64.StdEncoding.EncodeToString(png)

	tests := []struct {
		name  string
		image string
	}{
		{name: "plain base64", image: enc},
		{name: "data uri", image: "data:image/png;base64," + enc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockHTTPClient(t, call{
				Method: "GET", URL: testBase + "/computers/c1/screenshot",
				Body: `{"image":"` + tt.image + `"}`,
			})
			c := newTestClient(m)

			got, err := c.Screenshot(context.Background(), "c1")
			if err != nil {
				t.Fatalf("Screenshot() error = %v", err)
			}
			if diff := cmp.Diff(png, got); diff != "" {
				t.Errorf("Screenshot() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScreenshot_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty image", body: `{"image":""}`},
		{name: "bad base64", body: `{"image":"!!!"}`},
		{name: "malformed data uri", body: `{"image":"data:image/png;base64"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockHTTPClient(t, call{
				Method: "GET", URL: testBase + "/computers/c1/screenshot", Body: tt.body,
			})
			c := newTestClient(m)

			if _, err := c.Screenshot(context.Background(), "c1"); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestScreenshot_URL(t *testing.T) {
	var sawAuth string
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer files.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/computers/c1/screenshot" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"image":"` + files.URL + `/shot.png"}`))
	}))
	defer api.Close()

	c := NewClient(api.URL, "sk-test")
	got, err := c.Screenshot(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Screenshot() error = %v", err)
	}
	if string(got) != "png-bytes" {
		t.Errorf("Screenshot() = %q", got)
	}
	if sawAuth != "" {
		t.Errorf("API key leaked to download host: %q", sawAuth)
	}
}

func TestWithUserAgent(t *testing.T) {
	m := newMockHTTPClient(t, call{Method: "DELETE", URL: testBase + "/computers/c1"})
	c := NewClient(testBase, "k", WithHTTPClient(m), WithUserAgent("custom/1.0"))

	if err := c.DeleteComputer(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteComputer() error = %v", err)
	}
	if got := m.requests[0].Header.Get("User-Agent"); got != "custom/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
}
