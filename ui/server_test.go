package ui

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edadash/internal/engine"
	"edadash/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := store.New()
	srv, err := NewServer(ServerConfig{
		Dashboard: NewDashboard(st, DefaultViewCaps()),
		Store:     st,
		Analyzer:  engine.New(engine.Options{}),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("writing part failed: %v", err)
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestServer_UploadRendersDashboard(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartCSV(t, "people.csv", "age,city\n31,NY\n45,LA\n27,NY\n")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Overview") {
		t.Error("Expected overview panel in response")
	}
	if !strings.Contains(html, "NY") {
		t.Error("Expected value counts in response")
	}
}

func TestServer_UploadWithoutFile(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := func() (*bytes.Buffer, string) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		writer.Close()
		return &buf, writer.FormDataContentType()
	}()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	// User input error: blocking notice, no analysis performed.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "choose a file") {
		t.Error("Expected blocking notice")
	}
	if srv.store.Current() != nil {
		t.Error("No result may be installed")
	}
}

func TestServer_UploadFailureKeepsPriorState(t *testing.T) {
	srv := newTestServer(t)

	// First, a good upload.
	body, contentType := multipartCSV(t, "people.csv", "age\n31\n45\n")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	prior := srv.dashboard.View(ViewOverview)
	if prior == "" {
		t.Fatal("Expected rendered overview after first upload")
	}

	// Then a failing one: unsupported format.
	body, contentType = multipartCSV(t, "people.pdf", "%PDF")
	req = httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatal("Expected failure status")
	}
	// No partial render: the prior dashboard state stays visible.
	if srv.dashboard.View(ViewOverview) != prior {
		t.Error("Failed upload must not alter prior dashboard state")
	}
}

func TestServer_ToggleBeforeUpload(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/toggle/after", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 before first upload, got %d", rec.Code)
	}
}

func TestServer_IndexRenders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Upload a CSV") {
		t.Error("Expected empty-session prompt")
	}
}
