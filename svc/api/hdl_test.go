package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"macrobin/cfg"
	"macrobin/pkg/domain"
	"macrobin/svc/attach"
	"macrobin/svc/expire"
	"macrobin/svc/lim"
	"macrobin/svc/slug"
	"macrobin/svc/store"
	"macrobin/svc/svc"
)

type memDurable struct {
	last *domain.Pasta
}

func (m *memDurable) Insert(ctx context.Context, p *domain.Pasta) error {
	m.last = p
	return nil
}

type noopCipher struct{}

func (noopCipher) Seal(plaintext, key string) (string, error) { return "sealed:" + plaintext, nil }
func (noopCipher) SealFile(path, key string) error            { return nil }

func newTestServer(t *testing.T, mutate func(*cfg.Cfg)) (*Server, *memDurable) {
	t.Helper()
	c := &cfg.Cfg{
		Port:                     "8080",
		DataDir:                  t.TempDir(),
		PublicPath:               "https://paste.example.com",
		MaxFileSizeUnencryptedMB: 1,
		MaxFileSizeEncryptedMB:   2,
		DefaultExpiry:            "1week",
		SlugScheme:               "animal",
		DefaultEditable:          true,
		RateLimit:                cfg.RateLimitCfg{RPM: 600, Burst: 100},
		ContextTimeout:           30 * time.Second,
	}
	if mutate != nil {
		mutate(c)
	}
	codec, err := slug.New(c.SlugScheme, c.SlugSalt)
	if err != nil {
		t.Fatalf("slug.New: %v", err)
	}
	resolver, err := expire.New(c.DefaultExpiry, c.EternalPasta)
	if err != nil {
		t.Fatalf("expire.New: %v", err)
	}
	durable := &memDurable{}
	creator := svc.NewCreator(c,
		store.NewCoordinator(durable, nil),
		attach.NewWriter(c.DataDir),
		noopCipher{},
		codec,
		resolver,
	)
	return NewServer(c, creator, lim.New(c.RateLimit.RPM, c.RateLimit.Burst, nil), nil), durable
}

func postCreate(s *Server, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/create", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestCreateEndpoint_Success(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := postCreate(s, `{"content":"hello"}`, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp CreatePastaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "https://paste.example.com/upload/") {
		t.Errorf("url = %q", resp.URL)
	}
	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Error("missing X-Request-ID header")
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestCreateEndpoint_EncryptedURLVariant(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := postCreate(s, `{"content":"hello","encrypt_server":true,"plain_key":"pw"}`, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp CreatePastaResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.URL, "https://paste.example.com/auth/") || !strings.HasSuffix(resp.URL, "/success") {
		t.Errorf("url = %q, want auth variant", resp.URL)
	}
}

func TestCreateEndpoint_BurnAfterFieldBindsToRecord(t *testing.T) {
	s, durable := newTestServer(t, nil)
	w := postCreate(s, `{"content":"hi","burn_after":3}`, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if durable.last == nil {
		t.Fatal("no record persisted")
	}
	if durable.last.BurnAfterReads != 3 {
		t.Errorf("burn_after_reads = %d, want 3", durable.last.BurnAfterReads)
	}
}

func TestCreateEndpoint_WrongContentType(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := postCreate(s, "content=hello", "application/x-www-form-urlencoded")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", w.Code)
	}
}

func TestCreateEndpoint_MalformedBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := postCreate(s, `{"content":`, "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateEndpoint_EmptyPasta(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := postCreate(s, `{}`, "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateEndpoint_WrongUploaderPassword(t *testing.T) {
	s, _ := newTestServer(t, func(c *cfg.Cfg) {
		c.ReadonlyUploads = true
		c.UploaderPassword = cfg.NewSecret("sesame")
	})
	w := postCreate(s, `{"content":"x","uploader_password":"nope"}`, "application/json")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestCreateEndpoint_UploadsDisabled(t *testing.T) {
	s, _ := newTestServer(t, func(c *cfg.Cfg) { c.NoFileUpload = true })
	w := postCreate(s, `{"file_name":"a.txt","file_content":"aGk="}`, "application/json")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestCreateEndpoint_InvalidBase64(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := postCreate(s, `{"file_name":"a.txt","file_content":"%%%"}`, "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Error("error body missing message")
	}
}

func TestCreateEndpoint_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, func(c *cfg.Cfg) {
		c.RateLimit = cfg.RateLimitCfg{RPM: 60, Burst: 1}
	})
	first := postCreate(s, `{"content":"one"}`, "application/json")
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}
	second := postCreate(s, `{"content":"two"}`, "application/json")
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
