package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phylotangle/phylotangle/pkg/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return New(Options{Store: st, Width: 800, Height: 600, Margin: 20}).Handler()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("X-Request-ID"); got == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestDistanceEndpoint(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name       string
		body       distanceRequest
		wantStatus int
		wantDist   int
	}{
		{
			name: "identical trees",
			body: distanceRequest{
				NewickA: "((A,B),(C,D));",
				NewickB: "((A,B),(C,D));",
			},
			wantStatus: http.StatusOK,
			wantDist:   0,
		},
		{
			name: "different topologies",
			body: distanceRequest{
				NewickA: "(A,(B,(H,(D,(J,(((G,E),(F,I)),C))))));",
				NewickB: "(A,(B,(D,((J,H),(((G,E),(F,I)),C)))));",
			},
			wantStatus: http.StatusOK,
			wantDist:   4,
		},
		{
			name: "mismatched leaf sets",
			body: distanceRequest{
				NewickA: "((A,B),C);",
				NewickB: "((A,B),D);",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "unparseable input",
			body: distanceRequest{
				NewickA: "((A,B),C",
				NewickB: "((A,B),C);",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/distance", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp distanceResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Distance != tt.wantDist {
				t.Errorf("distance = %d, want %d", resp.Distance, tt.wantDist)
			}
		})
	}
}

func TestRenderEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := postJSON(t, h, "/api/render", renderRequest{Newick: "((A:1,B:2):1,C:3);"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<svg") {
		t.Error("response is not SVG")
	}
	for _, label := range []string{"A", "B", "C"} {
		if !strings.Contains(body, ">"+label+"<") {
			t.Errorf("SVG missing leaf label %q", label)
		}
	}
}

func TestTangleEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := postJSON(t, h, "/api/tangle", tangleRequest{
		NewickA: "((A,B),(C,D));",
		NewickB: "((A,C),(B,D));",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<path") {
		t.Error("tanglegram SVG missing connector paths")
	}
}

func TestTreeStoreEndpoints(t *testing.T) {
	h := newTestServer(t)

	// Save.
	rec := postPut(t, h, "/api/trees/primates", saveTreeRequest{Newick: "((A,B),C);"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// Duplicate without overwrite.
	rec = postPut(t, h, "/api/trees/primates", saveTreeRequest{Newick: "((A,B),C);"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Overwrite.
	rec = postPut(t, h, "/api/trees/primates", saveTreeRequest{Newick: "(A,(B,C));", Overwrite: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("overwrite status = %d, want %d", rec.Code, http.StatusCreated)
	}

	// Get.
	req := httptest.NewRequest(http.MethodGet, "/api/trees/primates", nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", getRec.Code, http.StatusOK)
	}
	var entry store.Entry
	if err := json.Unmarshal(getRec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if entry.Newick != "(A,(B,C));" {
		t.Errorf("Newick = %q, want overwritten text", entry.Newick)
	}
	if entry.Leaves != 3 {
		t.Errorf("Leaves = %d, want 3", entry.Leaves)
	}

	// List.
	req = httptest.NewRequest(http.MethodGet, "/api/trees/", nil)
	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", listRec.Code, http.StatusOK)
	}
	var entries []store.Entry
	if err := json.Unmarshal(listRec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}

	// Delete.
	req = httptest.NewRequest(http.MethodDelete, "/api/trees/primates", nil)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, req)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", delRec.Code, http.StatusNoContent)
	}

	// Gone.
	req = httptest.NewRequest(http.MethodGet, "/api/trees/primates", nil)
	goneRec := httptest.NewRecorder()
	h.ServeHTTP(goneRec, req)
	if goneRec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want %d", goneRec.Code, http.StatusNotFound)
	}
}

func TestRenderCaching(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	c := newRecordingCache()
	h := New(Options{Store: st, Cache: c, Width: 800, Height: 600, Margin: 20}).Handler()

	req := renderRequest{Newick: "((A:1,B:2):1,C:3);"}
	first := postJSON(t, h, "/api/render", req)
	second := postJSON(t, h, "/api/render", req)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want both %d", first.Code, second.Code, http.StatusOK)
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
	if c.hits != 1 {
		t.Errorf("cache hits = %d, want 1", c.hits)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached response differs from rendered response")
	}
}

func postPut(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// recordingCache counts hits and sets on top of an in-memory map.
type recordingCache struct {
	entries map[string][]byte
	hits    int
	sets    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string][]byte)}
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.sets++
	c.entries[key] = data
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *recordingCache) Close() error { return nil }
