package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
	healthuc "github.com/kailas-cloud/vecmatch/internal/usecase/health"
)

func init() {
	metrics.RegisterHTTPMetrics()
}

type mockCandidates struct {
	relationshipsFn func(ctx context.Context, id string) (relationship.Document, error)
	pendingFn       func(ctx context.Context, id string) ([]profile.Card, error)
}

func (m *mockCandidates) Relationships(ctx context.Context, id string) (relationship.Document, error) {
	return m.relationshipsFn(ctx, id)
}

func (m *mockCandidates) Pending(ctx context.Context, id string) ([]profile.Card, error) {
	return m.pendingFn(ctx, id)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestServer(c CandidateService, dbErr error) http.Handler {
	h := healthuc.New(pinger{err: dbErr}, nil)
	return NewServer(c, h, nil).Router([]string{"secret"})
}

func do(t *testing.T, h http.Handler, path string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if authorized {
		req.Header.Set("Authorization", "Bearer secret")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_Healthz(t *testing.T) {
	h := newTestServer(nil, errors.New("down"))

	rr := do(t, h, "/healthz", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on the database: got %d", rr.Code)
	}
}

func TestServer_Readyz(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		wantStatus int
		wantCheck  string
	}{
		{name: "ready", wantStatus: http.StatusOK, wantCheck: "ok"},
		{name: "database down", dbErr: errors.New("conn refused"), wantStatus: http.StatusServiceUnavailable, wantCheck: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestServer(nil, tt.dbErr), "/readyz", false)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Checks["database"] != tt.wantCheck {
				t.Errorf("database check = %q, want %q", resp.Checks["database"], tt.wantCheck)
			}
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	rr := do(t, newTestServer(nil, nil), "/metrics", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestServer_GetRelationships(t *testing.T) {
	c := &mockCandidates{
		relationshipsFn: func(_ context.Context, id string) (relationship.Document, error) {
			return relationship.Document{
				ProfileID: id,
				Liked:     []string{"b"},
				Disliked:  []string{},
				Pending:   []string{"c", "d"},
			}, nil
		},
	}

	rr := do(t, newTestServer(c, nil), "/v1/profiles/a/relationships", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var doc relationship.Document
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ProfileID != "a" || len(doc.Pending) != 2 || doc.Liked[0] != "b" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestServer_GetRelationships_Unauthorized(t *testing.T) {
	c := &mockCandidates{}
	rr := do(t, newTestServer(c, nil), "/v1/profiles/a/relationships", false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestServer_GetPending(t *testing.T) {
	c := &mockCandidates{
		pendingFn: func(_ context.Context, id string) ([]profile.Card, error) {
			return []profile.Card{{ID: "c", FirstName: "Cleo", Age: 29}}, nil
		},
	}

	rr := do(t, newTestServer(c, nil), "/v1/profiles/a/pending", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp PendingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ProfileID != "a" || len(resp.Items) != 1 || resp.Items[0].FirstName != "Cleo" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestServer_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid profile", fmt.Errorf("id: %w", domain.ErrInvalidProfile), http.StatusBadRequest, codeBadRequest},
		{"store failure", errors.New("redis timeout"), http.StatusInternalServerError, codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockCandidates{
				pendingFn: func(context.Context, string) ([]profile.Card, error) { return nil, tt.err },
			}
			rr := do(t, newTestServer(c, nil), "/v1/profiles/a/pending", true)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Message == tt.err.Error() && tt.wantStatus == http.StatusInternalServerError {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestServer_NoCandidatesMountsNoV1(t *testing.T) {
	rr := do(t, newTestServer(nil, nil), "/v1/profiles/a/pending", true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(nopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func nopLogger() *zap.Logger { return zap.NewNop() }
