package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"BACK_FPA_GO/internal/storage"
)

func newTestRouter(t *testing.T) (*mux.Router, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	if err := SeedAdmin(context.Background(), store, "admin@fpa.test", "s3cret", zap.NewNop()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	h := NewHandler(store, "test-jwt-secret", zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r, store
}

func login(t *testing.T, r http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := login(t, r, "admin@fpa.test", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Token == "" {
		t.Fatal("empty token")
	}

	// token opens the protected subrouter
	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	dashRec := httptest.NewRecorder()
	r.ServeHTTP(dashRec, req)
	if dashRec.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, body = %s", dashRec.Code, dashRec.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	if rec := login(t, r, "admin@fpa.test", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
	if rec := login(t, r, "nobody@fpa.test", "s3cret"); rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()
	log := zap.NewNop()

	if err := SeedAdmin(ctx, store, "admin@fpa.test", "pw", log); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedAdmin(ctx, store, "admin@fpa.test", "pw", log); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	u, err := store.GetUserByEmail(ctx, "admin@fpa.test")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !u.Admin || !u.Active {
		t.Errorf("seeded user = %+v", u)
	}
	if u.Password == "pw" {
		t.Error("password stored in plaintext")
	}
}

func TestSetGatewayStatus(t *testing.T) {
	r, store := newTestRouter(t)

	rec := login(t, r, "admin@fpa.test", "s3cret")
	var resp loginResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	body, _ := json.Marshal(map[string]string{"mode": "maintenance", "message": "upgrading"})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/gateways/mpesa/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	st, err := store.GetGatewayStatus(context.Background(), "mpesa")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if string(st.Mode) != "maintenance" || st.Message != "upgrading" {
		t.Errorf("stored status = %+v", st)
	}
}
