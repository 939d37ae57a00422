package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type seenRequest struct {
	Path   string `json:"path"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// newUpstream echoes the path and identity headers it received.
func newUpstream(t *testing.T) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(seenRequest{
			Path:   r.URL.Path,
			UserID: r.Header.Get(headerUserID),
			Role:   r.Header.Get(headerRole),
		})
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse upstream url: %v", err)
	}
	return u
}

func newGateway(t *testing.T, signer *auth.Signer) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	registerRoutes(mux, upstreams{auth: newUpstream(t), booking: newUpstream(t)}, signer)
	return mux
}

func send(h http.Handler, method, path, token string, headers map[string]string) (*httptest.ResponseRecorder, seenRequest) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	var seen seenRequest
	_ = json.Unmarshal(rw.Body.Bytes(), &seen)
	return rw, seen
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	signer := auth.NewSigner("test-secret", time.Hour)
	gw := newGateway(t, signer)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/appointments"},
		{http.MethodPatch, "/api/v1/appointments/a1"},
		{http.MethodGet, "/api/v1/providers/p1/appointments"},
		{http.MethodPost, "/api/v1/services"},
	} {
		if rw, _ := send(gw, tc.method, tc.path, "", nil); rw.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", tc.method, tc.path, rw.Code)
		}
		if rw, _ := send(gw, tc.method, tc.path, "not.a.jwt", nil); rw.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: expected 401, got %d", tc.method, tc.path, rw.Code)
		}
	}
}

func TestRequireAuthForwardsVerifiedIdentity(t *testing.T) {
	signer := auth.NewSigner("test-secret", time.Hour)
	gw := newGateway(t, signer)
	token, _, err := signer.Sign("client-1", "bruno@mail.com", auth.RoleClient)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rw, seen := send(gw, http.MethodGet, "/api/v1/appointments/a1", token, map[string]string{
		headerUserID: "someone-else",
		headerRole:   auth.RoleProvider,
	})
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if seen.UserID != "client-1" || seen.Role != auth.RoleClient {
		t.Fatalf("expected verified identity upstream, got %+v", seen)
	}
	if seen.Path != "/api/v1/appointments/a1" {
		t.Fatalf("unexpected upstream path %q", seen.Path)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	expired := auth.NewSigner("test-secret", time.Nanosecond)
	token, _, err := expired.Sign("client-1", "", auth.RoleClient)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	time.Sleep(time.Millisecond)

	gw := newGateway(t, auth.NewSigner("test-secret", time.Hour))
	rw, _ := send(gw, http.MethodGet, "/api/v1/appointments/a1", token, nil)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestPublicRoutesStripSpoofedIdentity(t *testing.T) {
	gw := newGateway(t, auth.NewSigner("test-secret", time.Hour))
	for _, path := range []string{"/api/v1/public/providers", "/api/v1/auth/clients/login"} {
		rw, seen := send(gw, http.MethodGet, path, "", map[string]string{headerUserID: "spoofed", headerRole: "provider"})
		if rw.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rw.Code)
		}
		if seen.UserID != "" || seen.Role != "" {
			t.Fatalf("%s: identity headers leaked upstream: %+v", path, seen)
		}
	}
}

func TestOpenAPIServed(t *testing.T) {
	gw := newGateway(t, auth.NewSigner("test-secret", time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/openapi", nil)
	rw := httptest.NewRecorder()
	gw.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK || rw.Header().Get("Content-Type") != "application/yaml" {
		t.Fatalf("expected yaml document, got %d %q", rw.Code, rw.Header().Get("Content-Type"))
	}
	if rw.Body.Len() == 0 {
		t.Fatal("empty openapi document")
	}
}

func TestGRPCProbe(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv, hs := grpcx.NewServer()
	hs.SetServingStatus("booking-service", healthpb.HealthCheckResponse_SERVING)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	probe := newGRPCProbe(lis.Addr().String(), "booking-service")
	t.Cleanup(probe.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := probe.Check(ctx); err != nil {
		t.Fatalf("expected SERVING, got %v", err)
	}
	hs.SetServingStatus("booking-service", healthpb.HealthCheckResponse_NOT_SERVING)
	if err := probe.Check(ctx); err == nil {
		t.Fatal("expected NOT_SERVING to fail the probe")
	}

	down := newGRPCProbe("127.0.0.1:1", "booking-service")
	t.Cleanup(down.Close)
	if err := down.Check(ctx); err == nil {
		t.Fatal("expected unreachable upstream to fail the probe")
	}
}
