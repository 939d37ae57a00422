package main

import (
	"embed"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed assets/gateway.v1.yaml
var openAPISpec embed.FS

// Identity headers the gateway owns. Values sent by clients never reach upstreams.
const (
	headerUserID = "X-User-Id"
	headerRole   = "X-Role"
)

type upstreams struct {
	auth    *url.URL
	booking *url.URL
}

// TokenVerifier checks bearer tokens. *auth.Signer satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

func registerRoutes(mux *http.ServeMux, up upstreams, verifier TokenVerifier) {
	authProxy := newProxy(up.auth)
	bookingProxy := newProxy(up.booking)

	// auth-service verifies its own tokens for /me and the provider self routes.
	registerProxy(mux, "/api/v1/auth", authProxy)
	registerProxy(mux, "/api/v1/public", bookingProxy)
	registerProxy(mux, "/api/v1/appointments", requireAuth(bookingProxy, verifier))
	registerProxy(mux, "/api/v1/providers", requireAuth(bookingProxy, verifier))
	mux.Handle("POST /api/v1/services", requireAuth(bookingProxy, verifier))

	mux.HandleFunc("GET /openapi", func(w http.ResponseWriter, r *http.Request) {
		data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
		if err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "openapi not available")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func newProxy(target *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return stripIdentity(proxy)
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// stripIdentity replaces any client-supplied identity headers with the claims
// requireAuth verified, if there are any.
func stripIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verified := r.Context().Value(claimsKey{})
		r.Header.Del(headerUserID)
		r.Header.Del(headerRole)
		if claims, ok := verified.(*auth.Claims); ok {
			r.Header.Set(headerUserID, claims.Subject)
			r.Header.Set(headerRole, claims.Role)
		}
		next.ServeHTTP(w, r)
	})
}
