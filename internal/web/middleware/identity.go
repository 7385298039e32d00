package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/shoplist/internal/core"
)

// UserHeader carries the name of the logged-in identity.
const UserHeader = "X-Shoplist-User"

// IdentityResolver turns a user name into an identity.
type IdentityResolver interface {
	Login(ctx context.Context, name string) (core.Identity, error)
}

// Identity resolves the UserHeader and stores the identity in the request
// context. Requests without the header, or naming the anonymous identity,
// proceed as core.Anonymous. Names that fail to resolve are passed to
// onError and the request stops there.
func Identity(resolver IdentityResolver, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get(UserHeader))
			if name == "" || strings.EqualFold(name, core.AnonymousName) {
				next.ServeHTTP(w, r.WithContext(core.ContextWithIdentity(r.Context(), core.Anonymous())))
				return
			}

			id, err := resolver.Login(r.Context(), name)
			if err != nil {
				slog.Warn("identity: rejected user header",
					"user", name,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(core.ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireCapability rejects identities lacking c with core.ErrForbidden.
func RequireCapability(c core.Capability, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := core.IdentityFromContext(r.Context())
			if !id.Can(c) {
				slog.Warn("identity: missing capability",
					"user", id.Name,
					"capability", string(c),
					"path", r.URL.Path,
				)
				onError(w, r, core.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
