package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lifesure/internal/common/auth"
	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/metrics"
	"lifesure/internal/lifecycle"
	"lifesure/internal/models"
)

const sessionIDKey contextKey = "sessionID"

// RoleSource resolves the stored role for an email. Unknown accounts resolve
// to customer.
type RoleSource interface {
	RoleByEmail(ctx context.Context, email string) (models.Role, error)
}

// RoleCache is the session-scoped role cache in front of RoleSource.
type RoleCache interface {
	Role(ctx context.Context, sessionID string) (models.Role, bool, error)
	CacheRole(ctx context.Context, sessionID string, role models.Role) error
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}

// metricsMiddleware records per-route counters and latency histograms.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// sessionIDFor derives a stable session id from the bearer token. The same
// token always maps to the same id, so sign-out can find and drop every key
// the session cached.
func sessionIDFor(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// authenticate verifies the bearer token and attaches the actor, resolving
// the role from the session cache with a database fallthrough. Role claims
// inside the token are ignored; the database is authoritative.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			s.errs.WriteError(w, r, err)
			return
		}

		identity, err := s.verifier.Verify(token)
		if err != nil {
			s.errs.WriteError(w, r, err)
			return
		}

		sessionID := sessionIDFor(token)
		role, err := s.resolveRole(r.Context(), sessionID, identity)
		if err != nil {
			s.errs.WriteError(w, r, err)
			return
		}

		ctx := withActor(r.Context(), lifecycle.Actor{Email: identity.Email, Role: role})
		ctx = context.WithValue(ctx, sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveRole(ctx context.Context, sessionID string, identity *auth.Identity) (models.Role, error) {
	if role, cached, err := s.roleCache.Role(ctx, sessionID); err == nil && cached {
		return role, nil
	} else if err != nil {
		s.logger.Warn("role cache unavailable", map[string]interface{}{"error": err.Error()})
	}

	role, err := s.roles.RoleByEmail(ctx, identity.Email)
	if err != nil {
		return "", err
	}
	if err := s.roleCache.CacheRole(ctx, sessionID, role); err != nil {
		s.logger.Warn("role cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return role, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", stderrors.NewAuthenticationError("missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", stderrors.NewAuthenticationError("malformed Authorization header")
	}
	return parts[1], nil
}

// requireRole guards a subtree. No actor is 401; a known actor with the
// wrong role is 403.
func (s *Server) requireRole(roles ...models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFrom(r.Context())
			if !ok {
				s.errs.WriteError(w, r, stderrors.NewAuthenticationError("no authenticated actor"))
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.errs.WriteError(w, r, stderrors.NewForbiddenError("insufficient role"))
		})
	}
}

// doubleSubmitGuard absorbs a second identical submit while the first is in
// flight. The lock covers the request only; it is released on completion.
func (s *Server) doubleSubmitGuard(keyFor func(r *http.Request) string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFor(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := s.sessions.AcquireOnce(r.Context(), key, 30*time.Second)
			if err != nil {
				s.logger.Warn("in-flight guard unavailable", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				s.errs.WriteError(w, r, stderrors.NewTransitionNotAllowedError("an identical request is already in flight"))
				return
			}
			defer func() {
				if err := s.sessions.Release(r.Context(), key); err != nil {
					s.logger.Warn("in-flight guard release failed", map[string]interface{}{"error": err.Error()})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
