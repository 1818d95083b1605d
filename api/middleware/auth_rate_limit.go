package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RateLimiterStore counts hits in fixed windows.
type RateLimiterStore interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// AuthRateLimitPolicy caps attempts per client IP and per account identity
// within one window. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	identityLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identityLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, identityLimit: identityLimit}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.identityLimit > 0)
}

// quota is one counter a request must stay under.
type quota struct {
	scope   string
	subject string
	limit   int
}

// AuthRateLimit throttles register and login. The identity is the username,
// or the email when no username is sent, and is hashed before it reaches
// redis or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			quotas, err := quotasFor(policy, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
				return
			}

			for _, q := range quotas {
				key := store.RateLimitKey(q.scope, policy.name, q.subject)
				hits, err := store.IncrWindow(ctx, key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if hits > int64(q.limit) {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         policy.name,
						"scope":          q.scope,
						"subject":        q.subject,
						"attempts":       hits,
						"limit":          q.limit,
						"window_seconds": int(policy.window.Seconds()),
					}), "auth.rate_limited")
					w.Header().Set("Retry-After", strconv.Itoa(max(1, int(policy.window.Seconds()))))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// quotasFor lists the counters that apply to r. Reading the identity consumes
// the body, so it is restored for the handler.
func quotasFor(policy AuthRateLimitPolicy, r *http.Request) ([]quota, error) {
	var quotas []quota
	if ip := clientIP(r); policy.ipLimit > 0 && ip != "" {
		quotas = append(quotas, quota{scope: "ip", subject: ip, limit: policy.ipLimit})
	}
	if policy.identityLimit <= 0 {
		return quotas, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	if identity := identityOf(body); identity != "" {
		sum := sha256.Sum256([]byte(identity))
		quotas = append(quotas, quota{scope: "identity", subject: hex.EncodeToString(sum[:]), limit: policy.identityLimit})
	}
	return quotas, nil
}

// clientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func identityOf(payload []byte) string {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	if v := strings.ToLower(strings.TrimSpace(body.Username)); v != "" {
		return "u:" + v
	}
	if v := strings.ToLower(strings.TrimSpace(body.Email)); v != "" {
		return "e:" + v
	}
	return ""
}
