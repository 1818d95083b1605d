package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
	defaultIdempotencyTTL  = 24 * time.Hour
	pendingTTL             = 2 * time.Minute
	maxIdempotencyKeyLen   = 255
)

// replayable lists the method and route pattern pairs that honour
// Idempotency-Key. Only checkout creates state a retry must not repeat.
var replayable = map[string]string{
	http.MethodPost: "/api/orders/{userId}",
}

// replayEntry is the JSON value kept under an idempotency key. A zero Status
// marks a request that is still running.
type replayEntry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	RequestHash string `json:"request_hash"`
}

func (e replayEntry) pending() bool { return e.Status == 0 }

// Idempotency makes checkout retries safe. The first request with a given
// Idempotency-Key reserves the key, runs, and stores its response for ttl.
// A retry with the same body gets the stored response back. A retry while
// the first is still running, or with a different body, is rejected with
// 409. Responses with a 5xx status release the key so the client can retry.
// Requests without the header, and every request when store is nil, pass
// straight through.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" || !guarded(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key is too long"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				msg := "invalid request body"
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					msg = "request body too large"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			reqHash := hex.EncodeToString(sum[:])
			key := store.IdempotencyKey(scopeOf(r), clientKey)
			ctx = logg.WithField(ctx, "idempotency_key", clientKey)

			reserved, err := reserve(ctx, store, key, reqHash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				answerRetry(ctx, store, key, reqHash, w, logg)
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			// The stored outcome must be written even if the client hung up.
			saveCtx := context.WithoutCancel(ctx)
			finished := false
			defer func() {
				if !finished {
					release(saveCtx, store, key, logg)
				}
			}()

			next.ServeHTTP(ww, r)
			finished = true

			status := statusOf(ww)
			if status >= http.StatusInternalServerError {
				release(saveCtx, store, key, logg)
				return
			}
			entry := replayEntry{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
				RequestHash: reqHash,
			}
			if err := saveEntry(saveCtx, store, key, entry, ttl); err != nil {
				logg.Error(saveCtx, "idempotency.persist_failed", err)
			}
		})
	}
}

func reserve(ctx context.Context, store pkgredis.IdempotencyStore, key, reqHash string) (bool, error) {
	marker, err := json.Marshal(replayEntry{RequestHash: reqHash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(marker), pendingTTL)
}

func release(ctx context.Context, store pkgredis.IdempotencyStore, key string, logg *logger.Logger) {
	if err := store.Del(ctx, key); err != nil {
		logg.Error(ctx, "idempotency.release_failed", err)
	}
}

func saveEntry(ctx context.Context, store pkgredis.IdempotencyStore, key string, entry replayEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(payload), ttl)
}

// answerRetry handles a request whose key was already reserved.
func answerRetry(ctx context.Context, store pkgredis.IdempotencyStore, key, reqHash string, w http.ResponseWriter, logg *logger.Logger) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// Released between our SETNX and GET; the first attempt failed.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this Idempotency-Key just failed, retry it"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}

	var entry replayEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case entry.RequestHash != reqHash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case entry.pending():
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this Idempotency-Key is still in progress"))
	default:
		logg.Info(ctx, "idempotency.replayed")
		replay(w, entry)
	}
}

func replay(w http.ResponseWriter, entry replayEntry) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(idempotentReplayHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

// scopeOf ties a key to the shopper and path it was first used on.
func scopeOf(r *http.Request) string {
	return strings.Join([]string{chi.URLParam(r, "userId"), r.Method, r.URL.Path}, "|")
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func guarded(method, pattern string) bool {
	want, ok := replayable[method]
	return ok && pattern != "" && pattern == want
}
