package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxParamLen = 256

// PathParam returns the trimmed chi URL parameter, or a validation error
// naming the parameter when it is blank.
func PathParam(r *http.Request, name string) (string, error) {
	if value := clip(chi.URLParam(r, name), maxParamLen); value != "" {
		return value, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required").WithDetails(map[string]any{"field": name})
}

// QueryString returns the trimmed query value, capped at maxLen bytes.
func QueryString(r *http.Request, key string, maxLen int) string {
	return clip(r.URL.Query().Get(key), maxLen)
}

func clip(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen > 0 && len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
