package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter. An absent parameter yields
// defaultVal; a malformed or out-of-range one yields a validation error
// naming the offending field.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}

	value, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	case value < min || value > max:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}
