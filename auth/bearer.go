package auth

import (
	"net/http"
	"strings"
)

// ExtractBearer pulls the bearer token out of the Authorization header.
// The scheme match is case-insensitive; surrounding whitespace is
// trimmed. Every failure mode maps to ErrMissingCredential: an absent
// header, a non-bearer scheme, and an empty token all mean the caller
// presented nothing usable.
func ExtractBearer(h http.Header) (string, error) {
	raw := strings.TrimSpace(h.Get("Authorization"))
	if raw == "" {
		return "", ErrMissingCredential
	}
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
