package auth

import (
	"net/http"

	"inbox-live/errors"
)

// IdentityFunc extracts the user identity of a live connection from its handshake request.
// The returned identity is trusted by the connection layer as is.
type IdentityFunc func(r *http.Request) (string, error)

// QueryIdentity reads the "userId" query parameter, as sent by the web client.
func QueryIdentity(r *http.Request) (string, error) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		return "", errors.ErrMissingIdentity
	}
	return userID, nil
}

// TokenIdentity verifies a JWT passed in the "token" query parameter or the
// Authorization header, and returns its subject.
func TokenIdentity(tokens *TokenManager) IdentityFunc {
	return func(r *http.Request) (string, error) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			var ok bool
			if tokenString, ok = bearer(r.Header.Get("Authorization")); !ok {
				return "", errors.ErrMissingIdentity
			}
		}
		claims, err := tokens.Validate(tokenString)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
}
