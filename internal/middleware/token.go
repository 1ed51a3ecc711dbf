package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	// TokenHeader carries the launch token on plain HTTP requests.
	TokenHeader = "X-Hostbridge-Token"

	// TokenParam carries the launch token where headers cannot be set, as
	// on a browser websocket handshake.
	TokenParam = "token"

	tokenName = "hostbridge-launch"
)

// Launch issues the token that proves a caller was handed it by this
// process. Keys are random per launch and never persisted.
type Launch struct {
	codec *securecookie.SecureCookie
	id    string
	token string
}

func NewLaunch() (*Launch, error) {
	hashKey := securecookie.GenerateRandomKey(32)
	blockKey := securecookie.GenerateRandomKey(32)
	if hashKey == nil || blockKey == nil {
		return nil, errors.New("middleware: failed to generate launch keys")
	}

	codec := securecookie.New(hashKey, blockKey).MaxAge(0)
	id := uuid.NewString()
	token, err := codec.Encode(tokenName, id)
	if err != nil {
		return nil, err
	}
	return &Launch{codec: codec, id: id, token: token}, nil
}

func (l *Launch) Token() string {
	return l.token
}

// Valid reports whether token was issued by this launch.
func (l *Launch) Valid(token string) bool {
	if token == "" {
		return false
	}
	var id string
	if err := l.codec.Decode(tokenName, token, &id); err != nil {
		return false
	}
	return id == l.id
}

// Require rejects requests that carry no valid launch token.
func (l *Launch) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			token = r.URL.Query().Get(TokenParam)
		}
		if !l.Valid(token) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
