package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// Claims is the JWT claim set issued by the platform's auth service. The
// relay only verifies; it never issues tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// ConnectionGate authenticates a connection before it is admitted. No session
// state is touched until Admit succeeds.
type ConnectionGate struct {
	secret []byte
}

// NewConnectionGate creates a gate verifying HMAC-signed tokens.
func NewConnectionGate(secret []byte) *ConnectionGate {
	return &ConnectionGate{secret: secret}
}

// Admit extracts and verifies the handshake credential, returning the decoded
// principal. Failures are distinguishable: model.ErrMissingToken when no
// credential was supplied, model.ErrInvalidToken otherwise.
func (g *ConnectionGate) Admit(r *http.Request) (model.Principal, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return model.Principal{}, model.ErrMissingToken
	}
	return g.Verify(raw)
}

// Verify parses and validates a raw token string.
func (g *ConnectionGate) Verify(raw string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %s", model.ErrInvalidToken, err.Error())
	}
	if !token.Valid {
		return model.Principal{}, model.ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return model.Principal{}, fmt.Errorf("%w: no user id claim", model.ErrInvalidToken)
	}

	return model.Principal{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   model.ParseRole(claims.Role),
	}, nil
}

// tokenFromRequest pulls the bearer token from the Authorization header or,
// for browser websocket clients that cannot set headers, the token query
// parameter.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		return strings.TrimSpace(h)
	}
	return r.URL.Query().Get("token")
}
