package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

const gateSecret = "gate-test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func baseClaims(userID, role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID,
		Email:  userID + "@example.com",
		Name:   "Test " + userID,
		Role:   role,
	}
}

func TestGateAdmitMissingToken(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))
	r := httptest.NewRequest("GET", "/ws", nil)

	_, err := g.Admit(r)
	require.ErrorIs(t, err, model.ErrMissingToken)
}

func TestGateAdmitHeaderAndQuery(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))
	raw := signToken(t, gateSecret, baseClaims("u1", "interviewer"))

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	p, err := g.Admit(r)
	require.NoError(t, err)
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, model.RoleInterviewer, p.Role)

	r = httptest.NewRequest("GET", "/ws?token="+raw, nil)
	p, err = g.Admit(r)
	require.NoError(t, err)
	require.Equal(t, "u1", p.UserID)
}

func TestGateRejectsWrongSecret(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))
	raw := signToken(t, "other-secret", baseClaims("u1", "candidate"))

	_, err := g.Verify(raw)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestGateRejectsExpiredToken(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))
	claims := baseClaims("u1", "candidate")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := g.Verify(signToken(t, gateSecret, claims))
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestGateRejectsWrongAlgorithm(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))
	// alg=none tokens must never pass.
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims("u1", "candidate")).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = g.Verify(raw)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestGateSubjectFallback(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))
	claims := baseClaims("", "candidate")
	claims.Subject = "sub-1"

	p, err := g.Verify(signToken(t, gateSecret, claims))
	require.NoError(t, err)
	require.Equal(t, "sub-1", p.UserID)
}

func TestGateRejectsTokenWithoutUserID(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))

	_, err := g.Verify(signToken(t, gateSecret, baseClaims("", "candidate")))
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestGateUnknownRoleDefaultsToCandidate(t *testing.T) {
	g := NewConnectionGate([]byte(gateSecret))

	p, err := g.Verify(signToken(t, gateSecret, baseClaims("u1", "observer")))
	require.NoError(t, err)
	require.Equal(t, model.RoleCandidate, p.Role)
}
