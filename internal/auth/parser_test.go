package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

func TestParser_RoundTrip(t *testing.T) {
	parser := NewParser("secret")
	principal := model.Principal{UserID: uuid.New(), Role: model.RoleBuyer}

	token, err := parser.Issue(principal, time.Minute)
	require.NoError(t, err)

	got, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestParser_RejectsWrongSecret(t *testing.T) {
	token, err := NewParser("other").Issue(model.Principal{UserID: uuid.New(), Role: model.RoleGrower}, time.Minute)
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParser_RejectsExpired(t *testing.T) {
	parser := NewParser("secret")
	token, err := parser.Issue(model.Principal{UserID: uuid.New(), Role: model.RoleGrower}, -time.Minute)
	require.NoError(t, err)

	_, err = parser.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParser_RejectsUnknownRole(t *testing.T) {
	claims := Claims{
		Role: "driver",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
