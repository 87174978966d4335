package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hackconnect/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newStaff(t *testing.T) *Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("door-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewStaff("staff", string(hash), "test-secret", logger.Discard())
}

func TestLoginIssuesValidToken(t *testing.T) {
	s := newStaff(t)

	token, exp, err := s.Login("staff", "door-pass")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), exp, time.Minute)

	claims, err := s.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "staff", claims.Username)
	assert.True(t, claims.HasRole(RoleStaff))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newStaff(t)

	_, _, err := s.Login("staff", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login("someone", "door-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithoutSecret(t *testing.T) {
	s := NewStaff("staff", "", "", logger.Discard())
	assert.False(t, s.Enabled())

	_, _, err := s.Login("staff", "door-pass")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestValidateRejects(t *testing.T) {
	s := newStaff(t)
	token, _, err := s.Login("staff", "door-pass")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := NewStaff("staff", "", "another-secret", logger.Discard())
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		s.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
		defer func() { s.now = time.Now }()
		_, err := s.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing role", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			Username: "staff",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = s.Validate(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := s.Validate("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLoginHandler(t *testing.T) {
	s := newStaff(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"username":"staff","password":"door-pass"}`, http.StatusOK},
		{"wrong password", `{"username":"staff","password":"nope"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"staff"}`, http.StatusBadRequest},
		{"no body", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/staff/login", strings.NewReader(tt.body))
			s.LoginHandler(rec, req, nil)

			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.code == http.StatusOK {
				assert.NotEmpty(t, body["token"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}
