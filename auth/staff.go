package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"hackconnect/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleStaff = "staff"
	tokenTTL  = 12 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotConfigured      = errors.New("staff login is not configured")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims carried by staff tokens.
type Claims struct {
	Username string   `json:"username"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Role, role)
}

// Staff issues and checks the door-staff tokens used on the manual
// check-in path.
type Staff struct {
	username     string
	passwordHash []byte
	secret       []byte
	log          *slog.Logger
	now          func() time.Time
}

func NewStaff(username, passwordHash, secret string, log *slog.Logger) *Staff {
	return &Staff{
		username:     username,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		log:          log,
		now:          time.Now,
	}
}

// Enabled reports whether tokens are required at all.
func (s *Staff) Enabled() bool {
	return len(s.secret) > 0
}

// Login checks the credentials and returns a signed token with its expiry.
func (s *Staff) Login(username, password string) (string, time.Time, error) {
	if !s.Enabled() || len(s.passwordHash) == 0 {
		return "", time.Time{}, ErrNotConfigured
	}
	if username != s.username {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	exp := now.Add(tokenTTL)
	claims := &Claims{
		Username: username,
		Role:     []string{RoleStaff},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// Validate parses a raw token (without the Bearer prefix).
func (s *Staff) Validate(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.HasRole(RoleStaff) {
		return nil, fmt.Errorf("%w: missing staff role", ErrInvalidToken)
	}
	return claims, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Staff) LoginHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := s.log.With(slog.String("op", "auth.LoginHandler"))

	var req loginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithErr(w, log, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, exp, err := s.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, ErrNotConfigured):
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Staff login is not configured")
		return
	case errors.Is(err, ErrInvalidCredentials):
		log.Warn("rejected staff login", slog.String("username", req.Username))
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	case err != nil:
		utils.RespondWithErr(w, log, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"token":     token,
		"expiresAt": exp.UTC().Format(time.RFC3339),
	})
}
