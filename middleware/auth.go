package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"nfl-pool/logging"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CronKeyHeader carries the scheduler's shared key
const CronKeyHeader = "X-Cron-Key"

// CallerContextKey is the key used to store the caller in request context
type CallerContextKey string

const CallerKey CallerContextKey = "caller"

// AdminClaims represents the claims in an admin JWT
type AdminClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// AdminAuth guards the recap trigger routes. A request passes with either an
// HS256 bearer token whose claims carry admin=true, or a cron key matching the
// configured bcrypt hash.
type AdminAuth struct {
	jwtSecret   []byte
	cronKeyHash []byte
	logger      *logging.Logger
}

// NewAdminAuth creates a new admin authentication middleware. An empty
// cronKeyHash disables the cron key path.
func NewAdminAuth(jwtSecret, cronKeyHash string) *AdminAuth {
	return &AdminAuth{
		jwtSecret:   []byte(jwtSecret),
		cronKeyHash: []byte(cronKeyHash),
		logger:      logging.WithPrefix("AdminAuth"),
	}
}

// IssueToken creates an admin token for subject, valid for ttl
func (a *AdminAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "nfl-pool",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateToken validates an admin token and returns its claims
func (a *AdminAuth) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Admin {
		return nil, errors.New("token does not grant admin access")
	}
	return claims, nil
}

// RequireAdmin middleware that rejects callers without admin credentials
func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := a.authenticate(r)
		if err != nil {
			a.logger.Warnf("Rejected %s %s from %s: %v", r.Method, r.URL.Path, r.RemoteAddr, err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CallerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AdminAuth) authenticate(r *http.Request) (string, error) {
	if key := r.Header.Get(CronKeyHeader); key != "" {
		if len(a.cronKeyHash) == 0 {
			return "", errors.New("cron key not configured")
		}
		if err := bcrypt.CompareHashAndPassword(a.cronKeyHash, []byte(key)); err != nil {
			return "", errors.New("cron key mismatch")
		}
		return "cron", nil
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("missing credentials")
	}
	claims, err := a.ValidateToken(parts[1])
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "admin", nil
	}
	return claims.Subject, nil
}

// GetCallerFromContext returns who passed RequireAdmin, or "" outside it
func GetCallerFromContext(r *http.Request) string {
	if caller, ok := r.Context().Value(CallerKey).(string); ok {
		return caller
	}
	return ""
}
