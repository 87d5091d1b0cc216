package http

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyjia/fatura-reader/internal/session"
)

// Context keys set by the auth middleware
const (
	ContextKeySessionID = "session_id"
	ContextKeyUsername  = "username"
)

// Authentication errors
var (
	ErrLoginDisabled      = errors.New("login is disabled: no password configured")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// AuthConfig holds the single application login
type AuthConfig struct {
	Username string
	Password string
	Secret   string
	TokenTTL time.Duration
}

// Claims are the JWT claims of a login; the token ID is the session ID
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator checks the configured login and issues session tokens
type Authenticator struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	sessions     *session.Store
	logger       *zap.Logger
}

// NewAuthenticator creates a new authenticator. Without a secret a random one
// is generated, so tokens do not survive a restart. The password may be given
// in clear or as a bcrypt hash; only the hash is kept.
func NewAuthenticator(cfg AuthConfig, sessions *session.Store, logger *zap.Logger) (*Authenticator, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		logger.Warn("No JWT secret configured, using a random one for this process")
	}

	var hash []byte
	switch {
	case cfg.Password == "":
		logger.Warn("No application password configured, login is disabled")
	case isBcryptHash(cfg.Password):
		hash = []byte(cfg.Password)
	default:
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Authenticator{
		username:     cfg.Username,
		passwordHash: hash,
		secret:       secret,
		ttl:          ttl,
		sessions:     sessions,
		logger:       logger,
	}, nil
}

// Login verifies the credentials, starts a fresh session and returns its token
func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	if a.passwordHash == nil {
		return "", time.Time{}, ErrLoginDisabled
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		a.logger.Warn("Login rejected", zap.String("username", username))
		return "", time.Time{}, ErrInvalidCredentials
	}

	sess := a.sessions.Create(username)
	now := time.Now()
	expiresAt := now.Add(a.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		a.sessions.Delete(sess.ID)
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}

// ValidateToken parses a token and returns its claims
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Middleware rejects requests without a valid token for a live session
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid authorization header",
			})
			return
		}

		claims, err := a.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid or expired token",
			})
			return
		}

		if _, err := a.sessions.Get(claims.ID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "session expired",
			})
			return
		}

		c.Set(ContextKeySessionID, claims.ID)
		c.Set(ContextKeyUsername, claims.Subject)
		c.Next()
	}
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
