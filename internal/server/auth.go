package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/config"
)

// moderatorClaims is the JWT payload for the moderator surface. There is a
// single moderator role, so the subject is fixed.
type moderatorClaims struct {
	jwt.RegisteredClaims
}

// auth guards the moderator routes: bcrypt login against the configured
// password, HS256 tokens with a TTL.
type auth struct {
	secret       []byte
	passwordHash []byte
	tokenTTL     time.Duration
}

func newAuth(cfg *config.Config) (*auth, error) {
	// hash once at startup so only the digest stays in memory
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &auth{
		secret:       []byte(cfg.Auth.JWTSecret),
		passwordHash: hash,
		tokenTTL:     cfg.Auth.TokenTTL,
	}, nil
}

// login checks the password and issues a signed token.
func (a *auth) login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", apperr.AccessDenied("wrong password")
	}
	now := time.Now()
	claims := moderatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "moderator",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// verify parses and validates a token string.
func (a *auth) verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &moderatorClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, apperr.AccessDenied("unexpected signing method")
			}
			return a.secret, nil
		})
	if err != nil || !token.Valid {
		return apperr.AccessDenied("invalid or expired token")
	}
	return nil
}

// middleware rejects requests without a valid bearer token.
func (a *auth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			handleError(c, apperr.AccessDenied("authorization required"))
			c.Abort()
			return
		}
		if err := a.verify(tokenString); err != nil {
			handleError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
