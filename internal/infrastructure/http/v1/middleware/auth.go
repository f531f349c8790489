package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"chequedentista/internal/core/appctx"
	"chequedentista/internal/core/apperror"
)

// JWTValidator validates bearer tokens issued by the auth provider.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.User, error)
}

// HMACValidator validates HS256 tokens against a shared secret.
type HMACValidator struct {
	secret []byte
	issuer string
}

// NewHMACValidator creates a validator.
func NewHMACValidator(secret, issuer string) *HMACValidator {
	return &HMACValidator{secret: []byte(secret), issuer: issuer}
}

type claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
}

// ValidateToken parses and verifies the token signature, expiry and
// issuer, and returns the subject as the user.
func (v *HMACValidator) ValidateToken(tokenString string) (*appctx.User, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if v.issuer != "" && c.Issuer != v.issuer {
		return nil, fmt.Errorf("unexpected issuer")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}

	return &appctx.User{UserID: c.Subject, Email: c.Email}, nil
}

// Auth validates JWT tokens and populates the user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
