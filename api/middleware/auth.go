package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anoixa/memlane/api/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextCredentialKey gin context key holding the caller's bearer token
const ContextCredentialKey = "credential"

// Credential requires a Bearer token and stores it untouched for the data
// layer. With a non-empty secret the HMAC signature and expiry are checked
// first; the claims themselves are never interpreted here.
func Credential(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondError(c, http.StatusUnauthorized, "No Authorization request header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			common.RespondError(c, http.StatusBadRequest, "Authorization field format error")
			c.Abort()
			return
		}
		if !strings.EqualFold(parts[0], "Bearer") {
			common.RespondError(c, http.StatusUnauthorized, "Unsupported authentication scheme")
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		if len(key) > 0 {
			if err := verifyToken(token, key); err != nil {
				common.RespondError(c, http.StatusUnauthorized, "invalid or expired token")
				c.Abort()
				return
			}
		}

		c.Set(ContextCredentialKey, token)
		c.Next()
	}
}

// CredentialFrom returns the token stored by Credential
func CredentialFrom(c *gin.Context) string {
	return c.GetString(ContextCredentialKey)
}

func verifyToken(tokenString string, key []byte) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
