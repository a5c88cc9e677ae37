package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const identityKey = "identity"

// Claims is the access token payload. The subject is the user id.
type Claims struct {
	Role     string   `json:"role"`
	Children []string `json:"children,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 access tokens and turns them into identities.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs an access token for id that expires after ttl.
func (a *Authenticator) IssueToken(id domain.Identity, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	if id.UserID == "" || !id.Role.Valid() {
		return "", fmt.Errorf("invalid identity %q/%q", id.UserID, id.Role)
	}
	now := time.Now()
	claims := Claims{
		Role:     string(id.Role),
		Children: id.Children,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a token and returns the identity it carries.
func (a *Authenticator) Parse(raw string) (domain.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	id := domain.Identity{UserID: claims.Subject, Role: domain.Role(claims.Role), Children: claims.Children}
	if id.UserID == "" || !id.Role.Valid() {
		return domain.Identity{}, errors.New("token carries no valid subject or role")
	}
	return id, nil
}

// Middleware rejects requests without a valid token. The token is read from the
// Authorization header or, for websocket upgrades, the access_token query parameter.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}
		id, err := a.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("access_token")
}

func identity(c *gin.Context) domain.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(domain.Identity)
	return id
}
