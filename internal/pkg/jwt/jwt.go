package jwt

import (
	"context"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

// Claims identifies the caller of a request.
type Claims struct {
	UserID   string
	Username string
	IsAdmin  bool
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	GenerateSSEToken(claims Claims) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

// JWTService issues and verifies HS256 tokens. Access tokens are minted by
// the identity service in production; GenerateAccessToken serves the CLI and tests.
type JWTService struct {
	accessTokenTTL time.Duration
	tokenAuth      *jwtauth.JWTAuth
	now            func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration) *JWTService {
	return &JWTService{
		accessTokenTTL: accessTokenTTL,
		tokenAuth:      jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:            time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenTTL).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"is_admin": claims.IsAdmin,
		"type":     TokenTypeAccess,
		"exp":      expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections, which
// cannot carry an Authorization header.
func (j *JWTService) GenerateSSEToken(claims Claims) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"is_admin": claims.IsAdmin,
		"type":     TokenTypeSSE,
		"exp":      expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenTTL.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns its claims
func (j *JWTService) ValidateSSEToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Claims{}, err
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, err
	}

	// Check token type
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeSSE {
		return Claims{}, jwt.ErrInvalidJWT()
	}

	parsed, ok := ClaimsFromMap(claims)
	if !ok {
		return Claims{}, jwt.ErrInvalidJWT()
	}
	return parsed, nil
}

// ClaimsFromMap extracts Claims from decoded token claims. It reports false
// when user_id is missing.
func ClaimsFromMap(m map[string]interface{}) (Claims, bool) {
	userID, ok := m["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, false
	}
	username, _ := m["username"].(string)
	isAdmin, _ := m["is_admin"].(bool)
	return Claims{UserID: userID, Username: username, IsAdmin: isAdmin}, true
}
