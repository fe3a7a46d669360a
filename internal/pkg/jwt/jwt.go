package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	// stream tokens are short-lived and travel in the query string
	streamTokenTTL = 5 * time.Minute
)

var ErrInvalidClaims = errors.New("token claims are missing or malformed")

// Claims is the identity carried by an access or stream token.
type Claims struct {
	EmployeeID string
	IsAdmin    bool
	Type       string
}

// ClaimsFromMap reads the claims decoded by jwtauth.
func ClaimsFromMap(m map[string]interface{}) (Claims, error) {
	employeeID, ok := m["employee_id"].(string)
	if !ok || employeeID == "" {
		return Claims{}, ErrInvalidClaims
	}
	tokenType, ok := m["type"].(string)
	if !ok {
		return Claims{}, ErrInvalidClaims
	}
	isAdmin, _ := m["is_admin"].(bool)

	return Claims{EmployeeID: employeeID, IsAdmin: isAdmin, Type: tokenType}, nil
}

// FromContext returns the claims verified by jwtauth.Verifier.
func FromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, err
	}
	return ClaimsFromMap(claims)
}

type Service interface {
	GenerateAccessToken(employeeID string, isAdmin bool) (token string, expiresAt int64, err error)
	GenerateStreamToken(employeeID string, isAdmin bool) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(employeeID string, isAdmin bool) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpirationTime).Unix()
	token, err = j.encode(employeeID, isAdmin, TokenTypeAccess, expiresAt)
	return token, expiresAt, err
}

// GenerateStreamToken issues a token for EventSource clients, which cannot
// send an Authorization header.
func (j *JWTService) GenerateStreamToken(employeeID string, isAdmin bool) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(streamTokenTTL).Unix()
	token, err = j.encode(employeeID, isAdmin, TokenTypeStream, expiresAt)
	if err != nil {
		return "", 0, err
	}
	return token, int(streamTokenTTL / time.Second), nil
}

func (j *JWTService) ValidateStreamToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Claims{}, err
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, err
	}

	c, err := ClaimsFromMap(claims)
	if err != nil {
		return Claims{}, err
	}
	if c.Type != TokenTypeStream {
		return Claims{}, jwt.ErrInvalidJWT()
	}
	return c, nil
}

func (j *JWTService) encode(employeeID string, isAdmin bool, tokenType string, expiresAt int64) (string, error) {
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"is_admin":    isAdmin,
		"type":        tokenType,
		"exp":         expiresAt,
	})
	return tokenString, err
}
