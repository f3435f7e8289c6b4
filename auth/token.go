package auth

import (
	"errors"
	"time"

	"scorekeeper/config"

	"github.com/golang-jwt/jwt/v5"
)

// Permissions granted to operators.
const (
	PermissionAdmin   = "admin"
	PermissionDRCJ    = "drcj"
	PermissionScoring = "scoring"
)

type Claims struct {
	Subject     string   `json:"sub"`
	Permissions []string `json:"permissions"`
	Exp         int64    `json:"exp"`
}

func (claims *Claims) FromJWTClaims(jwtClaims jwt.Claims) error {
	mapClaims, ok := jwtClaims.(jwt.MapClaims)
	if !ok {
		return errors.New("unexpected claims type")
	}
	permissions := []string{}
	if raw, ok := mapClaims["permissions"].([]interface{}); ok {
		for _, perm := range raw {
			if s, ok := perm.(string); ok {
				permissions = append(permissions, s)
			}
		}
	}
	claims.Permissions = permissions
	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return errors.New("token has no subject")
	}
	claims.Subject = sub
	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return errors.New("token has no expiry")
	}
	claims.Exp = int64(exp)
	return nil
}

func (claims *Claims) Valid() error {
	if time.Now().Unix() > claims.Exp {
		return jwt.ErrTokenExpired
	}
	return nil
}

func (claims *Claims) HasAny(permissions []string) bool {
	for _, required := range permissions {
		for _, granted := range claims.Permissions {
			if required == granted {
				return true
			}
		}
	}
	return false
}

// CreateToken signs a token for an operator. Accounts live outside this service, so the subject
// is the operator's name as known to the issuing system.
func CreateToken(subject string, permissions []string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":         subject,
			"permissions": permissions,
			"exp":         time.Now().Add(ttl).Unix(),
		})

	tokenString, err := token.SignedString([]byte(config.Env().JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Env().JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}
	return token, nil
}
