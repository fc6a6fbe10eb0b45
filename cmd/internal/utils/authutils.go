package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var jwtSecret []byte

// InitJWT stores the HS256 signing secret used for first-party session
// tokens. Must be called once at startup before any token is issued.
func InitJWT(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("JWT secret cannot be empty")
	}
	jwtSecret = []byte(secret)
	return nil
}

type TokenData struct {
	UserID int64
	Login  string
	Exp    int64
}

// IssueToken signs a session token for the given user, valid for 12 hours.
func IssueToken(userID int64, login string) (string, error) {
	if jwtSecret == nil {
		return "", errors.New("JWT secret not initialized")
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", userID),
		"login": login,
		"iat":   now.Unix(),
		"exp":   now.Add(12 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken parses AND validates the signature locally.
// It returns the data if the token is authentic and unexpired.
func ValidateToken(tokenString string) (*TokenData, error) {
	if jwtSecret == nil {
		return nil, errors.New("JWT secret not initialized")
	}

	clean := sanitizeToken(tokenString)
	token, err := jwt.Parse(clean, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	sub, _ := claims.GetSubject()
	var userID int64
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil {
		return nil, errors.New("token has no usable subject")
	}

	login, _ := claims["login"].(string)
	exp, _ := claims.GetExpirationTime()

	data := &TokenData{UserID: userID, Login: login}
	if exp != nil {
		data.Exp = exp.Unix()
	}
	return data, nil
}

// ParseTokenDataCtx extracts and validates the bearer token of a request.
func ParseTokenDataCtx(c echo.Context) (*TokenData, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, errors.New("missing authorization header")
	}
	return ValidateToken(header)
}

func sanitizeToken(token string) string {
	token = strings.TrimSpace(token)
	return strings.TrimPrefix(token, "Bearer ")
}
