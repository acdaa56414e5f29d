package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL bounds how long a widget invocation may take to report its
// outcome before its callback token expires.
const TokenTTL = 30 * time.Minute

const tokenIssuer = "medimitra-checkout"

var (
	ErrInvalidToken = errors.New("invalid checkout token")
	ErrTokenExpired = errors.New("checkout token expired")
)

// InvocationClaims bind a callback token to one widget invocation and its
// order, so an outcome report cannot be replayed against a different
// invocation.
type InvocationClaims struct {
	InvocationID string `json:"invocation_id"`
	OrderID      string `json:"order_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the per-invocation callback tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue mints a token for one widget invocation.
func (t *TokenIssuer) Issue(invocationID, orderID string) (string, error) {
	now := time.Now()
	claims := InvocationClaims{
		InvocationID: invocationID,
		OrderID:      orderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign checkout token: %v", err)
	}
	return signed, nil
}

// Verify parses the token and returns its claims.
func (t *TokenIssuer) Verify(tokenString string) (*InvocationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &InvocationClaims{}, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*InvocationClaims)
	if !ok || !token.Valid || claims.InvocationID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
