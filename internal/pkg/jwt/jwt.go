package jwt

import (
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type Claims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type JSONWebToken struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewJSONWebToken(privateKeyPEM, publicKeyPEM []byte) *JSONWebToken {
	j := &JSONWebToken{}

	if len(privateKeyPEM) > 0 {
		pk, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
		if err != nil {
			panic(err)
		}
		j.privateKey = pk
	}

	if len(publicKeyPEM) > 0 {
		pub, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
		if err != nil {
			panic(err)
		}
		j.publicKey = pub
	}

	return j
}

func (j *JSONWebToken) Sign(accountID, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	})

	return token.SignedString(j.privateKey)
}

func (j *JSONWebToken) Parse(tokenString string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.publicKey, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid or expired token")
	}

	return claims, nil
}
