package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const jwtIssuer = "catalog_api"

// Claims identifies the vendor acting on listings.
type Claims struct {
	VendorID string `json:"vendorId"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT signs an HS256 token for vendorID valid for ttl.
func GenerateJWT(secret, vendorID, email string, ttl time.Duration) (string, error) {
	if vendorID == "" {
		return "", ErrMissingSubject
	}
	now := time.Now()
	claims := Claims{
		VendorID: vendorID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   vendorID,
			Issuer:    jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateJWT parses and verifies an HS256 token.
func ValidateJWT(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(jwtIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.VendorID == "" {
		claims.VendorID = claims.Subject
	}
	if claims.VendorID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
