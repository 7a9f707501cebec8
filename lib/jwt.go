package lib

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"yeshivashop_server/structs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ParseSessionToken verifies an identity provider access token (HS256) and returns its claims.
func ParseSessionToken(tokenStr, secret, audience string) (*structs.SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	sub, err := uuid.Parse(subStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid UUID in sub claim", ErrInvalidToken)
	}

	out := &structs.SessionClaims{Sub: sub}
	out.Email, _ = claims["email"].(string)
	out.Role, _ = claims["role"].(string)
	if sid, ok := claims["session_id"].(string); ok {
		out.SessionID = sid
	} else if jti, ok := claims["jti"].(string); ok {
		out.SessionID = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Exp = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.Iat = iat.Time
	}

	return out, nil
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// ExtractSessionToken prefers the bearer header and falls back to the session cookie.
func ExtractSessionToken(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}
	token, _ := GetCookieValue(AccessCookieName, r)
	return token
}

// SessionFromClaims builds the request session from verified claims.
func SessionFromClaims(claims *structs.SessionClaims, token string) *structs.Session {
	return &structs.Session{
		UserID:      claims.Sub,
		Email:       claims.Email,
		SessionID:   claims.SessionID,
		ExpiresAt:   claims.Exp,
		AccessToken: token,
	}
}

// TokenExpiry returns the expiry of a provider session, falling back to now+expires_in.
func TokenExpiry(s *structs.ProviderSession, now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 {
		return now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return now.Add(time.Hour)
}
