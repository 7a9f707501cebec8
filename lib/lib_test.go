package lib

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newCookie(name, value string) *http.Cookie {
	return &http.Cookie{Name: name, Value: value}
}

func TestParseSessionToken(t *testing.T) {
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	token := signToken(t, jwt.MapClaims{
		"sub":        userID.String(),
		"email":      "gabai@example.org",
		"role":       "authenticated",
		"aud":        "authenticated",
		"session_id": "sess-1",
		"exp":        exp.Unix(),
	}, testSecret)

	claims, err := ParseSessionToken(token, testSecret, "authenticated")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Sub)
	assert.Equal(t, "gabai@example.org", claims.Email)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.True(t, exp.Equal(claims.Exp))
}

func TestParseSessionTokenRejects(t *testing.T) {
	userID := uuid.New().String()

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "expired",
			token:   signToken(t, jwt.MapClaims{"sub": userID, "aud": "authenticated", "exp": time.Now().Add(-time.Minute).Unix()}, testSecret),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			token:   signToken(t, jwt.MapClaims{"sub": userID, "aud": "authenticated", "exp": time.Now().Add(time.Hour).Unix()}, "other"),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong audience",
			token:   signToken(t, jwt.MapClaims{"sub": userID, "aud": "anon", "exp": time.Now().Add(time.Hour).Unix()}, testSecret),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing exp",
			token:   signToken(t, jwt.MapClaims{"sub": userID, "aud": "authenticated"}, testSecret),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "sub not a uuid",
			token:   signToken(t, jwt.MapClaims{"sub": "abc", "aud": "authenticated", "exp": time.Now().Add(time.Hour).Unix()}, testSecret),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.token, testSecret, "authenticated")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractSessionToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, ExtractSessionToken(r))

	r.AddCookie(newCookie(AccessCookieName, "from-cookie"))
	assert.Equal(t, "from-cookie", ExtractSessionToken(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", ExtractSessionToken(r))
}

func TestMapPgError(t *testing.T) {
	assert.ErrorIs(t, MapPgError(&pgconn.PgError{Code: "23505"}), ErrConflict)
	assert.ErrorIs(t, MapPgError(&pgconn.PgError{Code: "23503"}), ErrConstraintViolation)
	assert.ErrorIs(t, MapPgError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: SQLStateEmptyCart})), ErrEmptyCart)
	assert.ErrorIs(t, MapPgError(&pgconn.PgError{Code: SQLStateProductNotFound}), ErrProductNotFound)

	assert.True(t, IsConflict(MapPgError(&pgconn.PgError{Code: "23505"})))
	assert.True(t, IsConstraintViolation(MapPgError(&pgconn.PgError{Code: "23503"})))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", ErrNotFound)))
	assert.False(t, IsNotFound(ErrConflict))

	plain := errors.New("boom")
	assert.Equal(t, plain, MapPgError(plain))
	assert.NoError(t, MapPgError(nil))
}

func TestUserMessage(t *testing.T) {
	ce := NewConstraintError("product", "cannot delete a product referenced by existing orders")
	assert.ErrorIs(t, ce, ErrConstraintViolation)
	assert.Equal(t, "cannot delete a product referenced by existing orders", UserMessage(fmt.Errorf("delete: %w", ce)))
	assert.Equal(t, "cart is empty", UserMessage(ErrEmptyCart))
	assert.Equal(t, "internal error", UserMessage(errors.New("dial tcp: refused")))
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	assert.NoError(t, ve.OrNil())

	ve.Add("name", "is required").Add("price", "must be greater than 0")
	err := ve.OrNil()
	require.Error(t, err)
	assert.Equal(t, "validation failed: name is required; price must be greater than 0", err.Error())
}

func TestEncryptRoundTrip(t *testing.T) {
	key, err := DeriveKey("a secret of any length")
	require.NoError(t, err)
	require.Len(t, key, 32)

	ciphertext, err := Encrypt("+44 20 7946 0018", key)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "7946")

	plaintext, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0018", plaintext)

	other, err := DeriveKey("another secret")
	require.NoError(t, err)
	_, err = Decrypt(ciphertext, other)
	assert.Error(t, err)

	_, err = DeriveKey("")
	assert.Error(t, err)
}

func TestSafeRedirectPath(t *testing.T) {
	assert.Equal(t, "/order?verified=1", SafeRedirectPath("", DefaultCallbackRedirect))
	assert.Equal(t, "/cart", SafeRedirectPath("/cart", DefaultCallbackRedirect))
	assert.Equal(t, DefaultCallbackRedirect, SafeRedirectPath("https://evil.example", DefaultCallbackRedirect))
	assert.Equal(t, DefaultCallbackRedirect, SafeRedirectPath("//evil.example/x", DefaultCallbackRedirect))
	assert.Equal(t, DefaultCallbackRedirect, SafeRedirectPath("/\\evil.example", DefaultCallbackRedirect))
}

func TestAdminLoginURL(t *testing.T) {
	assert.Equal(t, "/admin/login?redirectTo=%2Fadmin%2Forders%3Fpage%3D2", AdminLoginURL("/admin/orders?page=2"))
}

func TestImageObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name, err := ImageObjectName("Siddur Photo.JPG", now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "1700000000123_"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	name, err = ImageObjectName("noext", now)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".bin"))
}

func TestShortOrderID(t *testing.T) {
	id := uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301")
	assert.Equal(t, "3f2504e0", ShortOrderID(id))
}
