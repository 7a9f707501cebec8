package structs

import (
	"time"

	"github.com/google/uuid"
)

// SessionClaims are the claims read from an identity provider access token.
type SessionClaims struct {
	Sub       uuid.UUID `json:"sub"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SessionID string    `json:"session_id"`
	Iat       time.Time `json:"iat"`
	Exp       time.Time `json:"exp"`
}

// Session is the verified caller attached to a request context.
type Session struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	SessionID   string    `json:"session_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessToken string    `json:"-"`
}

// Key identifies the session for revocation and idle tracking.
func (s *Session) Key() string {
	if s.SessionID != "" {
		return s.SessionID
	}
	return s.UserID.String() + ":" + s.ExpiresAt.Format(time.RFC3339)
}

const (
	AuthEventSignedIn       = "SIGNED_IN"
	AuthEventSignedOut      = "SIGNED_OUT"
	AuthEventTokenRefreshed = "TOKEN_REFRESHED"
)

// ProviderSession is the token bundle the identity provider hands out.
type ProviderSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

type AuthCallbackRequest struct {
	Event   string           `json:"event" validate:"required"`
	Session *ProviderSession `json:"session"`
}

type ProfileRequest struct {
	FullName           string `json:"full_name" validate:"required,min=2,max=120"`
	InstitutionName    string `json:"institution_name" validate:"omitempty,max=200"`
	InstitutionAddress string `json:"institution_address" validate:"omitempty,max=300"`
	ResponsibleName    string `json:"responsible_name" validate:"omitempty,max=120"`
	ResponsiblePhone   string `json:"responsible_phone" validate:"omitempty,min=7,max=20"`
}
