package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

const (
	blacklistKeyPrefix   = "blacklist:"
	sessionSeenKeyPrefix = "session:seen:"
)

// SessionService verifies identity provider tokens and tracks revocation
// and inactivity in the cache.
type SessionService struct {
	logger     *gecho.Logger
	cfg        *structs.Config
	cache      Cache
	httpClient *http.Client
	now        func() time.Time
}

func NewSessionService(logger *gecho.Logger, cfg *structs.Config, cache Cache) *SessionService {
	return &SessionService{
		logger:     logger,
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: cfg.Auth.HTTPTimeout},
		now:        time.Now,
	}
}

func blacklistKey(s *structs.Session) string {
	return blacklistKeyPrefix + s.Key()
}

func sessionSeenKey(s *structs.Session) string {
	return sessionSeenKeyPrefix + s.Key()
}

// VerifyToken returns the session for a valid, unrevoked and active token.
// Cache failures are logged and do not reject the token.
func (ss *SessionService) VerifyToken(ctx context.Context, token string) (*structs.Session, error) {
	if token == "" {
		return nil, lib.ErrUnauthorized
	}

	claims, err := lib.ParseSessionToken(token, ss.cfg.Auth.JWTSecret, ss.cfg.Auth.JWTAudience)
	if err != nil {
		return nil, err
	}
	session := lib.SessionFromClaims(claims, token)

	if ss.cache == nil {
		return session, nil
	}

	revoked, err := ss.cache.Get(ctx, blacklistKey(session))
	if err != nil {
		ss.logger.Warn("Session blacklist lookup failed, allowing request",
			gecho.Field("user_id", session.UserID),
			gecho.Field("error", err),
		)
		return session, nil
	}
	if revoked != "" {
		return nil, fmt.Errorf("%w: session revoked", lib.ErrInvalidToken)
	}

	if err := ss.touch(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// touch enforces the idle timeout and records activity.
func (ss *SessionService) touch(ctx context.Context, session *structs.Session) error {
	idle := ss.cfg.Auth.IdleTimeout
	if idle <= 0 {
		return nil
	}

	now := ss.now()
	key := sessionSeenKey(session)

	last, err := ss.cache.Get(ctx, key)
	if err != nil {
		ss.logger.Warn("Session activity lookup failed, allowing request",
			gecho.Field("user_id", session.UserID),
			gecho.Field("error", err),
		)
		return nil
	}

	if last != "" {
		if unix, perr := strconv.ParseInt(last, 10, 64); perr == nil && now.Sub(time.Unix(unix, 0)) > idle {
			if rerr := ss.Revoke(ctx, session); rerr != nil {
				ss.logger.Warn("Failed to revoke idle session", gecho.Field("error", rerr))
			}
			ss.logger.Info("Session expired due to inactivity", gecho.Field("user_id", session.UserID))
			return lib.ErrSessionIdle
		}
	}

	ttl := session.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = idle
	}
	if err := ss.cache.Set(ctx, key, strconv.FormatInt(now.Unix(), 10), ttl); err != nil {
		ss.logger.Warn("Failed to record session activity", gecho.Field("error", err))
	}

	return nil
}

// Revoke blacklists the session until its token expires.
func (ss *SessionService) Revoke(ctx context.Context, session *structs.Session) error {
	if session == nil || ss.cache == nil {
		return nil
	}

	ttl := ss.cfg.Auth.BlacklistTTL
	if session.ExpiresAt.After(ss.now()) {
		ttl = session.ExpiresAt.Sub(ss.now())
	}

	if err := ss.cache.Set(ctx, blacklistKey(session), "true", ttl); err != nil {
		return fmt.Errorf("blacklist session: %w", err)
	}
	if err := ss.cache.Delete(ctx, sessionSeenKey(session)); err != nil {
		ss.logger.Warn("Failed to clear session activity", gecho.Field("error", err))
	}

	return nil
}

type pkceExchangeRequest struct {
	AuthCode     string `json:"auth_code"`
	CodeVerifier string `json:"code_verifier"`
}

// ExchangeCode trades a PKCE authorization code for a provider session.
func (ss *SessionService) ExchangeCode(ctx context.Context, code, verifier string) (*structs.ProviderSession, error) {
	if ss.cfg.Auth.ProviderURL == "" {
		return nil, errors.New("identity provider url is not configured")
	}
	if code == "" || verifier == "" {
		return nil, lib.NewValidationError("code", "code and verifier are required")
	}

	endpoint, err := url.JoinPath(ss.cfg.Auth.ProviderURL, "auth", "v1", "token")
	if err != nil {
		return nil, err
	}
	endpoint += "?grant_type=pkce"

	body, err := json.Marshal(pkceExchangeRequest{AuthCode: code, CodeVerifier: verifier})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", ss.cfg.Auth.AnonKey)

	resp, err := ss.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code exchange request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("code exchange failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var session structs.ProviderSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode code exchange response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, errors.New("code exchange returned no access token")
	}

	return &session, nil
}

// EstablishSession verifies the provider session's access token and writes the session cookies.
func (ss *SessionService) EstablishSession(ctx context.Context, ps *structs.ProviderSession, w http.ResponseWriter) (*structs.Session, error) {
	if ps == nil || ps.AccessToken == "" {
		return nil, lib.NewValidationError("session", "access_token is required")
	}

	session, err := ss.VerifyToken(ctx, ps.AccessToken)
	if err != nil {
		return nil, err
	}

	expiry := lib.TokenExpiry(ps, ss.now())
	lib.SetCookie(lib.AccessCookieName, ps.AccessToken, expiry, w)
	if ps.RefreshToken != "" {
		lib.SetCookie(lib.RefreshCookieName, ps.RefreshToken, ss.now().Add(ss.cfg.Auth.RefreshExpiry), w)
	}

	return session, nil
}

// ClearSessionCookies removes every auth cookie.
func (ss *SessionService) ClearSessionCookies(w http.ResponseWriter) {
	lib.ClearCookie(lib.AccessCookieName, w)
	lib.ClearCookie(lib.RefreshCookieName, w)
	lib.ClearCookie(lib.CodeVerifierCookieName, w)
}
