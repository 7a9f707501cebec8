package middleware

import (
	"context"
	"time"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// SessionVerifier turns a bearer token into a verified session.
type SessionVerifier interface {
	VerifyToken(ctx context.Context, token string) (*structs.Session, error)
}

// RoleResolver answers whether a user holds the admin role.
type RoleResolver interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Limiter counts hits per key within a window.
type Limiter interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int, error)
}

type Middleware struct {
	cfg      *structs.Config
	logger   *gecho.Logger
	sessions SessionVerifier
	roles    RoleResolver
	limiter  Limiter
}

func NewMiddleware(cfg *structs.Config, logger *gecho.Logger, sessions SessionVerifier, roles RoleResolver, limiter Limiter) *Middleware {
	return &Middleware{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		roles:    roles,
		limiter:  limiter,
	}
}
