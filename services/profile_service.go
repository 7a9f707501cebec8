package services

import (
	"context"
	"fmt"
	"time"
	"yeshivashop_server/database"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const profileKeyPrefix = "profile:"

// ProfileService owns the profiles table, the source of truth for roles.
// Institution address and responsible phone are encrypted at rest.
type ProfileService struct {
	logger *gecho.Logger
	cfg    *structs.Config
	db     bun.IDB
	cache  Cache
	key    []byte
}

func NewProfileService(logger *gecho.Logger, cfg *structs.Config, db bun.IDB, cache Cache) (*ProfileService, error) {
	key, err := lib.DeriveKey(cfg.Encryption.Secret)
	if err != nil {
		return nil, fmt.Errorf("profile encryption key: %w", err)
	}

	return &ProfileService{
		logger: logger,
		cfg:    cfg,
		db:     db,
		cache:  cache,
		key:    key,
	}, nil
}

func profileKey(id uuid.UUID) string {
	return profileKeyPrefix + id.String()
}

// GetProfile returns the decrypted profile, or nil when the user has none.
func (ps *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*tables.Profile, error) {
	profile, err := ps.loadProfile(ctx, userID)
	if err != nil || profile == nil {
		return nil, err
	}
	return ps.decrypt(profile)
}

// loadProfile reads the stored (encrypted) row through the cache.
func (ps *ProfileService) loadProfile(ctx context.Context, userID uuid.UUID) (*tables.Profile, error) {
	if ps.cache != nil {
		cached, err := getJSON[tables.Profile](ctx, ps.cache, profileKey(userID))
		if err != nil {
			ps.logger.Warn("Profile cache read failed", gecho.Field("user_id", userID), gecho.Field("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	profile, err := database.FindByID[tables.Profile](ctx, ps.db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	if ps.cache != nil {
		if err := setJSON(ctx, ps.cache, profileKey(userID), profile, ps.cfg.Auth.ProfileTTL); err != nil {
			ps.logger.Warn("Profile cache write failed", gecho.Field("user_id", userID), gecho.Field("error", err))
		}
	}

	return profile, nil
}

// IsAdmin reports whether the user's profile carries the admin role.
func (ps *ProfileService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, err := ps.loadProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.IsAdmin(), nil
}

// UpsertProfile writes the caller's contact metadata. Role is never taken
// from the request; new rows get the column default.
func (ps *ProfileService) UpsertProfile(ctx context.Context, session *structs.Session, req *structs.ProfileRequest) (*tables.Profile, error) {
	address, err := lib.Encrypt(req.InstitutionAddress, ps.key)
	if err != nil {
		return nil, fmt.Errorf("encrypt address: %w", err)
	}
	phone, err := lib.Encrypt(req.ResponsiblePhone, ps.key)
	if err != nil {
		return nil, fmt.Errorf("encrypt phone: %w", err)
	}

	profile := &tables.Profile{
		ID:                 session.UserID,
		Email:              session.Email,
		Role:               tables.RoleCustomer,
		FullName:           req.FullName,
		InstitutionName:    req.InstitutionName,
		InstitutionAddress: address,
		ResponsibleName:    req.ResponsibleName,
		ResponsiblePhone:   phone,
		UpdatedAt:          time.Now(),
	}

	_, err = ps.db.NewInsert().
		Model(profile).
		On("CONFLICT (id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("full_name = EXCLUDED.full_name").
		Set("institution_name = EXCLUDED.institution_name").
		Set("institution_address = EXCLUDED.institution_address").
		Set("responsible_name = EXCLUDED.responsible_name").
		Set("responsible_phone = EXCLUDED.responsible_phone").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	ps.invalidate(ctx, session.UserID)

	return ps.decrypt(profile)
}

// ListProfiles returns every profile, newest first.
func (ps *ProfileService) ListProfiles(ctx context.Context) ([]tables.Profile, error) {
	profiles, err := database.Query[tables.Profile](ps.db).OrderBy("pr.created_at", database.DESC).All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range profiles {
		decrypted, err := ps.decrypt(&profiles[i])
		if err != nil {
			return nil, err
		}
		profiles[i] = *decrypted
	}
	return profiles, nil
}

// DeleteProfile removes another user's profile. Admins cannot delete themselves.
func (ps *ProfileService) DeleteProfile(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return lib.NewConstraintError("user", "you cannot delete your own account")
	}

	deleted, err := database.Query[tables.Profile](ps.db).Where("pr.id", userID).Delete(ctx)
	if err != nil {
		return lib.MapPgError(err)
	}
	if deleted == 0 {
		return lib.ErrNotFound
	}

	ps.invalidate(ctx, userID)
	return nil
}

func (ps *ProfileService) invalidate(ctx context.Context, userID uuid.UUID) {
	if ps.cache == nil {
		return
	}
	if err := ps.cache.Delete(ctx, profileKey(userID)); err != nil {
		ps.logger.Warn("Failed to invalidate profile cache", gecho.Field("user_id", userID), gecho.Field("error", err))
	}
}

func (ps *ProfileService) decrypt(stored *tables.Profile) (*tables.Profile, error) {
	out := *stored

	address, err := lib.Decrypt(stored.InstitutionAddress, ps.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt address: %w", err)
	}
	phone, err := lib.Decrypt(stored.ResponsiblePhone, ps.key)
	if err != nil {
		return nil, fmt.Errorf("decrypt phone: %w", err)
	}

	out.InstitutionAddress = address
	out.ResponsiblePhone = phone
	return &out, nil
}
