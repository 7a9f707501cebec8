package services

import (
	"testing"
	"yeshivashop_server/config"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encryptedProfile(t *testing.T, ps *ProfileService) *tables.Profile {
	t.Helper()
	address, err := lib.Encrypt("12 Rechov HaRav Kook, Bnei Brak", ps.key)
	require.NoError(t, err)
	phone, err := lib.Encrypt("+972 3 555 0101", ps.key)
	require.NoError(t, err)

	return &tables.Profile{
		ID:                 uuid.New(),
		Email:              "gabai@example.org",
		FullName:           "Reb Moshe",
		InstitutionName:    "Yeshivat Ohr",
		InstitutionAddress: address,
		ResponsiblePhone:   phone,
	}
}

func TestAdminOrderProfilesAreDecrypted(t *testing.T) {
	logger := testLogger()
	profiles, err := NewProfileService(logger, config.Load(), nil, nil)
	require.NoError(t, err)
	admin := NewAdminService(logger, nil, nil, profiles)

	order := &tables.Order{ID: uuid.New(), Profile: encryptedProfile(t, profiles)}
	require.NoError(t, admin.revealProfile(order))

	assert.Equal(t, "12 Rechov HaRav Kook, Bnei Brak", order.Profile.InstitutionAddress)
	assert.Equal(t, "+972 3 555 0101", order.Profile.ResponsiblePhone)
	assert.Equal(t, "Yeshivat Ohr", order.Profile.InstitutionName)

	require.NoError(t, admin.revealProfile(&tables.Order{ID: uuid.New()}))
}

func TestAdminOrderProfilesBlankedWithoutKey(t *testing.T) {
	logger := testLogger()
	profiles, err := NewProfileService(logger, config.Load(), nil, nil)
	require.NoError(t, err)
	admin := NewAdminService(logger, nil, nil, nil)

	order := &tables.Order{ID: uuid.New(), Profile: encryptedProfile(t, profiles)}
	require.NoError(t, admin.revealProfile(order))

	assert.Empty(t, order.Profile.InstitutionAddress)
	assert.Empty(t, order.Profile.ResponsiblePhone)
	assert.Equal(t, "Reb Moshe", order.Profile.FullName)
}

func TestAdminOrderProfileWithRotatedKeyFails(t *testing.T) {
	logger := testLogger()
	cfg := config.Load()
	profiles, err := NewProfileService(logger, cfg, nil, nil)
	require.NoError(t, err)

	other := *cfg
	other.Encryption = &structs.EncryptionConfig{Secret: "rotated secret"}
	rotated, err := NewProfileService(logger, &other, nil, nil)
	require.NoError(t, err)

	order := &tables.Order{ID: uuid.New(), Profile: encryptedProfile(t, rotated)}
	err = NewAdminService(logger, nil, nil, profiles).revealProfile(order)
	assert.Error(t, err)
}
