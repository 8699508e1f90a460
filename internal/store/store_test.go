package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horizonetudes/authclient/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		Email:     "claire@example.com",
		FirstName: "Claire",
		LastName:  "Martin",
		Role:      models.RoleUser,
		IsActive:  true,
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	started := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.Save(&PersistedSession{
		User:             testUser(),
		SessionStartedAt: started,
	}))

	ps, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, "claire@example.com", ps.User.Email)
	assert.True(t, ps.SessionStartedAt.Equal(started))
	assert.Equal(t, 1, ps.Version)
}

func TestStore_ClearRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, st.Save(&PersistedSession{
		User:             testUser(),
		SessionStartedAt: time.Now(),
	}))

	require.NoError(t, st.Clear())

	_, err = st.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	// The single file is gone, so there is nothing partial to leak.
	_, err = os.Stat(filepath.Join(dir, "session.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_ClearIdempotent(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Clear())
	require.NoError(t, st.Clear())
}

func TestStore_RejectsPartialRecord(t *testing.T) {
	dir := t.TempDir()
	st, err := NewStore(dir)
	require.NoError(t, err)

	// A record without a profile must read back as no session at all.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"),
		[]byte(`{"version":1,"session_started_at":"2026-01-02T15:04:05Z"}`), 0600))

	_, err = st.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
