package visitors_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/models"
	"folio/internal/testsupport"
	"folio/internal/visitors"
)

func TestUpsert(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	created, err := visitors.Upsert(db, logger, "abc123", visitors.Attributes{
		Country: "DE",
		City:    "Berlin",
		Device:  "desktop",
		Browser: "Firefox",
	}, first)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, created.ID, 26)
	assert.WithinDuration(t, first, created.FirstSeenAt, time.Second)
	assert.WithinDuration(t, first, created.LastSeenAt, time.Second)
	assert.Equal(t, "DE", models.Deref(created.Country))
	assert.Nil(t, created.Region)
	assert.Nil(t, created.OS)

	t.Run("empty values keep stored attributes", func(t *testing.T) {
		later := first.Add(2 * time.Hour)
		updated, err := visitors.Upsert(db, logger, "abc123", visitors.Attributes{
			Country: "",
			Browser: "Chrome",
			OS:      "Linux",
		}, later)
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.WithinDuration(t, first, updated.FirstSeenAt, time.Second)
		assert.WithinDuration(t, later, updated.LastSeenAt, time.Second)
		assert.Equal(t, "DE", models.Deref(updated.Country))
		assert.Equal(t, "Berlin", models.Deref(updated.City))
		assert.Equal(t, "desktop", models.Deref(updated.Device))
		assert.Equal(t, "Chrome", models.Deref(updated.Browser))
		assert.Equal(t, "Linux", models.Deref(updated.OS))
	})

	t.Run("one row per fingerprint", func(t *testing.T) {
		_, err := visitors.Upsert(db, logger, "other", visitors.Attributes{}, first)
		require.NoError(t, err)

		var count int64
		db.Model(&models.Visitor{}).Where("fingerprint = ?", "abc123").Count(&count)
		assert.Equal(t, int64(1), count)

		db.Model(&models.Visitor{}).Count(&count)
		assert.Equal(t, int64(2), count)
	})
}

func TestFindByFingerprintMissing(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)

	_, err := visitors.FindByFingerprint(dbManager.GetConnection(), "nope")
	assert.Error(t, err)
}
