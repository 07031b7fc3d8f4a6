package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/models"
	"folio/internal/sessions"
	"folio/internal/testsupport"
)

func TestResolve(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	start := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	visitor := testsupport.CreateTestVisitor(t, db, "fp-resolve", start)

	ctx := sessions.StartContext{
		Referrer:  "https://www.linkedin.com/feed/",
		UTMSource: "ln",
		Path:      "/",
	}

	first, created, err := sessions.Resolve(db, logger, visitor.ID, ctx, start, sessions.DefaultWindow)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "/", models.Deref(first.EntryPage))
	assert.Equal(t, "ln", models.Deref(first.UTMSource))
	assert.Equal(t, "https://www.linkedin.com/feed/", models.Deref(first.Referrer))
	assert.Nil(t, first.UTMMedium)
	assert.Nil(t, first.EndedAt)

	t.Run("resumes inside the window and ignores new attribution", func(t *testing.T) {
		again, created, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{
			Referrer:  "https://google.com",
			UTMSource: "newsletter",
			Path:      "/projects",
		}, start.Add(29*time.Minute), sessions.DefaultWindow)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "ln", models.Deref(again.UTMSource))
		assert.Equal(t, "/", models.Deref(again.EntryPage))
	})

	t.Run("opens a new session once the start is outside the window", func(t *testing.T) {
		later, created, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{Path: "/blog"}, start.Add(31*time.Minute), sessions.DefaultWindow)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, later.ID)
		assert.Equal(t, "/blog", models.Deref(later.EntryPage))
		assert.Nil(t, later.Referrer)
	})

	t.Run("window is measured from session start", func(t *testing.T) {
		// activity at +35m resumes the session opened at +31m even though
		// the visitor has been active for longer than the window
		resumed, created, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{}, start.Add(35*time.Minute), sessions.DefaultWindow)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "/blog", models.Deref(resumed.EntryPage))
	})
}

func TestResolveSkipsEndedSessions(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	visitor := testsupport.CreateTestVisitor(t, db, "fp-ended", now.Add(-time.Hour))

	ended := now.Add(-5 * time.Minute)
	closed := models.Session{VisitorID: visitor.ID, StartedAt: now.Add(-10 * time.Minute), EndedAt: &ended}
	require.NoError(t, db.Create(&closed).Error)

	session, created, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{Path: "/"}, now, sessions.DefaultWindow)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, closed.ID, session.ID)
}

func TestResolvePicksMostRecent(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	visitor := testsupport.CreateTestVisitor(t, db, "fp-recent", now.Add(-time.Hour))

	older := models.Session{VisitorID: visitor.ID, StartedAt: now.Add(-20 * time.Minute), EntryPage: models.StringPtr("/old")}
	newer := models.Session{VisitorID: visitor.ID, StartedAt: now.Add(-5 * time.Minute), EntryPage: models.StringPtr("/new")}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	session, created, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{}, now, sessions.DefaultWindow)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, newer.ID, session.ID)
}

func TestSetExitPage(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	visitor := testsupport.CreateTestVisitor(t, db, "fp-exit", now)
	session, _, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{Path: "/"}, now, sessions.DefaultWindow)
	require.NoError(t, err)

	require.NoError(t, sessions.SetExitPage(db, logger, session.ID, "/contact"))

	var stored models.Session
	require.NoError(t, db.First(&stored, "id = ?", session.ID).Error)
	assert.Equal(t, "/contact", models.Deref(stored.ExitPage))
	assert.Equal(t, "/", models.Deref(stored.EntryPage))
}

func TestCloseExpired(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	visitor := testsupport.CreateTestVisitor(t, db, "fp-sweep", now.Add(-2*time.Hour))

	stale := models.Session{VisitorID: visitor.ID, StartedAt: now.Add(-45 * time.Minute)}
	fresh := models.Session{VisitorID: visitor.ID, StartedAt: now.Add(-10 * time.Minute)}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)

	closed, err := sessions.CloseExpired(db, logger, now, sessions.DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	var reloaded models.Session
	require.NoError(t, db.First(&reloaded, "id = ?", stale.ID).Error)
	require.NotNil(t, reloaded.EndedAt)
	assert.WithinDuration(t, stale.StartedAt.Add(sessions.DefaultWindow), *reloaded.EndedAt, time.Second)

	var untouched models.Session
	require.NoError(t, db.First(&untouched, "id = ?", fresh.ID).Error)
	assert.Nil(t, untouched.EndedAt)

	t.Run("is idempotent", func(t *testing.T) {
		closed, err := sessions.CloseExpired(db, logger, now, sessions.DefaultWindow)
		require.NoError(t, err)
		assert.Equal(t, int64(0), closed)
	})

	t.Run("does not change resolution", func(t *testing.T) {
		session, created, err := sessions.Resolve(db, logger, visitor.ID, sessions.StartContext{}, now, sessions.DefaultWindow)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, fresh.ID, session.ID)
	})
}
