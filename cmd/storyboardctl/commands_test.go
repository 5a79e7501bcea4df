package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"storyboard/internal/config"
	"storyboard/internal/models"
	"storyboard/internal/server"
	"storyboard/internal/storage"
	"storyboard/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sqliteOpener(t *testing.T, db *gorm.DB) opener {
	t.Helper()
	cfg := &config.Config{
		Env:                     "test",
		JWTSecret:               "test-secret-that-is-at-least-32-characters",
		JWTIssuer:               "storyboard",
		JWTAudience:             "storyboard-api",
		JWTTTLHours:             1,
		MaxUploadMB:             5,
		ReportRateLimit:         5,
		ReportRateWindowSeconds: 60,
	}
	return func() (*deps, error) {
		srv, err := server.NewServerWithDeps(cfg, db, nil, storage.NewStore(afero.NewMemMapFs(), "/uploads"))
		if err != nil {
			return nil, err
		}
		return &deps{srv: srv, close: func() {}}, nil
	}
}

func execute(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLockAndUnlockCommands(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, false)
	open := sqliteOpener(t, db)
	id := strconv.FormatUint(uint64(user.ID), 10)

	out, err := execute(t, open, "lock", id)
	require.NoError(t, err)
	assert.Contains(t, out, "lock: user "+id+" done")

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.Equal(models.LockedForever))

	_, err = execute(t, open, "unlock", id)
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Nil(t, stored.LockedUntil)
}

func TestPromoteAndDemoteCommands(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, false)
	open := sqliteOpener(t, db)
	id := strconv.FormatUint(uint64(user.ID), 10)

	_, err := execute(t, open, "promote", id)
	require.NoError(t, err)
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, stored.IsAdmin)

	_, err = execute(t, open, "demote", id)
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.False(t, stored.IsAdmin)
}

func TestDeleteUserCommand(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, false)
	testutil.CreatePhoto(t, db, user.ID, false)
	open := sqliteOpener(t, db)

	out, err := execute(t, open, "delete-user", strconv.FormatUint(uint64(user.ID), 10))
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 photos")

	var n int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestTokenCommand(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, false)
	open := sqliteOpener(t, db)

	out, err := execute(t, open, "token", strconv.FormatUint(uint64(user.ID), 10))
	require.NoError(t, err)

	d, err := open()
	require.NoError(t, err)
	got, err := d.srv.Tokens().Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, user.ID, got)

	_, err = execute(t, open, "token", "99999")
	assert.Error(t, err)
}

func TestUserCommands_RejectBadIDs(t *testing.T) {
	open := sqliteOpener(t, testutil.NewSQLiteDB(t))

	for _, args := range [][]string{
		{"lock", "abc"},
		{"lock", "0"},
		{"unlock"},
		{"delete-user", "-3"},
		{"lock", "99999"},
	} {
		_, err := execute(t, open, args...)
		assert.Error(t, err, args)
	}
}

func TestMigrateCommand(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	out, err := execute(t, sqliteOpener(t, db), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")
}

func TestSeedCommand_ManyReportsWithoutRedis(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	preset := filepath.Join(t.TempDir(), "many-reports.yaml")
	require.NoError(t, os.WriteFile(preset, []byte(
		"users: 12\nphotosPerUser: 1\nboardsPerUser: 0\nreports: 100\nskipBcrypt: true\n"), 0o600))

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := execute(t, sqliteOpener(t, db), "seed", "--preset", preset)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "Seeded")
	case <-time.After(30 * time.Second):
		t.Fatal("seed did not finish; moderation events are not being drained")
	}

	var reports int64
	require.NoError(t, db.Model(&models.Report{}).Count(&reports).Error)
	assert.Greater(t, reports, int64(64))
}
