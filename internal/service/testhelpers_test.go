package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sundaytable/internal/database"
	"sundaytable/internal/livesync"
	"sundaytable/internal/models"
)

// 2025-03-01 is a Saturday, so the window opens on 2025-03-02
var testNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), ""))
	return db
}

func newTestService(t *testing.T, opts DinnerOptions) (*DinnerService, *database.DB, *livesync.Hub) {
	t.Helper()
	db := openTestDB(t)
	hub := livesync.NewHub(64)
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	svc := NewDinnerService(db, hub, opts)
	_, err := svc.EnsureConfig(context.Background(), models.DefaultFamilies, models.DefaultHostRotation)
	require.NoError(t, err)
	return svc, db, hub
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) NotifyHost(_ context.Context, host models.Family, dinner models.Dinner) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, string(dinner.Date)+":"+host.ID)
	return n.err
}
