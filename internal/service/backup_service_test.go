package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sundaytable/internal/livesync"
	"sundaytable/internal/models"
)

func populatedService(t *testing.T) (*DinnerService, *BackupService) {
	t.Helper()
	svc, db, _ := newTestService(t, DinnerOptions{})
	ctx := context.Background()

	_, err := svc.ToggleAvailability(ctx, "2025-03-02", "f1")
	require.NoError(t, err)
	_, err = svc.ToggleAvailability(ctx, "2025-03-02", "f2")
	require.NoError(t, err)
	_, err = svc.ToggleAvailability(ctx, "2025-03-02", "f2")
	require.NoError(t, err)
	_, _, err = svc.ConfirmDinner(ctx, "2025-03-02")
	require.NoError(t, err)
	_, err = svc.SaveMealLog(ctx, "2025-03-02", models.MealLog{What: "Biryani", Rating: 5, How: models.HowCooked})
	require.NoError(t, err)
	_, err = svc.ToggleAvailability(ctx, "2025-03-09", "f3")
	require.NoError(t, err)

	return svc, NewBackupService(db)
}

func TestBackupRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			_, source := populatedService(t)

			var buf bytes.Buffer
			require.NoError(t, source.ExportToWriter(ctx, &buf, format))

			targetSvc := NewDinnerService(openTestDB(t), livesync.NewHub(8), DinnerOptions{})
			target := NewBackupService(targetSvc.db)
			result, err := target.ImportFromReader(ctx, &buf, format, false)
			require.NoError(t, err)
			assert.True(t, result.ConfigCreated)
			assert.Equal(t, 2, result.DinnersImported)

			cfg, err := targetSvc.Config(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, cfg.LastHostIndex)
			assert.Len(t, cfg.Families, 3)

			d, err := targetSvc.Dinner(ctx, "2025-03-02")
			require.NoError(t, err)
			assert.True(t, d.Confirmed)
			assert.Equal(t, "f1", d.HostID)
			assert.Equal(t, []string{"f1"}, d.Available())
			assert.Equal(t, []string{"f2"}, d.Declined())
			require.NotNil(t, d.MealLog)
			assert.Equal(t, "Biryani", d.MealLog.What)

			// the restored rotation continues where it left off
			next, _, err := targetSvc.ConfirmDinner(ctx, "2025-03-09")
			require.NoError(t, err)
			assert.Equal(t, "f2", next.HostID)
		})
	}
}

func TestImportWithoutClearKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	svc, backups := populatedService(t)

	data, err := backups.Export(ctx)
	require.NoError(t, err)
	data.Dinners = append(data.Dinners, models.Dinner{Date: "2025-04-06", Responses: map[string]models.Availability{"f1": models.Declined}})
	data.Config.LastHostIndex = 2

	result, err := backups.Import(ctx, data, false)
	require.NoError(t, err)
	assert.False(t, result.ConfigCreated)
	assert.Equal(t, 1, result.DinnersImported)
	assert.Equal(t, 2, result.DinnersSkipped)

	cfg, err := svc.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.LastHostIndex)
}

func TestImportWithClearReplacesEverything(t *testing.T) {
	ctx := context.Background()
	svc, backups := populatedService(t)

	data := &BackupData{
		Version: backupVersion,
		Config:  models.NewRotationConfig([]models.Family{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, []string{"b", "a"}),
	}
	require.NoError(t, data.Validate())

	result, err := backups.Import(ctx, data, true)
	require.NoError(t, err)
	assert.True(t, result.ConfigCreated)

	cfg, err := svc.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, cfg.HostRotation)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDecodeBackupRejectsInconsistentData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no families", body: `{"config":{"families":[],"hostRotation":[]}}`},
		{name: "unknown rotation id", body: `{"config":{"families":[{"id":"a","name":"A"}],"hostRotation":["z"],"lastHostIndex":-1}}`},
		{name: "bad date", body: `{"config":{"families":[{"id":"a","name":"A"}],"hostRotation":["a"],"lastHostIndex":-1},"dinners":[{"date":"2025-13-01"}]}`},
		{name: "confirmed without host", body: `{"config":{"families":[{"id":"a","name":"A"}],"hostRotation":["a"],"lastHostIndex":-1},"dinners":[{"date":"2025-03-02","confirmed":true}]}`},
		{name: "unknown responder", body: `{"config":{"families":[{"id":"a","name":"A"}],"hostRotation":["a"],"lastHostIndex":-1},"dinners":[{"date":"2025-03-02","responses":{"q":"available"}}]}`},
		{name: "bad availability", body: `{"config":{"families":[{"id":"a","name":"A"}],"hostRotation":["a"],"lastHostIndex":-1},"dinners":[{"date":"2025-03-02","responses":{"a":"maybe"}}]}`},
		{name: "index out of range", body: `{"config":{"families":[{"id":"a","name":"A"}],"hostRotation":["a"],"lastHostIndex":3}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBackup(strings.NewReader(tt.body), FormatJSON)
			assert.Error(t, err)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatForPath("backup.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("backup.json"))
	assert.Equal(t, FormatJSON, FormatForPath("backup"))
}
