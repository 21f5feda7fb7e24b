package sheets

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Veraticus/dear-diary/internal/model"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID: "id", ClientSecret: "secret", RefreshToken: "token",
				BatchSize: 100, RetryAttempts: 3, RetryDelay: time.Second,
			},
		},
		{
			name:   "valid service account config",
			config: Config{ServiceAccountPath: "/path/to/key.json", BatchSize: 100},
		},
		{
			name:    "partial oauth credentials",
			config:  Config{ClientID: "id", RefreshToken: "token", BatchSize: 100},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID: "id", ClientSecret: "secret", RefreshToken: "token",
				ServiceAccountPath: "/k.json", BatchSize: 100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name:    "invalid batch size",
			config:  Config{ServiceAccountPath: "/k.json"},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retry delay",
			config:  Config{ServiceAccountPath: "/k.json", BatchSize: 1, RetryDelay: -time.Second},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultSpreadsheetName, cfg.SpreadsheetName)
	assert.Positive(t, cfg.BatchSize)
	assert.True(t, cfg.EnableFormatting)
	// Defaults alone carry no credentials.
	assert.Error(t, cfg.Validate())
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	target := 500.0

	goals := []model.Goal{
		{
			ID: 2, Text: "I want to save $500 by June", Status: model.GoalInProgress,
			SubCategory: "Savings/Finance", TargetAmount: &target, CurrentAmount: 125,
			DueDate: &due, CreatedAt: created, UpdatedAt: created,
		},
		{ID: 1, Text: "run a marathon", Status: model.GoalCompleted, CreatedAt: created, UpdatedAt: created},
	}
	entries := []model.Entry{
		{
			ID: 1, Text: "older", MainCategory: model.CategoryHealth, Success: true,
			ConfidenceScores: map[string]float64{"Health": 0.5}, Tags: []string{"Health"},
			CreatedAt: created,
		},
		{
			ID: 2, Text: "newer", MainCategory: model.CategoryUnknown, ErrorMessage: "boom",
			Tags: []string{"Unknown"}, CreatedAt: created.Add(time.Hour),
		},
	}
	return BuildReport(goals, entries, map[int64]int{2: 3}, created)
}

func TestBuildReport(t *testing.T) {
	report := sampleReport(t)

	require.Len(t, report.Goals, 2)
	assert.Equal(t, 3, report.Goals[0].Links)
	assert.Zero(t, report.Goals[1].Links)
	assert.False(t, report.Goals[1].Target.Valid)
	assert.Equal(t, 1, report.Completed())

	pct, ok := report.Goals[0].Progress()
	require.True(t, ok)
	assert.Equal(t, "25", pct.String())
	_, ok = report.Goals[1].Progress()
	assert.False(t, ok)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, int64(2), report.Entries[0].ID, "newest entry first")
	assert.InDelta(t, 0.5, report.Entries[1].Confidence, 1e-9)
}

func TestGoalValues(t *testing.T) {
	values := goalValues(sampleReport(t))

	require.Len(t, values, 5)
	assert.Equal(t, []any{"Goals", "2026-03-01 09:30", "Completed", 1, "Total", 2}, values[0])
	assert.Empty(t, values[1])
	assert.Equal(t, goalHeader, values[2])
	assert.Equal(t, []any{
		int64(2), "I want to save $500 by June", "in_progress", "Savings/Finance",
		"500.00", "125.00", "25", "2026-06-30", 3, "2026-03-01 09:30", "2026-03-01 09:30",
	}, values[3])
	assert.Equal(t, "", values[4][4], "no target")
	assert.Equal(t, "", values[4][7], "no due date")
}

func TestEntryValues(t *testing.T) {
	values := entryValues(sampleReport(t))

	require.Len(t, values, 3)
	assert.Equal(t, entryHeader, values[0])
	assert.Equal(t, []any{"2026-03-01 10:30", "Unknown", "", "", "0.000", "Unknown", "no", "newer", "boom"}, values[1])
	assert.Equal(t, "0.500", values[2][4])
	assert.Equal(t, "yes", values[2][6])
}

func TestFormatRequests(t *testing.T) {
	reqs := formatRequests(42, 3, len(goalHeader))
	require.Len(t, reqs, 3)
	assert.Equal(t, int64(2), reqs[0].RepeatCell.Range.StartRowIndex)
	assert.Equal(t, int64(3), reqs[1].UpdateSheetProperties.Properties.GridProperties.FrozenRowCount)
	assert.Equal(t, int64(42), reqs[2].AutoResizeDimensions.Dimensions.SheetId)
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
	require.NoError(t, saveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	// A valid token is returned without contacting Google.
	got, err := GetOrCreateToken(context.Background(), OAuth2Config{TokenFile: path})
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter("sheet-1")
	assert.Nil(t, m.LastReport())

	report := sampleReport(t)
	id, err := m.Write(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)
	assert.Same(t, report, m.LastReport())
}
