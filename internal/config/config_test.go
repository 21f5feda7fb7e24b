package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("DIARY_TEST_DIR", "/srv/diary")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde", in: "~", want: home},
		{name: "tilde path", in: "~/notes/diary.db", want: filepath.Join(home, "notes/diary.db")},
		{name: "env var", in: "$DIARY_TEST_DIR/diary.db", want: "/srv/diary/diary.db"},
		{name: "plain", in: "/tmp/diary.db", want: "/tmp/diary.db"},
		{name: "tilde not leading", in: "/a/~/b", want: "/a/~/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, model.DefaultUserID, cfg.User())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.NotContains(t, cfg.Database.Path, "$HOME")
	assert.Equal(t, zeroshot.BackendKeyword, cfg.Pipeline.Backend)

	cls := cfg.ClassifierSettings()
	assert.InDelta(t, 0.25, cls.MinSecondaryConfidence, 1e-9)
	assert.InDelta(t, 0.35, cls.MinSubConfidence, 1e-9)
	assert.Equal(t, 5000, cls.MaxEntryLength)

	zs := cfg.ZeroShot()
	assert.Equal(t, zeroshot.DefaultHypothesisTemplate, zs.HypothesisTemplate)
	assert.Equal(t, time.Hour, zs.LLM.CacheTTL)
	require.NotNil(t, zs.ONNX.EntailmentIndex)
	assert.Equal(t, 2, *zs.ONNX.EntailmentIndex)

	tax, err := cfg.Taxonomy()
	require.NoError(t, err)
	assert.Len(t, tax.Categories(), 9)

	// Sheets credentials are not required to load.
	assert.Error(t, cfg.Sheets.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		set     map[string]any
		name    string
		wantKey string
	}{
		{name: "driver", set: map[string]any{"database.driver": "postgres"}, wantKey: "database.driver"},
		{name: "empty path", set: map[string]any{"database.path": ""}, wantKey: "database.path"},
		{name: "threshold", set: map[string]any{"classifier.min_sub_confidence": 1.5}, wantKey: "classifier.minsubconfidence"},
		{name: "max length", set: map[string]any{"classifier.max_entry_length": 0}, wantKey: "classifier.maxentrylength"},
		{name: "backend", set: map[string]any{"pipeline.backend": "magic"}, wantKey: "pipeline.backend"},
		{name: "onnx without model", set: map[string]any{"pipeline.backend": "onnx"}, wantKey: "pipeline.modelpath"},
		{name: "llm without key", set: map[string]any{"pipeline.backend": "llm"}, wantKey: "pipeline.llmapikey"},
		{name: "template placeholder", set: map[string]any{"pipeline.hypothesis_template": "about"}, wantKey: "pipeline.hypothesistemplate"},
		{name: "entailment index", set: map[string]any{"pipeline.onnx.entailment_index": 3}, wantKey: "pipeline.entailmentindex"},
		{name: "log level", set: map[string]any{"logging.level": "loud"}, wantKey: "logging.level"},
		{name: "user", set: map[string]any{"user_id": 0}, wantKey: "userid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			for k, val := range tt.set {
				v.Set(k, val)
			}

			_, err := Load(v)
			require.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestLoad_Backends(t *testing.T) {
	v := newViper(t)
	v.Set("pipeline.backend", "ONNX")
	v.Set("pipeline.onnx.model_path", "~/models/model.onnx")
	v.Set("pipeline.onnx.tokenizer_path", "/models/tokenizer.json")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, zeroshot.BackendONNX, cfg.Pipeline.Backend)
	assert.NotContains(t, cfg.ZeroShot().ONNX.ModelPath, "~")

	v.Set("pipeline.onnx.entailment_index", 0)
	cfg, err = Load(v)
	require.NoError(t, err)
	require.NotNil(t, cfg.ZeroShot().ONNX.EntailmentIndex)
	assert.Equal(t, 0, *cfg.ZeroShot().ONNX.EntailmentIndex, "entailment first is a valid layout")

	v = newViper(t)
	v.Set("pipeline.backend", "llm")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.ZeroShot().LLM.APIKey)
}

func TestLoad_SheetsFromEnvironment(t *testing.T) {
	v := newViper(t)
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/sa.json")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "abc123")
	v.Set("sheets.batch_size", 50)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.Sheets.ServiceAccountPath)
	assert.Equal(t, "abc123", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, 50, cfg.Sheets.BatchSize)
	assert.NoError(t, cfg.Sheets.Validate())

	// Viper wins over the environment.
	v.Set("sheets.spreadsheet_id", "from-config")
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.Sheets.SpreadsheetID)
}

func TestTaxonomyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: Goals
    description: An aspiration
    sub_categories: [Travel]
  - name: Gratitude
    description: Thankfulness
`), 0o600))

	v := newViper(t)
	v.Set("taxonomy_file", path)
	cfg, err := Load(v)
	require.NoError(t, err)

	tax, err := cfg.Taxonomy()
	require.NoError(t, err)
	assert.Equal(t, []model.Category{model.CategoryGoals, model.CategoryGratitude}, tax.Categories())

	cfg.TaxonomyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Taxonomy()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
