package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Veraticus/dear-diary/internal/classifier"
	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
	"github.com/Veraticus/dear-diary/internal/sheets"
	"github.com/Veraticus/dear-diary/internal/storage"
	"github.com/Veraticus/dear-diary/internal/zeroshot"
)

// DefaultDatabasePath is where the journal lives unless configured.
const DefaultDatabasePath = "$HOME/.local/share/diary/diary.db"

// Config is the typed application configuration.
type Config struct {
	TaxonomyFile string
	Database     DatabaseConfig
	Logging      LoggingConfig
	Pipeline     PipelineConfig
	Sheets       sheets.Config
	Classifier   ClassifierConfig
	UserID       int64 `validate:"gt=0"`
}

// DatabaseConfig selects the SQLite file and driver.
type DatabaseConfig struct {
	Path   string `validate:"required"`
	Driver string `validate:"oneof=sqlite3 sqlite"`
}

// LoggingConfig mirrors the --log-level and --log-format flags.
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=console json"`
}

// ClassifierConfig holds the acceptance thresholds.
type ClassifierConfig struct {
	MinSecondaryConfidence float64 `validate:"gte=0,lte=1"`
	MinSubConfidence       float64 `validate:"gte=0,lte=1"`
	MaxEntryLength         int     `validate:"gt=0"`
}

// PipelineConfig configures the zero-shot backend.
type PipelineConfig struct {
	Backend            string        `validate:"oneof=onnx llm keyword"`
	HypothesisTemplate string        `validate:"omitempty,contains={}"`
	ModelPath          string        `validate:"required_if=Backend onnx"`
	TokenizerPath      string        `validate:"required_if=Backend onnx"`
	LibraryPath        string
	LLMBaseURL         string        `validate:"omitempty,url"`
	LLMAPIKey          string        `validate:"required_if=Backend llm"`
	LLMModel           string
	MaxTokens          int           `validate:"gte=0"`
	EntailmentIndex    int           `validate:"gte=0,lte=2"`
	Temperature        float64       `validate:"gte=0,lte=2"`
	Timeout            time.Duration `validate:"gte=0"`
	CacheTTL           time.Duration `validate:"gte=0"`
	MaxAttempts        int           `validate:"gte=0"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("user_id", int64(model.DefaultUserID))
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.driver", storage.DriverCGo)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	cls := classifier.DefaultConfig()
	v.SetDefault("classifier.min_secondary_confidence", cls.MinSecondaryConfidence)
	v.SetDefault("classifier.min_sub_confidence", cls.MinSubConfidence)
	v.SetDefault("classifier.max_entry_length", cls.MaxEntryLength)

	v.SetDefault("pipeline.backend", zeroshot.BackendKeyword)
	v.SetDefault("pipeline.hypothesis_template", zeroshot.DefaultHypothesisTemplate)
	v.SetDefault("pipeline.onnx.max_tokens", 512)
	v.SetDefault("pipeline.onnx.entailment_index", 2)
	v.SetDefault("pipeline.llm.temperature", 0.0)
	v.SetDefault("pipeline.llm.timeout", 30*time.Second)
	v.SetDefault("pipeline.llm.cache_ttl", time.Hour)
	v.SetDefault("pipeline.llm.max_attempts", 3)

	sh := sheets.DefaultConfig()
	v.SetDefault("sheets.spreadsheet_name", sh.SpreadsheetName)
	v.SetDefault("sheets.timezone", sh.TimeZone)
	v.SetDefault("sheets.batch_size", sh.BatchSize)
	v.SetDefault("sheets.retry_attempts", sh.RetryAttempts)
	v.SetDefault("sheets.retry_delay", sh.RetryDelay)
	v.SetDefault("sheets.enable_formatting", sh.EnableFormatting)
}

// Load reads the configuration from v, falling back to the conventional
// environment variables for credentials, and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		UserID:       v.GetInt64("user_id"),
		TaxonomyFile: ExpandPath(v.GetString("taxonomy_file")),
		Database: DatabaseConfig{
			Path:   ExpandPath(v.GetString("database.path")),
			Driver: v.GetString("database.driver"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Classifier: ClassifierConfig{
			MinSecondaryConfidence: v.GetFloat64("classifier.min_secondary_confidence"),
			MinSubConfidence:       v.GetFloat64("classifier.min_sub_confidence"),
			MaxEntryLength:         v.GetInt("classifier.max_entry_length"),
		},
		Pipeline: PipelineConfig{
			Backend:            strings.ToLower(v.GetString("pipeline.backend")),
			HypothesisTemplate: v.GetString("pipeline.hypothesis_template"),
			ModelPath:          ExpandPath(v.GetString("pipeline.onnx.model_path")),
			TokenizerPath:      ExpandPath(v.GetString("pipeline.onnx.tokenizer_path")),
			LibraryPath:        ExpandPath(v.GetString("pipeline.onnx.library_path")),
			MaxTokens:          v.GetInt("pipeline.onnx.max_tokens"),
			EntailmentIndex:    v.GetInt("pipeline.onnx.entailment_index"),
			LLMBaseURL:         v.GetString("pipeline.llm.base_url"),
			LLMAPIKey:          firstNonEmpty(v.GetString("pipeline.llm.api_key"), os.Getenv("OPENAI_API_KEY")),
			LLMModel:           v.GetString("pipeline.llm.model"),
			Temperature:        v.GetFloat64("pipeline.llm.temperature"),
			Timeout:            v.GetDuration("pipeline.llm.timeout"),
			CacheTTL:           v.GetDuration("pipeline.llm.cache_ttl"),
			MaxAttempts:        v.GetInt("pipeline.llm.max_attempts"),
		},
		Sheets: loadSheets(v),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSheets reads viper keys first, then the GOOGLE_SHEETS_* variables.
func loadSheets(v *viper.Viper) sheets.Config {
	return sheets.Config{
		ClientID:           firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
		ClientSecret:       firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
		RefreshToken:       firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")),
		ServiceAccountPath: ExpandPath(firstNonEmpty(v.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))),
		SpreadsheetID:      firstNonEmpty(v.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")),
		SpreadsheetName:    v.GetString("sheets.spreadsheet_name"),
		TimeZone:           v.GetString("sheets.timezone"),
		BatchSize:          v.GetInt("sheets.batch_size"),
		RetryAttempts:      v.GetInt("sheets.retry_attempts"),
		RetryDelay:         v.GetDuration("sheets.retry_delay"),
		EnableFormatting:   v.GetBool("sheets.enable_formatting"),
	}
}

var validate = validator.New()

// Validate checks every section except Sheets, whose credentials are only
// needed by the export command.
func (c *Config) Validate() error {
	if err := validate.StructExcept(c, "Sheets"); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldKey(fe.Namespace()), fe.ActualTag()))
		}
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, ", "))
	}
	return nil
}

// fieldKey turns "Config.Pipeline.ModelPath" into "pipeline.modelpath".
func fieldKey(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

// ClassifierSettings converts the thresholds for the classifier package.
func (c *Config) ClassifierSettings() classifier.Config {
	return classifier.Config{
		MinSecondaryConfidence: c.Classifier.MinSecondaryConfidence,
		MinSubConfidence:       c.Classifier.MinSubConfidence,
		MaxEntryLength:         c.Classifier.MaxEntryLength,
	}
}

// ZeroShot converts the pipeline section for the zeroshot package.
func (c *Config) ZeroShot() zeroshot.Config {
	p := c.Pipeline
	entailment := p.EntailmentIndex
	return zeroshot.Config{
		Backend:            p.Backend,
		HypothesisTemplate: p.HypothesisTemplate,
		ONNX: zeroshot.ONNXConfig{
			ModelPath:       p.ModelPath,
			TokenizerPath:   p.TokenizerPath,
			LibraryPath:     p.LibraryPath,
			MaxTokens:       p.MaxTokens,
			EntailmentIndex: &entailment,
		},
		LLM: zeroshot.LLMConfig{
			BaseURL:     p.LLMBaseURL,
			APIKey:      p.LLMAPIKey,
			Model:       p.LLMModel,
			Temperature: p.Temperature,
			Timeout:     p.Timeout,
			CacheTTL:    p.CacheTTL,
			MaxAttempts: p.MaxAttempts,
		},
	}
}

// Taxonomy returns the configured taxonomy, or the built-in one when no
// override file is set.
func (c *Config) Taxonomy() (*model.Taxonomy, error) {
	if c.TaxonomyFile == "" {
		return model.DefaultTaxonomy(), nil
	}
	tax, err := model.LoadTaxonomyFile(c.TaxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: taxonomy: %w", common.ErrInvalidConfig, err)
	}
	return tax, nil
}

// User returns the configured journal owner.
func (c *Config) User() model.UserID {
	return model.UserID(c.UserID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
