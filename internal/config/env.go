package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskmarket/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskmarket/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

// ChainEnv configures the deterministic execution loop and the engine's
// record limits.
type ChainEnv struct {
	RoundInterval       time.Duration `envconfig:"ROUND_INTERVAL" default:"6s"`
	MaxTasksOwned       int           `envconfig:"MAX_TASKS_OWNED" default:"77"`
	MaxTitleLen         int           `envconfig:"MAX_TITLE_LEN" default:"256"`
	MaxSpecificationLen int           `envconfig:"MAX_SPECIFICATION_LEN" default:"8192"`
	MaxAttachmentsLen   int           `envconfig:"MAX_ATTACHMENTS_LEN" default:"8192"`
	MaxKeywordsLen      int           `envconfig:"MAX_KEYWORDS_LEN" default:"1024"`
	MaxFeedbackLen      int           `envconfig:"MAX_FEEDBACK_LEN" default:"1024"`
}

// LedgerEnv seeds the balance ledger on first boot. Genesis is a
// "account:amount,account:amount" map and is ignored once a persisted
// ledger exists.
type LedgerEnv struct {
	Genesis map[string]uint64 `envconfig:"LEDGER_GENESIS"`
}

type Env struct {
	BaseEnv
	StorageEnv
	ChainEnv
	LedgerEnv
}

const namespace = "TASKMARKET"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
