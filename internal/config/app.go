package config

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/riskmon/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"RISKMON_RUNTIME_PATH" envDefault:".riskmon"`
	Env         string `env:"APP_ENV" envDefault:"local"`
	Debug       bool   `env:"RISKMON_DEBUG" envDefault:"false"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	DocsPath string   `env:"DOCS_PATH" envDefault:"./docs"`
	Denylist []string `env:"DENYLIST" envSeparator:","`

	// Audit
	AuditDBPath      string `env:"AUDIT_DB_PATH"`
	AuditQueueSize   int    `env:"AUDIT_QUEUE_SIZE" envDefault:"256"`
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" envDefault:"30"`
	SweepSchedule    string `env:"SWEEP_SCHEDULE" envDefault:"@hourly"`

	// Architect
	ProjectGuideEnabled bool `env:"PROJECT_GUIDE_ENABLED" envDefault:"false"`
	ArchitectLLMEnabled bool `env:"LLM_ENABLE_ARCHITECT" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetAuditDBPath() string {
	if c.AuditDBPath != "" {
		return c.AuditDBPath
	}
	return filepath.Join(c.RuntimePath, "audit.db")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

// DenyTerms returns the lower-cased, non-empty denylist entries.
func (c AppConfig) DenyTerms() []string {
	out := make([]string, 0, len(c.Denylist))
	for _, t := range c.Denylist {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
