package config

import "path/filepath"

type MemoryConfig struct {
	ShortEnabled bool `env:"MEMORY_SHORT_ENABLED" envDefault:"false"`
	LongEnabled  bool `env:"MEMORY_LONG_ENABLED" envDefault:"false"`

	// Backends: memory | sqlite (turns), memory | sqlite | redis (facts).
	ShortBackend string `env:"MEMORY_SHORT_BACKEND" envDefault:"sqlite"`
	LongBackend  string `env:"MEMORY_LONG_BACKEND" envDefault:"memory"`
	DBPath       string `env:"MEMORY_DB_PATH"`

	ShortMaxTurns           int `env:"MEMORY_SHORT_MAX_TURNS" envDefault:"10"`
	ShortContextTurns       int `env:"MEMORY_SHORT_CONTEXT_TURNS" envDefault:"5"`
	ShortRetentionDays      int `env:"SHORT_MEMORY_RETENTION_DAYS" envDefault:"0"`
	ShortMaxTurnsPerSession int `env:"SHORT_MEMORY_MAX_TURNS_PER_SESSION" envDefault:"0"`

	LongMaxFacts      int `env:"MEMORY_LONG_MAX_FACTS" envDefault:"0"`
	LongRetentionDays int `env:"MEMORY_LONG_RETENTION_DAYS" envDefault:"0"`
	LongTopK          int `env:"MEMORY_LONG_TOP_K" envDefault:"5"`
	MinFactChars      int `env:"MEMORY_LONG_MIN_FACT_CHARS" envDefault:"50"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"MEMORY_COLLECTION_PREFIX" envDefault:"memory"`
}

func (c MemoryConfig) GetDBPath(runtimePath string) string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(runtimePath, "memory.db")
}
