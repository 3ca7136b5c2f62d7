package config

import "time"

type RAGConfig struct {
	MultiQueryEnabled bool `env:"RAG_MULTI_QUERY_ENABLED" envDefault:"false"`
	MultiQueryCount   int  `env:"RAG_MULTI_QUERY_COUNT" envDefault:"3"`
	HydeEnabled       bool `env:"RAG_HYDE_ENABLED" envDefault:"false"`

	TopK         int   `env:"RAG_TOP_K" envDefault:"3"`
	SnippetChars int   `env:"RAG_SNIPPET_CHARS" envDefault:"200"`
	MaxFiles     int   `env:"RAG_MAX_FILES" envDefault:"2000"`
	MaxFileBytes int64 `env:"RAG_MAX_FILE_BYTES" envDefault:"1048576"`

	// CorpusTTL caches the loaded corpus between requests. 0 rereads every time.
	CorpusTTL time.Duration `env:"RAG_CORPUS_TTL" envDefault:"30s"`
}
