package rag

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/riskmon/internal/config"
	"github.com/sandevgo/riskmon/internal/core"
	"github.com/sandevgo/riskmon/pkg/conv"
	"github.com/sandevgo/riskmon/pkg/log"
)

const overlapThreshold = 0.5

var ErrNoCorpus = errors.New("document corpus not found")

// Document is one corpus file prepared for scoring.
type Document struct {
	Source  string // slash separated, relative to the corpus root
	Snippet string

	lower string
	norm  string
}

// Scored is a citation candidate with its internal relevance score.
type Scored struct {
	Citation core.Citation
	Score    float64
}

type Scanner struct {
	root         string
	maxFiles     int
	maxFileBytes int64
	snippetChars int
}

func NewScanner(root string, cfg config.RAGConfig) *Scanner {
	return &Scanner{
		root:         root,
		maxFiles:     cfg.MaxFiles,
		maxFileBytes: cfg.MaxFileBytes,
		snippetChars: cfg.SnippetChars,
	}
}

func (s *Scanner) Root() string {
	return s.root
}

// Load walks the corpus in lexical order and reads every .txt and .md file.
// Unreadable files are skipped.
func (s *Scanner) Load(ctx context.Context) ([]Document, error) {
	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return nil, ErrNoCorpus
	}

	logger := log.FromCtx(ctx)
	var docs []Document

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("skipping corpus entry")
			if d != nil && d.IsDir() && path != s.root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !isTextFile(d.Name()) {
			return nil
		}
		if s.maxFiles > 0 && len(docs) >= s.maxFiles {
			return fs.SkipAll
		}

		doc, err := s.readDocument(path)
		if err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable document")
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return docs, err
	}
	return docs, nil
}

func (s *Scanner) readDocument(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if s.maxFileBytes > 0 {
		r = io.LimitReader(f, s.maxFileBytes)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	text := strings.ToValidUTF8(string(raw), "")
	var plain string
	if strings.EqualFold(filepath.Ext(path), ".md") {
		plain = conv.MarkdownToText([]byte(text))
	} else {
		plain = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	}

	return Document{
		Source:  filepath.ToSlash(rel),
		Snippet: firstRunes(plain, s.snippetChars),
		lower:   strings.ToLower(text),
	}, nil
}

// Scan scores docs by the number of distinct variant terms they contain.
// When no document contains a term it falls back to character-bigram overlap.
func (s *Scanner) Scan(docs []Document, variant string) []Scored {
	terms := Terms(variant)

	var out []Scored
	if len(terms) > 0 {
		for _, d := range docs {
			score := 0
			for _, t := range terms {
				if strings.Contains(d.lower, t) {
					score++
				}
			}
			if score > 0 {
				out = append(out, Scored{Citation: d.citation(), Score: float64(score)})
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	return s.overlap(docs, variant)
}

func (s *Scanner) overlap(docs []Document, variant string) []Scored {
	want := bigrams(alnum(variant))
	if len(want) == 0 {
		return nil
	}

	var out []Scored
	for i := range docs {
		d := &docs[i]
		if d.norm == "" {
			d.norm = alnum(d.lower)
		}
		hit := 0
		for bg := range want {
			if strings.Contains(d.norm, bg) {
				hit++
			}
		}
		if ratio := float64(hit) / float64(len(want)); ratio >= overlapThreshold {
			out = append(out, Scored{Citation: d.citation(), Score: ratio})
		}
	}
	return out
}

func (d Document) citation() core.Citation {
	return core.Citation{Source: d.Source, Snippet: d.Snippet}
}

func isTextFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".txt" || ext == ".md"
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
