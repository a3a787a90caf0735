package config

import (
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Context.Words != DefaultContextWords {
		t.Errorf("expected default context words %d, got %d", DefaultContextWords, cfg.Context.Words)
	}
	if cfg.Context.Paragraphs != DefaultContextParagraphs {
		t.Errorf("expected default context paragraphs %d, got %d", DefaultContextParagraphs, cfg.Context.Paragraphs)
	}
	if cfg.Context.MaxWords != DefaultMaxContextWords {
		t.Errorf("expected default max context words %d, got %d", DefaultMaxContextWords, cfg.Context.MaxWords)
	}
	if cfg.Context.MinConfidence != DefaultMinConfidence {
		t.Errorf("expected default confidence %v, got %v", DefaultMinConfidence, cfg.Context.MinConfidence)
	}
	if cfg.Export.Dir != DefaultExportDir {
		t.Errorf("expected default export dir %q, got %q", DefaultExportDir, cfg.Export.Dir)
	}
	if cfg.Watch.Schedule != "0 * * * *" {
		t.Errorf("unexpected default schedule %q", cfg.Watch.Schedule)
	}
}

func TestNewConfig_NegativeValuesFallBack(t *testing.T) {
	t.Setenv("CONTEXT_WORDS", "-5")
	t.Setenv("CONTEXT_PARAGRAPHS", "-1")

	cfg := NewConfig()

	if cfg.Context.Words != DefaultContextWords {
		t.Errorf("negative context words must fall back to default, got %d", cfg.Context.Words)
	}
	if cfg.Context.Paragraphs != DefaultContextParagraphs {
		t.Errorf("negative context paragraphs must fall back to default, got %d", cfg.Context.Paragraphs)
	}
}

func TestNewConfig_NonNumericValuesFallBack(t *testing.T) {
	t.Setenv("CONTEXT_WORDS", "lots")
	t.Setenv("MIN_MATCH_CONFIDENCE", "very sure")

	cfg := NewConfig()

	if cfg.Context.Words != DefaultContextWords {
		t.Errorf("non-numeric context words must fall back to default, got %d", cfg.Context.Words)
	}
	if cfg.Context.MinConfidence != DefaultMinConfidence {
		t.Errorf("non-numeric confidence must fall back to default, got %v", cfg.Context.MinConfidence)
	}
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONTEXT_WORDS", "12")
	t.Setenv("CONTEXT_PARAGRAPHS", "2")
	t.Setenv("EXPORT_DIR", "/tmp/highlights")

	cfg := NewConfig()

	if cfg.Context.Words != 12 {
		t.Errorf("expected 12 context words, got %d", cfg.Context.Words)
	}
	if cfg.Context.Paragraphs != 2 {
		t.Errorf("expected 2 context paragraphs, got %d", cfg.Context.Paragraphs)
	}
	if cfg.Export.Dir != "/tmp/highlights" {
		t.Errorf("expected overridden export dir, got %q", cfg.Export.Dir)
	}
}
