package main

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer counts tokens the way a target model would see the document.
type Tokenizer interface {
	CountTokens(text string) int
	Close()
}

// --- Tiktoken ---

type tiktokenCounter struct {
	ttk *tiktoken.Tiktoken
}

func (c *tiktokenCounter) CountTokens(text string) int {
	if c.ttk == nil {
		return 0
	}
	return len(c.ttk.EncodeOrdinary(text))
}

func (c *tiktokenCounter) Close() {}

// --- HuggingFace (sugarme) ---

type hfCounter struct {
	htk *hf.Tokenizer
	log *ConsoleLogger
}

func (c *hfCounter) CountTokens(text string) int {
	if c.htk == nil {
		return 0
	}
	en, err := c.htk.EncodeSingle(text)
	if err != nil {
		c.log.Warnf("huggingface tokenizer failed to encode text: %v", err)
		return 0
	}
	return len(en.Tokens)
}

func (c *hfCounter) Close() {}

const (
	tokenizerTiktoken    = "tiktoken"
	tokenizerHuggingFace = "huggingface"

	defaultTiktokenModel = "gpt-4o"
	defaultHFModel       = "gpt2"
)

// validTokenizer reports whether kind names a supported tokenizer.
func validTokenizer(kind string) bool {
	switch strings.ToLower(kind) {
	case tokenizerTiktoken, tokenizerHuggingFace:
		return true
	}
	return false
}

// newTokenizer loads the tokenizer selected by kind. model and file are
// optional; file only applies to huggingface.
func newTokenizer(kind, model, file string, log *ConsoleLogger) (Tokenizer, error) {
	log.Debugf("initializing tokenizer (type: %s, model: %s, file: %s)", kind, model, file)

	switch strings.ToLower(kind) {
	case tokenizerTiktoken:
		return loadTiktoken(model, log)
	case tokenizerHuggingFace:
		return loadHuggingFace(model, file, log)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type %q, use %q or %q", kind, tokenizerTiktoken, tokenizerHuggingFace)
	}
}

func loadTiktoken(model string, log *ConsoleLogger) (Tokenizer, error) {
	if model == "" {
		model = defaultTiktokenModel
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		log.Warnf("tiktoken model %q not found, falling back to %q: %v", model, defaultTiktokenModel, err)
		tke, err = tiktoken.EncodingForModel(defaultTiktokenModel)
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding for %q: %w", defaultTiktokenModel, err)
		}
	}
	return &tiktokenCounter{ttk: tke}, nil
}

func loadHuggingFace(model, file string, log *ConsoleLogger) (Tokenizer, error) {
	if file == "" {
		if model == "" {
			model = defaultHFModel
		}
		log.Debugf("loading huggingface tokenizer for %s (this may download files)", model)
		path, err := hf.CachedPath(model, "tokenizer.json")
		if err != nil {
			return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
		}
		file = path
	}

	htk, err := pretrained.FromFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", file, err)
	}
	return &hfCounter{htk: htk, log: log}, nil
}

// countTokens returns the token total over every record's content.
func countTokens(records []FileRecord, tk Tokenizer) int {
	total := 0
	for _, r := range records {
		total += tk.CountTokens(string(r.Content))
	}
	return total
}
