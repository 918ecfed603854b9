package mdbuild

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/foundation/normalization"
)

// Settings are parser settings supplied inline as docutilsconf text.
//
//	extensions: [table, strikethrough]
//	smart_quotes: true
type Settings struct {
	Extensions  []string `yaml:"extensions"`
	SmartQuotes bool     `yaml:"smart_quotes"`
}

var extensions = normalization.NewEnum("markdown extension", map[string]goldmark.Extender{
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"gfm":           extension.GFM,
})

// ParseSettings decodes docutilsconf text. Empty text yields zero Settings.
func ParseSettings(text string) (Settings, error) {
	var s Settings
	if strings.TrimSpace(text) == "" {
		return s, nil
	}
	if err := yaml.Unmarshal([]byte(text), &s); err != nil {
		return s, errors.WrapError(err, errors.CategoryConfig, "parse docutilsconf").Fatal().Build()
	}
	return s, nil
}

// Markdown builds the goldmark instance for these settings.
func (s Settings) Markdown() (goldmark.Markdown, error) {
	exts := make([]goldmark.Extender, 0, len(s.Extensions)+1)
	for _, name := range s.Extensions {
		ext, err := extensions.Lookup(name)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "unsupported markdown extension").
				Fatal().WithContext("extension", name).Build()
		}
		exts = append(exts, ext)
	}
	if s.SmartQuotes {
		exts = append(exts, extension.Typographer)
	}
	return goldmark.New(goldmark.WithExtensions(exts...)), nil
}
