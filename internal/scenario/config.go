package scenario

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/foundation/normalization"
)

// DefaultTestRoot names the fixture tree used when neither SrcDir nor
// TestRoot is set.
const DefaultTestRoot = "root"

// FixturePrefix prefixes fixture directory names: testroot "basic" lives in
// <fixtures>/test-basic.
const FixturePrefix = "test-"

// Config describes one build scenario.
type Config struct {
	BuilderName   string         `yaml:"buildername"`
	SrcDir        string         `yaml:"srcdir"`
	TestRoot      string         `yaml:"testroot"`
	FreshEnv      bool           `yaml:"freshenv"`
	ConfOverrides map[string]any `yaml:"confoverrides"`
	Tags          []string       `yaml:"tags"`
	DocutilsConf  string         `yaml:"docutilsconf"`
}

// Normalize trims names and applies defaults in place.
func (c *Config) Normalize() {
	c.BuilderName = normalization.Name(c.BuilderName)
	if c.BuilderName == "" {
		c.BuilderName = builder.DefaultBuilder
	}
	c.SrcDir = strings.TrimSpace(c.SrcDir)
	c.TestRoot = strings.TrimSpace(c.TestRoot)
	if c.TestRoot == "" {
		c.TestRoot = DefaultTestRoot
	}
	var tags []string
	for _, t := range c.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	c.Tags = tags
}

// Validate reports configuration that cannot describe a scenario.
func (c Config) Validate() error {
	if strings.ContainsAny(c.BuilderName, `/\`) {
		return errors.ValidationError("builder name must not contain path separators").
			WithContext("buildername", c.BuilderName).Build()
	}
	if c.SrcDir == "" && (strings.ContainsAny(c.TestRoot, `/\`) || c.TestRoot == "." || c.TestRoot == "..") {
		return errors.ValidationError("testroot must be a plain directory name").
			WithContext("testroot", c.TestRoot).Build()
	}
	for _, t := range c.Tags {
		if strings.ContainsAny(t, " \t") {
			return errors.ValidationError("tags must be single words").
				WithContext("tag", t).Build()
		}
	}
	return nil
}

// FixtureDir returns the fixture tree for the configured test root.
func (c Config) FixtureDir(fixturesRoot string) string {
	return filepath.Join(fixturesRoot, FixturePrefix+c.TestRoot)
}
