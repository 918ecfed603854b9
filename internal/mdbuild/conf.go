package mdbuild

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
)

// ConfFile is the project configuration file expected in every source tree.
const ConfFile = "conf.yaml"

// Conf is the project configuration of a source tree.
type Conf struct {
	Project         string   `yaml:"project"`
	MasterDoc       string   `yaml:"master_doc"`
	SourceSuffix    string   `yaml:"source_suffix"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	HTMLTitle       string   `yaml:"html_title"`
	Language        string   `yaml:"language"`
}

var knownConfKeys = map[string]bool{
	"project":          true,
	"master_doc":       true,
	"source_suffix":    true,
	"exclude_patterns": true,
	"html_title":       true,
	"language":         true,
}

// LoadConf reads <srcdir>/conf.yaml and applies overrides on top of it.
// Keys that are not configuration values are returned so the caller can
// report them; they never fail the load.
func LoadConf(srcdir string, overrides map[string]any) (*Conf, []string, error) {
	path := filepath.Join(srcdir, ConfFile)
	// #nosec G304 -- path is built from the scenario source directory
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.ConfigError("source directory does not contain a "+ConfFile).
				WithContext("srcdir", srcdir).Build()
		}
		return nil, nil, errors.WrapError(err, errors.CategoryFileSystem, "read "+ConfFile).
			WithContext("path", path).Build()
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "parse "+ConfFile).
			Fatal().WithContext("path", path).Build()
	}
	if raw == nil {
		raw = map[string]any{}
	}

	var unknown []string
	for k := range raw {
		if !knownConfKeys[k] {
			unknown = append(unknown, k)
		}
	}
	for k, v := range overrides {
		if !knownConfKeys[k] {
			unknown = append(unknown, k)
			continue
		}
		if s, ok := v.(string); ok && k == "exclude_patterns" {
			v = splitList(s)
		}
		raw[k] = v
	}
	sort.Strings(unknown)

	merged, err := yaml.Marshal(raw)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "merge configuration overrides").Fatal().Build()
	}
	var conf Conf
	if err := yaml.Unmarshal(merged, &conf); err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "invalid configuration value").
			Fatal().WithContext("path", path).Build()
	}
	conf.applyDefaults()
	return &conf, unknown, nil
}

func (c *Conf) applyDefaults() {
	if c.Project == "" {
		c.Project = "Project"
	}
	if c.MasterDoc == "" {
		c.MasterDoc = "index"
	}
	if c.SourceSuffix == "" {
		c.SourceSuffix = ".md"
	}
	if !strings.HasPrefix(c.SourceSuffix, ".") {
		c.SourceSuffix = "." + c.SourceSuffix
	}
	if c.HTMLTitle == "" {
		c.HTMLTitle = c.Project + " documentation"
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
