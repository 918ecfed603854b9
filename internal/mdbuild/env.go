package mdbuild

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

const (
	envFile    = "environment.yaml"
	envVersion = 1
)

// environment is the persisted build state kept next to the doctrees.
type environment struct {
	Version int               `yaml:"version"`
	Config  string            `yaml:"config"`
	Docs    map[string]string `yaml:"docs"`
}

func newEnvironment(config string) *environment {
	return &environment{Version: envVersion, Config: config, Docs: map[string]string{}}
}

// loadEnvironment returns the stored environment, or a fresh one when none
// exists, it cannot be decoded, or it was written for another configuration.
func loadEnvironment(dir, config string) *environment {
	// #nosec G304 -- dir is the build's doctree directory
	data, err := os.ReadFile(filepath.Join(dir, envFile))
	if err != nil {
		return newEnvironment(config)
	}
	var env environment
	if err := yaml.Unmarshal(data, &env); err != nil || env.Version != envVersion || env.Config != config {
		return newEnvironment(config)
	}
	if env.Docs == nil {
		env.Docs = map[string]string{}
	}
	return &env
}

func (e *environment) save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, envFile), data, 0o600)
}

// removed drops documents that no longer exist and returns their names.
func (e *environment) removed(current map[string]bool) []string {
	var gone []string
	for doc := range e.Docs {
		if !current[doc] {
			gone = append(gone, doc)
			delete(e.Docs, doc)
		}
	}
	sort.Strings(gone)
	return gone
}

// fingerprint identifies the rendered content of a page.
func (p *page) fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(p.frontmatter, p.inputs.String())
}

// configFingerprint identifies everything outside the sources that affects
// every page.
func configFingerprint(conf *Conf, settings Settings, tags []string) string {
	confYAML, _ := yaml.Marshal(conf)
	settingsYAML, _ := yaml.Marshal(settings)
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	return mdfp.CalculateFingerprintFromParts(string(confYAML),
		string(settingsYAML)+"\ntags: "+strings.Join(sorted, ","))
}
