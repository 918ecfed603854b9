// Package config loads check files: YAML documents that describe one build
// scenario and the artifact checks to run against its output.
//
//	name: basic
//	scenario:
//	  srcdir: docs
//	  freshenv: true
//	baselines: testdata/baselines
//	outputs:
//	  - file: index.html
//	    regress: true
//	    contains: ["Welcome"]
//	doctrees:
//	  - file: index.doctree
//	    regress: true
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/scenario"
)

// EnvFile is read from the check file's directory, when present, to resolve
// ${VAR} references before the process environment is consulted.
const EnvFile = ".env"

// Config is a parsed check file.
type Config struct {
	// Name keys the baselines of every check; defaults to the file's base name.
	Name     string          `yaml:"name"`
	Scenario scenario.Config `yaml:"scenario"`
	// Fixtures is the root holding test-<testroot> trees.
	Fixtures  string `yaml:"fixtures"`
	Baselines string `yaml:"baselines"`
	// AllowWarnings accepts a build that wrote to the warning stream.
	AllowWarnings bool           `yaml:"allow_warnings"`
	Outputs       []OutputCheck  `yaml:"outputs"`
	Doctrees      []DoctreeCheck `yaml:"doctrees"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// OutputCheck reads one rendered file.
type OutputCheck struct {
	File          string   `yaml:"file"`
	Builder       string   `yaml:"builder"`
	Encoding      string   `yaml:"encoding"`
	ExtractBody   bool     `yaml:"extract_body"`
	RemoveScripts bool     `yaml:"remove_scripts"`
	Regress       bool     `yaml:"regress"`
	Contains      []string `yaml:"contains"`
}

// DoctreeCheck reads one serialized tree; Contains matches its pseudo-XML.
type DoctreeCheck struct {
	File     string   `yaml:"file"`
	Folder   string   `yaml:"folder"`
	Encoding string   `yaml:"encoding"`
	Regress  bool     `yaml:"regress"`
	Contains []string `yaml:"contains"`
}

// Load reads, normalizes, defaults and validates a check file.
func Load(path string) (*Config, *NormalizationResult, error) {
	// #nosec G304 -- check files are operator supplied
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewError(errors.CategoryNotFound, "check file not found").
				WithContext("path", path).Build()
		}
		return nil, nil, errors.WrapError(err, errors.CategoryFileSystem, "read check file").
			WithContext("path", path).Build()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve check file").
			WithContext("path", path).Build()
	}
	dir := filepath.Dir(abs)

	env, err := readEnv(filepath.Join(dir, EnvFile))
	if err != nil {
		return nil, nil, err
	}
	expanded := os.Expand(string(data), func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "parse check file").
			WithContext("path", path).Build()
	}
	cfg.Dir = dir
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}

	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, nil, err
	}
	ApplyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, res, err
	}
	return &cfg, res, nil
}

func readEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "read env file").
			WithContext("path", path).Build()
	}
	return env, nil
}
