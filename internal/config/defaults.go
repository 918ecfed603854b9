package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/docharness/internal/artifact"
	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/textenc"
)

const (
	// DefaultFixtures is the fixture root relative to the check file.
	DefaultFixtures = "fixtures"
	// DefaultBaselines is the baseline directory relative to the check file.
	DefaultBaselines = "baselines"
)

// ApplyDefaults fills unset fields and makes paths absolute against c.Dir.
func ApplyDefaults(c *Config) {
	if c.Fixtures == "" {
		c.Fixtures = DefaultFixtures
	}
	if c.Baselines == "" {
		c.Baselines = DefaultBaselines
	}
	c.Fixtures = c.resolve(c.Fixtures)
	c.Baselines = c.resolve(c.Baselines)
	if c.Scenario.SrcDir != "" {
		c.Scenario.SrcDir = c.resolve(c.Scenario.SrcDir)
	}

	for i := range c.Outputs {
		o := &c.Outputs[i]
		if o.Builder == "" {
			o.Builder = c.Scenario.BuilderName
		}
		if o.File == "" {
			o.File = artifact.DefaultOutputFile
		}
		if o.Encoding == "" {
			o.Encoding = textenc.Default
		}
	}
	for i := range c.Doctrees {
		d := &c.Doctrees[i]
		if d.File == "" {
			d.File = artifact.DefaultDoctreeFile
		}
		if d.Folder == "" {
			d.Folder = builder.DoctreeFolder
		}
		if d.Encoding == "" {
			d.Encoding = textenc.Default
		}
	}
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Dir, p)
}
