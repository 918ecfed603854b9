package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/foundation/normalization"
)

// NormalizationResult captures adjustments made while normalizing.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes names and encodings in place before
// defaults are applied.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, errors.ConfigError("config nil").Build()
	}
	res := &NormalizationResult{}

	builderName := c.Scenario.BuilderName
	c.Scenario.Normalize()
	if strings.TrimSpace(builderName) != "" && builderName != c.Scenario.BuilderName {
		res.Warnings = append(res.Warnings, normalization.Warning("scenario.buildername", builderName, c.Scenario.BuilderName))
	}

	for i := range c.Outputs {
		o := &c.Outputs[i]
		field := fmt.Sprintf("outputs[%d]", i)
		o.File = strings.TrimSpace(o.File)
		normalizeName(&o.Builder, field+".builder", res)
		normalizeName(&o.Encoding, field+".encoding", res)
	}
	for i := range c.Doctrees {
		d := &c.Doctrees[i]
		field := fmt.Sprintf("doctrees[%d]", i)
		d.File = strings.TrimSpace(d.File)
		d.Folder = strings.TrimSpace(d.Folder)
		normalizeName(&d.Encoding, field+".encoding", res)
	}
	return res, nil
}

func normalizeName(v *string, field string, res *NormalizationResult) {
	n := normalization.Name(*v)
	if w := normalization.Warning(field, *v, n); w != "" {
		res.Warnings = append(res.Warnings, w)
		*v = n
	}
}
