package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/textenc"
)

// ValidateConfig checks a normalized, defaulted check file.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.config.Scenario.Validate(); err != nil {
		return err
	}
	if err := cv.validateOutputs(); err != nil {
		return err
	}
	return cv.validateDoctrees()
}

func (cv *configurationValidator) validateOutputs() error {
	seen := make(map[string]bool)
	for i, o := range cv.config.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)
		if err := validateFile(field, o.File); err != nil {
			return err
		}
		if err := validateFile(field+".builder", o.Builder); err != nil {
			return err
		}
		key := o.Builder + "/" + o.File
		if seen[key] {
			return errors.ValidationError("duplicate output check").
				WithContext("field", field).
				WithContext("file", key).
				Build()
		}
		seen[key] = true
		if err := validateEncoding(field, o.Encoding); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateDoctrees() error {
	seen := make(map[string]bool)
	for i, d := range cv.config.Doctrees {
		field := fmt.Sprintf("doctrees[%d]", i)
		if err := validateFile(field, d.File); err != nil {
			return err
		}
		if d.Folder != "" {
			if err := validateFile(field+".folder", d.Folder); err != nil {
				return err
			}
		}
		key := d.Folder + "/" + d.File
		if seen[key] {
			return errors.ValidationError("duplicate doctree check").
				WithContext("field", field).
				WithContext("file", key).
				Build()
		}
		seen[key] = true
		if err := validateEncoding(field, d.Encoding); err != nil {
			return err
		}
	}
	return nil
}

// validateFile keeps artifact paths inside the build directory.
func validateFile(field, file string) error {
	clean := filepath.ToSlash(filepath.Clean(file))
	if filepath.IsAbs(file) || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.ValidationError("artifact path must stay inside the build directory").
			WithContext("field", field).
			WithContext("file", file).
			Build()
	}
	return nil
}

func validateEncoding(field, name string) error {
	if _, err := textenc.Lookup(name); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "unknown encoding").
			WithContext("field", field).
			WithContext("encoding", name).
			Build()
	}
	return nil
}
