// Package export renders collected records to the peripheral dataset
// formats (CSV, TSV, JSON). Which columns appear is driven by a
// profile, either one of the built-ins or a YAML file supplied by the
// user.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("alphanum_underscore", func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		for _, r := range str {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
				return false
			}
		}
		return true
	})
}

// Field names valid in a profile.
var knownFields = []string{
	"local_id", "id", "source_text", "target_text", "context",
	"owner_id", "created_at", "updated_at", "sync_status",
}

// Profile describes one export: format, column selection and whether
// unsynced records are included.
type Profile struct {
	Name           string   `yaml:"name" validate:"omitempty,alphanum_underscore"`
	Format         string   `yaml:"format" validate:"required,oneof=csv tsv json"`
	Fields         []string `yaml:"fields" validate:"required,min=1"`
	Header         bool     `yaml:"header"`
	IncludePending bool     `yaml:"include_pending"`
}

// LoadProfile loads an export profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}

	// Set name from filename if not specified in YAML
	if profile.Name == "" {
		profile.Name = filepath.Base(path)
		if ext := filepath.Ext(profile.Name); ext == ".yaml" || ext == ".yml" {
			profile.Name = profile.Name[:len(profile.Name)-len(ext)]
		}
	}

	if err := validate.Struct(&profile); err != nil {
		return nil, fmt.Errorf("validation failed for profile %s: %w", path, err)
	}
	for _, field := range profile.Fields {
		if !validField(field) {
			return nil, fmt.Errorf("unknown field %q in profile %s (valid fields: %v)",
				field, profile.Name, knownFields)
		}
	}

	return &profile, nil
}

// DefaultProfile is the dataset export used when no profile is given:
// the bilingual pair plus context, only synced rows unless asked
// otherwise.
func DefaultProfile(format string) *Profile {
	return &Profile{
		Name:   "dataset",
		Format: format,
		Fields: []string{"source_text", "target_text", "context"},
		Header: true,
	}
}

func validField(name string) bool {
	for _, f := range knownFields {
		if f == name {
			return true
		}
	}
	return false
}
