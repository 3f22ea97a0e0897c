package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/korjavin/mensaplan/pkg/messages"
	"github.com/korjavin/mensaplan/pkg/models"
)

// layoutFile is the on-disk form of the announcement layout. Omitted keys
// keep their defaults.
type layoutFile struct {
	ExcludedCategories []string          `yaml:"excluded_categories"`
	Icons              map[string]string `yaml:"icons"`
	SideGroups         []string          `yaml:"side_groups"`
	Heading            string            `yaml:"heading"`
	Subject            string            `yaml:"subject"`
	CallToAction       string            `yaml:"call_to_action"`
	DateFormat         string            `yaml:"date_format"`
}

// LoadLayout reads a YAML layout file and applies it on top of base
func LoadLayout(path string, base messages.Config) (messages.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrap(err, "read menu layout")
	}
	return ParseLayout(data, base)
}

// ParseLayout applies YAML layout data on top of base
func ParseLayout(data []byte, base messages.Config) (messages.Config, error) {
	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, errors.Wrap(err, "parse menu layout")
	}

	out := base
	if file.ExcludedCategories != nil {
		out.ExcludedCategories = file.ExcludedCategories
	}

	out.Icons = make(map[models.Tag]string, len(base.Icons)+len(file.Icons))
	for tag, icon := range base.Icons {
		out.Icons[tag] = icon
	}
	for name, icon := range file.Icons {
		tag, err := models.ParseTag(name)
		if err != nil {
			return base, errors.Wrap(err, "menu layout icons")
		}
		out.Icons[tag] = icon
	}

	if file.SideGroups != nil {
		if len(file.SideGroups) != 2 {
			return base, fmt.Errorf("menu layout side_groups: want exactly 2 categories, got %d", len(file.SideGroups))
		}
		out.SideGroups = [2]string{file.SideGroups[0], file.SideGroups[1]}
	}

	if file.Heading != "" {
		out.Heading = file.Heading
	}
	if file.Subject != "" {
		out.Subject = file.Subject
	}
	if file.CallToAction != "" {
		out.CallToAction = file.CallToAction
	}
	if file.DateFormat != "" {
		out.DateFormat = file.DateFormat
	}
	return out, nil
}

// ValidateLayout checks that every classification has an icon
func ValidateLayout(layout messages.Config) error {
	for _, tag := range models.AllTags {
		if layout.Icons[tag] == "" {
			return fmt.Errorf("menu layout has no icon for classification %s", tag)
		}
	}
	if layout.SideGroups[0] == "" || layout.SideGroups[1] == "" {
		return fmt.Errorf("menu layout needs two side-dish categories")
	}
	if layout.Subject == "" {
		return fmt.Errorf("menu layout subject must not be empty")
	}
	return nil
}
