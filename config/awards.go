package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AwardDefinition is one award of the YAML catalog used to seed an entity's awards.
type AwardDefinition struct {
	Name      string   `yaml:"name" validate:"required"`
	Kind      string   `yaml:"kind" validate:"required,oneof=quartet chorus"`
	Level     string   `yaml:"level" validate:"required,oneof=championship representative qualifier award deferred manual raw standard"`
	Threshold *float64 `yaml:"threshold" validate:"omitempty,gte=0,lte=100"`
	Minimum   *float64 `yaml:"minimum" validate:"omitempty,gte=0,lte=100"`
	Advance   *int     `yaml:"advance" validate:"omitempty,gte=0"`
	IsPrimary bool     `yaml:"is_primary"`
	IsSingle  bool     `yaml:"is_single"`
}

type EntityAwards struct {
	EntityCode string            `yaml:"entity_code" validate:"required"`
	Awards     []AwardDefinition `yaml:"awards" validate:"required,min=1,dive"`
}

type AwardCatalog struct {
	Entities []EntityAwards `yaml:"entities" validate:"required,min=1,dive"`
}

func ParseAwardCatalog(data []byte) (*AwardCatalog, error) {
	var catalog AwardCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse award catalog: %w", err)
	}
	if err := validator.New().Struct(&catalog); err != nil {
		return nil, fmt.Errorf("invalid award catalog: %w", err)
	}
	for _, entity := range catalog.Entities {
		for _, award := range entity.Awards {
			if award.Level == "qualifier" && award.Threshold == nil {
				return nil, fmt.Errorf("invalid award catalog: qualifier %q of %s has no threshold", award.Name, entity.EntityCode)
			}
		}
	}
	return &catalog, nil
}

func LoadAwardCatalog(path string) (*AwardCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read award catalog: %w", err)
	}
	return ParseAwardCatalog(data)
}
