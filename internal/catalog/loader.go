package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/realmkeeper/internal/domain"
	"github.com/osse101/realmkeeper/internal/logger"
	"github.com/osse101/realmkeeper/internal/validation"
)

// Sentinel errors for the item loader
var (
	ErrDuplicateID   = errors.New("duplicate item id")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the JSON configuration for items
type Config struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	Items       []Def  `json:"items"`
}

// Def is a single item definition. Optional fields fall back to the
// defaults of the item's category.
type Def struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Stackable   *bool           `json:"stackable,omitempty"`
	MaxStack    int             `json:"maxStack,omitempty"`
	Tradeable   *bool           `json:"tradeable,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Model       string          `json:"model,omitempty"`
}

// Loader handles loading and validating item configuration
type Loader interface {
	Load(path string) (*Config, error)
	Validate(config *Config) error
}

type itemLoader struct {
	schemaValidator validation.SchemaValidator
	schemaPath      string
}

// NewLoader creates a Loader validating against the schema at schemaPath
func NewLoader(schemaPath string) Loader {
	return &itemLoader{
		schemaValidator: validation.NewSchemaValidator(),
		schemaPath:      schemaPath,
	}
}

// Load reads, schema-checks and parses an items JSON file
func (l *itemLoader) Load(path string) (*Config, error) {
	resolved, err := validation.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadConfigFileFailed, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadConfigFileFailed, err)
	}

	if err := l.schemaValidator.ValidateBytes(data, l.schemaPath); err != nil {
		return nil, fmt.Errorf("schema validation failed for %s: %w", path, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(ErrMsgParseConfigFailed, err)
	}

	return &config, nil
}

// Validate checks the semantic rules the schema cannot express
func (l *itemLoader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, ErrMsgConfigNil)
	}
	if len(config.Items) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, ErrMsgNoItemsDefined)
	}

	seen := make(map[string]bool, len(config.Items))
	for i := range config.Items {
		def := &config.Items[i]
		if def.ID == "" {
			return fmt.Errorf(ErrFmtItemAtIndexEmpty, ErrInvalidConfig, i)
		}
		if seen[def.ID] {
			return fmt.Errorf("%w: '%s'", ErrDuplicateID, def.ID)
		}
		seen[def.ID] = true

		if !def.Category.Valid() {
			return fmt.Errorf(ErrFmtUnknownCategory, ErrInvalidConfig, def.ID, def.Category)
		}
		if def.MaxStack < 0 {
			return fmt.Errorf(ErrFmtBadMaxStack, ErrInvalidConfig, def.ID, def.MaxStack)
		}
		if def.Stackable != nil && !*def.Stackable && def.MaxStack > 1 {
			return fmt.Errorf(ErrFmtSingleUnitStack, ErrInvalidConfig, def.ID, def.MaxStack)
		}
	}
	return nil
}

// ItemType resolves defaults and produces the immutable catalog entry
func (d Def) ItemType() domain.ItemType {
	stackable := d.Category.DefaultStackable()
	if d.Stackable != nil {
		stackable = *d.Stackable
	}

	maxStack := 1
	if stackable {
		maxStack = d.MaxStack
		if maxStack == 0 {
			maxStack = d.Category.DefaultMaxStack()
		}
	}

	tradeable := true
	if d.Tradeable != nil {
		tradeable = *d.Tradeable
	}

	name := d.Name
	if name == "" {
		name = DisplayName(d.ID)
	}

	return domain.ItemType{
		ID:          d.ID,
		Name:        name,
		Description: d.Description,
		Category:    d.Category,
		Stackable:   stackable,
		MaxStack:    maxStack,
		Tradeable:   tradeable,
		Icon:        d.Icon,
		Model:       d.Model,
	}
}

// DisplayName derives a title-cased name from a snake_case id.
func DisplayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// LoadCatalog loads, validates and builds the catalog in one step
func LoadCatalog(path, schemaPath string) (*Catalog, error) {
	loader := NewLoader(schemaPath)

	config, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := loader.Validate(config); err != nil {
		return nil, err
	}

	types := make([]domain.ItemType, 0, len(config.Items))
	for _, def := range config.Items {
		types = append(types, def.ItemType())
	}

	cat, err := New(types...)
	if err != nil {
		return nil, err
	}

	logger.Info(LogMsgCatalogLoaded, "path", path, "version", config.Version, "items", cat.Len())
	return cat, nil
}
