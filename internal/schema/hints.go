package schema

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Hints carries operator-supplied schema knowledge the database cannot
// express: named relationships between tables and enum values for
// free-text status columns. Both are injected into the schema context to
// improve generation accuracy.
type Hints struct {
	Relationships []Relationship                 `koanf:"relationships"`
	Enums         map[string]map[string][]string `koanf:"enums"`
}

// Relationship describes how two tables relate.
type Relationship struct {
	Source      string `koanf:"source"`
	Target      string `koanf:"target"`
	Description string `koanf:"description"`
}

// LoadHints reads a hints file. A missing file is not an error: the
// provider falls back to foreign-key discovery.
func LoadHints(path string) (*Hints, error) {
	if path == "" {
		return &Hints{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Hints{}, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading hints file %s: %w", path, err)
	}

	var hints Hints
	if err := k.Unmarshal("", &hints); err != nil {
		return nil, fmt.Errorf("unable to decode hints file %s: %w", path, err)
	}
	return &hints, nil
}

// EnumValues returns the hinted enum values for a column, or nil.
func (h *Hints) EnumValues(table, column string) []string {
	if h == nil || h.Enums == nil {
		return nil
	}
	return h.Enums[table][column]
}
