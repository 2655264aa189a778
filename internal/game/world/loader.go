package world

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content/world.yaml
var defaultWorldYAML []byte

// Definition is the static world layout: continents and their zone templates.
type Definition struct {
	// FallbackZone is the template used for unknown zone IDs.
	FallbackZone string
	Continents   []ContinentTemplate
}

// ContinentTemplate is the static description of a continent.
type ContinentTemplate struct {
	ID          string
	Name        string
	Description string
	MinLevel    int
	MaxLevel    int
	UnlockLevel int
	Zones       []*ZoneTemplate
}

// ZoneTemplates returns every zone template in continent order.
func (d *Definition) ZoneTemplates() []*ZoneTemplate {
	var out []*ZoneTemplate
	for _, c := range d.Continents {
		out = append(out, c.Zones...)
	}
	return out
}

// Validate checks definition invariants.
//
// Postcondition: Returns nil iff at least one continent exists, every
// continent and zone is valid, IDs are unique, and FallbackZone names a zone.
func (d *Definition) Validate() error {
	if len(d.Continents) == 0 {
		return fmt.Errorf("world must contain at least one continent")
	}
	continents := make(map[string]bool)
	zones := make(map[string]bool)
	for _, c := range d.Continents {
		if c.ID == "" || c.Name == "" {
			return fmt.Errorf("continent id and name must not be empty")
		}
		if continents[c.ID] {
			return fmt.Errorf("duplicate continent ID: %q", c.ID)
		}
		continents[c.ID] = true
		if c.MinLevel < 1 || c.MaxLevel < c.MinLevel {
			return fmt.Errorf("continent %q: level range [%d, %d] is invalid", c.ID, c.MinLevel, c.MaxLevel)
		}
		if len(c.Zones) == 0 {
			return fmt.Errorf("continent %q: must contain at least one zone", c.ID)
		}
		for _, z := range c.Zones {
			if err := z.Validate(); err != nil {
				return fmt.Errorf("continent %q: %w", c.ID, err)
			}
			if zones[z.ID] {
				return fmt.Errorf("duplicate zone ID: %q", z.ID)
			}
			zones[z.ID] = true
		}
	}
	if !zones[d.FallbackZone] {
		return fmt.Errorf("fallback_zone %q is not a defined zone", d.FallbackZone)
	}
	return nil
}

// yamlWorldFile is the top-level YAML structure for world files.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

type yamlWorld struct {
	FallbackZone string          `yaml:"fallback_zone"`
	Continents   []yamlContinent `yaml:"continents"`
}

type yamlContinent struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	MinLevel    int        `yaml:"min_level"`
	MaxLevel    int        `yaml:"max_level"`
	UnlockLevel int        `yaml:"unlock_level"`
	Zones       []yamlZone `yaml:"zones"`
}

type yamlZone struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Description   string          `yaml:"description"`
	MinLevel      int             `yaml:"min_level"`
	MaxLevel      int             `yaml:"max_level"`
	UnlockLevel   int             `yaml:"unlock_level"`
	BalanceFactor *float64        `yaml:"balance_factor"`
	Archetypes    []yamlArchetype `yaml:"archetypes"`
	SpotNames     []string        `yaml:"spot_names"`
}

type yamlArchetype struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Icon       string  `yaml:"icon"`
	Rarity     string  `yaml:"rarity"`
	Speed      int     `yaml:"speed"`
	HealthMul  float64 `yaml:"health"`
	AttackMul  float64 `yaml:"attack"`
	DefenseMul float64 `yaml:"defense"`
	ExpMul     float64 `yaml:"experience"`
	GoldMul    float64 `yaml:"gold"`
}

// LoadDefinitionFromFile reads and validates a world YAML file.
//
// Precondition: path must point to a valid YAML world file.
// Postcondition: Returns a validated Definition or a non-nil error.
func LoadDefinitionFromFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	return LoadDefinitionFromBytes(data)
}

// LoadDefinitionFromBytes parses and validates a world definition from YAML bytes.
//
// Postcondition: Returns a validated Definition or a non-nil error.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing world YAML: %w", err)
	}
	def := convertYAMLWorld(file.World)
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}
	return def, nil
}

// DefaultDefinition returns the world definition embedded in the binary.
//
// Postcondition: Panics if the embedded content is invalid.
func DefaultDefinition() *Definition {
	def, err := LoadDefinitionFromBytes(defaultWorldYAML)
	if err != nil {
		panic("world: embedded definition is invalid: " + err.Error())
	}
	return def
}

func convertYAMLWorld(yw yamlWorld) *Definition {
	def := &Definition{FallbackZone: yw.FallbackZone}
	for _, yc := range yw.Continents {
		c := ContinentTemplate{
			ID:          yc.ID,
			Name:        yc.Name,
			Description: yc.Description,
			MinLevel:    yc.MinLevel,
			MaxLevel:    yc.MaxLevel,
			UnlockLevel: yc.UnlockLevel,
		}
		if c.UnlockLevel == 0 {
			c.UnlockLevel = c.MinLevel
		}
		for _, yz := range yc.Zones {
			c.Zones = append(c.Zones, convertYAMLZone(yc.ID, yz))
		}
		def.Continents = append(def.Continents, c)
	}
	return def
}

func convertYAMLZone(continentID string, yz yamlZone) *ZoneTemplate {
	z := &ZoneTemplate{
		ID:            yz.ID,
		ContinentID:   continentID,
		Name:          yz.Name,
		Description:   yz.Description,
		MinLevel:      yz.MinLevel,
		MaxLevel:      yz.MaxLevel,
		UnlockLevel:   yz.UnlockLevel,
		BalanceFactor: 1.0,
		SpotNames:     yz.SpotNames,
	}
	if yz.BalanceFactor != nil {
		z.BalanceFactor = *yz.BalanceFactor
	}
	if z.UnlockLevel == 0 {
		z.UnlockLevel = z.MinLevel
	}
	for _, ya := range yz.Archetypes {
		z.Archetypes = append(z.Archetypes, Archetype{
			ID:         ya.ID,
			Name:       ya.Name,
			Icon:       ya.Icon,
			Rarity:     Rarity(ya.Rarity),
			Speed:      ya.Speed,
			HealthMul:  ya.HealthMul,
			AttackMul:  ya.AttackMul,
			DefenseMul: ya.DefenseMul,
			ExpMul:     ya.ExpMul,
			GoldMul:    ya.GoldMul,
		})
	}
	return z
}
