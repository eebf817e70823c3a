package models

// Score modes for node-level velocity configuration.
const (
	// ScoreModeFixed counts only the node's own score.
	ScoreModeFixed = "fixed"
	// ScoreModeInherit sums ancestor contributions into the node's score.
	ScoreModeInherit = "inherit"
)

// Property scoring rule modes.
const (
	// ScoreRuleStatus maps a property value to a score.
	ScoreRuleStatus = "status"
	// ScoreRuleMultiplier scales a numeric property value.
	ScoreRuleMultiplier = "multiplier"
)

// Property types the numeric scoring rule applies to.
var numericPropertyTypes = map[string]bool{
	"number":   true,
	"numeric":  true,
	"currency": true,
}

// Blueprint is a project schema: the set of node types users can create,
// each with its properties and velocity scoring configuration.
type Blueprint struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Version   string     `json:"version,omitempty" yaml:"version,omitempty"`
	NodeTypes []NodeType `json:"node_types" yaml:"node_types"`
}

// NodeType finds a node type definition by ID. Returns nil when the
// blueprint does not define the type.
func (b *Blueprint) NodeType(id string) *NodeType {
	if b == nil {
		return nil
	}
	for i := range b.NodeTypes {
		if b.NodeTypes[i].ID == id {
			return &b.NodeTypes[i]
		}
	}
	return nil
}

// IsAllowedChild reports whether childType may be nested under parentType.
func (b *Blueprint) IsAllowedChild(parentType, childType string) bool {
	nt := b.NodeType(parentType)
	if nt == nil {
		return false
	}
	for _, c := range nt.AllowedChildren {
		if c == childType {
			return true
		}
	}
	return false
}

// NodeType describes one kind of node a blueprint allows.
type NodeType struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name,omitempty" yaml:"name,omitempty"`
	AllowedChildren []string         `json:"allowed_children,omitempty" yaml:"allowed_children,omitempty"`
	VelocityConfig  *TypeScoreConfig `json:"velocityConfig,omitempty" yaml:"velocityConfig,omitempty"`
	Properties      []PropertyDef    `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// HasVelocityConfig reports whether the type carries any velocity
// configuration, node-level or on any of its properties.
func (nt *NodeType) HasVelocityConfig() bool {
	if nt == nil {
		return false
	}
	if nt.VelocityConfig != nil {
		return true
	}
	for i := range nt.Properties {
		if cfg := nt.Properties[i].VelocityConfig; cfg != nil && cfg.Enabled {
			return true
		}
	}
	return false
}

// TypeScoreConfig is the node-level velocity configuration for a type.
type TypeScoreConfig struct {
	BaseScore float64 `json:"baseScore,omitempty" yaml:"baseScore,omitempty"`
	// ScoreMode is "fixed" or "inherit". Empty defaults to fixed.
	ScoreMode string `json:"scoreMode,omitempty" yaml:"scoreMode,omitempty"`
}

// Inherits reports whether the config selects inherit mode.
func (c *TypeScoreConfig) Inherits() bool {
	return c != nil && c.ScoreMode == ScoreModeInherit
}

// PropertyDef describes one property of a node type.
type PropertyDef struct {
	ID             string               `json:"id" yaml:"id"`
	Name           string               `json:"name,omitempty" yaml:"name,omitempty"`
	Type           string               `json:"type,omitempty" yaml:"type,omitempty"`
	Options        []SelectOption       `json:"options,omitempty" yaml:"options,omitempty"`
	VelocityConfig *PropertyScoreConfig `json:"velocityConfig,omitempty" yaml:"velocityConfig,omitempty"`
}

// IsNumeric reports whether the property holds a numeric value the
// multiplier rule can score.
func (p *PropertyDef) IsNumeric() bool {
	return numericPropertyTypes[p.Type]
}

// OptionName resolves a select option ID to its display name.
// Returns the input unchanged when no option matches, so plain string
// values pass through.
func (p *PropertyDef) OptionName(value string) string {
	for _, opt := range p.Options {
		if opt.ID == value {
			return opt.Name
		}
	}
	return value
}

// SelectOption is one choice of a select property. Blueprints may declare
// options as plain strings; the loader assigns IDs to those.
type SelectOption struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// UnmarshalYAML accepts both `{id, name}` mappings and bare strings.
func (o *SelectOption) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		o.Name = name
		return nil
	}
	type raw SelectOption
	var r raw
	if err := unmarshal(&r); err != nil {
		return err
	}
	*o = SelectOption(r)
	return nil
}

// PropertyScoreConfig is the per-property velocity rule.
type PropertyScoreConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Mode is "status" or "multiplier".
	Mode         string             `json:"mode,omitempty" yaml:"mode,omitempty"`
	StatusScores map[string]float64 `json:"statusScores,omitempty" yaml:"statusScores,omitempty"`
	// MultiplierFactor defaults to 1 when unset.
	MultiplierFactor *float64 `json:"multiplierFactor,omitempty" yaml:"multiplierFactor,omitempty"`
	PenaltyMode      bool     `json:"penaltyMode,omitempty" yaml:"penaltyMode,omitempty"`
}

// Factor returns the multiplier factor, defaulting to 1.
func (c *PropertyScoreConfig) Factor() float64 {
	if c == nil || c.MultiplierFactor == nil {
		return 1
	}
	return *c.MultiplierFactor
}

// IsStatusRule reports whether the config is an enabled status rule.
func (c *PropertyScoreConfig) IsStatusRule() bool {
	return c != nil && c.Enabled && c.Mode == ScoreRuleStatus
}

// IsMultiplierRule reports whether the config is an enabled multiplier rule.
func (c *PropertyScoreConfig) IsMultiplierRule() bool {
	return c != nil && c.Enabled && c.Mode == ScoreRuleMultiplier
}
