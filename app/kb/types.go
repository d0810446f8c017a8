package kb

type FeatureType string

const (
	FeatureString  FeatureType = "string"
	FeatureNumber  FeatureType = "number"
	FeatureBoolean FeatureType = "boolean"
)

type EventKind string

const (
	EventVariant EventKind = "variant"
	EventFeature EventKind = "feature"
	EventConcept EventKind = "concept"
)

type Operator string

const (
	OpEqual          Operator = "EQUAL"
	OpNotEqual       Operator = "NOT_EQUAL"
	OpLessThan       Operator = "LESS_THAN"
	OpLessOrEqual    Operator = "LESS_OR_EQUAL"
	OpGreaterThan    Operator = "GREATER_THAN"
	OpGreaterOrEqual Operator = "GREATER_OR_EQUAL"
)

// Purpose is a role in the configuration tree. Variants lists the variants
// fulfilling it; Quantities overrides Quantity per fulfilling variant.
type Purpose struct {
	ID         string         `yaml:"id" validate:"required"`
	Name       string         `yaml:"name"`
	Root       bool           `yaml:"root"`
	Variants   []string       `yaml:"variants" validate:"min=1,dive,required"`
	Quantity   int            `yaml:"quantity" validate:"gte=0"`
	Quantities map[string]int `yaml:"quantities"`
}

// Variant fulfills purposes and is constituted by its own Purposes.
type Variant struct {
	ID       string   `yaml:"id" validate:"required"`
	Name     string   `yaml:"name"`
	Purposes []string `yaml:"purposes" validate:"dive,required"`
	Features []string `yaml:"features" validate:"dive,required"`
	Concepts []string `yaml:"concepts" validate:"dive,required"`
}

type Feature struct {
	ID     string      `yaml:"id" validate:"required"`
	Name   string      `yaml:"name"`
	Type   FeatureType `yaml:"type" validate:"omitempty,oneof=string number boolean"`
	Values []string    `yaml:"values" validate:"min=1,dive,required"`
}

type FeatureValue struct {
	Feature string `yaml:"feature" validate:"required"`
	Value   string `yaml:"value" validate:"required"`
}

// Concept bundles feature values selectable as a unit.
type Concept struct {
	ID     string         `yaml:"id" validate:"required"`
	Name   string         `yaml:"name"`
	Values []FeatureValue `yaml:"values" validate:"min=1,dive"`
}

// Event is the stored form of every event kind. Path starts at the nexus
// variant and alternates variant and purpose ids. Variant events end their
// path on a purpose, feature and concept events end it on a variant.
type Event struct {
	ID             string    `yaml:"id" validate:"required"`
	Kind           EventKind `yaml:"kind" validate:"required,oneof=variant feature concept"`
	Variant        string    `yaml:"variant" validate:"required"`
	Path           []string  `yaml:"path" validate:"min=1,dive,required"`
	TriggerVariant string    `yaml:"trigger_variant"`
	TriggerFeature string    `yaml:"trigger_feature"`
	TriggerValue   string    `yaml:"trigger_value"`
	TriggerConcept string    `yaml:"trigger_concept"`
	Not            bool      `yaml:"not"`
}

// RelationParameter is either a feature reached through Path or a Constant.
type RelationParameter struct {
	Feature  string   `yaml:"feature"`
	Path     []string `yaml:"path"`
	Constant *string  `yaml:"constant"`
}

func (p RelationParameter) IsConstant() bool {
	return p.Constant != nil
}

type Relation struct {
	ID        string            `yaml:"id" validate:"required"`
	Variant   string            `yaml:"variant" validate:"required"`
	Left      RelationParameter `yaml:"left"`
	Right     RelationParameter `yaml:"right"`
	Operator  Operator          `yaml:"operator" validate:"required,oneof=EQUAL NOT_EQUAL LESS_THAN LESS_OR_EQUAL GREATER_THAN GREATER_OR_EQUAL"`
	Condition string            `yaml:"condition"`
}

type Rule struct {
	ID         string   `yaml:"id" validate:"required"`
	Variant    string   `yaml:"variant" validate:"required"`
	Premises   []string `yaml:"premises" validate:"min=1,dive,required"`
	Conclusion string   `yaml:"conclusion" validate:"required"`
}

// SelfFulfilling reports whether the rule's only premise is its own variant.
func (r *Rule) SelfFulfilling() bool {
	return len(r.Premises) == 1 && r.Premises[0] == r.Variant
}

// document is the on-disk layout of a knowledge base.
type document struct {
	Purposes  []Purpose  `yaml:"purposes" validate:"dive"`
	Variants  []Variant  `yaml:"variants" validate:"dive"`
	Features  []Feature  `yaml:"features" validate:"dive"`
	Concepts  []Concept  `yaml:"concepts" validate:"dive"`
	Events    []Event    `yaml:"events" validate:"dive"`
	Relations []Relation `yaml:"relations" validate:"dive"`
	Rules     []Rule     `yaml:"rules" validate:"dive"`
}
