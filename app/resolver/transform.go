package resolver

import (
	"slices"
	"varconf/app/kb"
	"varconf/app/model"
)

// Event is the engine view of a knowledge base event. Implementations:
// VariantEvent, FeatureEvent and ConceptEvent.
type Event interface {
	EventID() string
	Nexus() string
	// WalkPath is the context path the walker follows. It always ends on a
	// variant element.
	WalkPath() []string
	Inverted() bool

	isEvent()
}

// VariantEvent fires when TriggeringVariant is selected for the purpose its
// path ends on.
type VariantEvent struct {
	ID                string
	Variant           string
	Path              []string
	TriggeringVariant string
	Not               bool
}

func (VariantEvent) isEvent()           {}
func (e VariantEvent) EventID() string  { return e.ID }
func (e VariantEvent) Nexus() string    { return e.Variant }
func (e VariantEvent) Inverted() bool   { return e.Not }
func (e VariantEvent) WalkPath() []string {
	return append(slices.Clone(e.Path), e.TriggeringVariant)
}

type FeatureEvent struct {
	ID                     string
	Variant                string
	Path                   []string
	TriggeringFeature      string
	TriggeringFeatureValue string
	Not                    bool
}

func (FeatureEvent) isEvent()             {}
func (e FeatureEvent) EventID() string    { return e.ID }
func (e FeatureEvent) Nexus() string      { return e.Variant }
func (e FeatureEvent) Inverted() bool     { return e.Not }
func (e FeatureEvent) WalkPath() []string { return e.Path }

type ConceptEvent struct {
	ID                string
	Variant           string
	Path              []string
	TriggeringConcept string
	Not               bool
}

func (ConceptEvent) isEvent()             {}
func (e ConceptEvent) EventID() string    { return e.ID }
func (e ConceptEvent) Nexus() string      { return e.Variant }
func (e ConceptEvent) Inverted() bool     { return e.Not }
func (e ConceptEvent) WalkPath() []string { return e.Path }

// RelationParameter is FeatureParameter or ConstantParameter.
type RelationParameter interface {
	isParameter()
}

type FeatureParameter struct {
	Feature string
	Path    []string
}

type ConstantParameter struct {
	Value string
}

func (FeatureParameter) isParameter()  {}
func (ConstantParameter) isParameter() {}

type Relation struct {
	ID        string
	Variant   string
	Left      RelationParameter
	Right     RelationParameter
	Operator  kb.Operator
	Condition string
}

type Rule struct {
	ID         string
	Variant    string
	Premises   []string
	Conclusion string
}

func (r *Rule) SelfFulfilling() bool {
	return len(r.Premises) == 1 && r.Premises[0] == r.Variant
}

// Transformer converts knowledge base value objects into engine objects.
type Transformer struct {
	kb *kb.KnowledgeBase
}

func NewTransformer(base *kb.KnowledgeBase) *Transformer {
	return &Transformer{kb: base}
}

func (t *Transformer) Event(id string) (Event, error) {
	e, ok := t.kb.Event(id)
	if !ok {
		return nil, stageError("transform").With("event", id).Wrapf(ErrUnknownReference, "event %q", id)
	}

	malformed := func(reason string) error {
		return stageError("transform").With("event", id).Wrapf(ErrMalformed, "event %q: %s", id, reason)
	}

	if len(e.Path) == 0 || e.Path[0] != e.Variant {
		return nil, malformed("context path must start at the nexus variant")
	}
	endsOnPurpose := len(e.Path)%2 == 0

	switch e.Kind {
	case kb.EventVariant:
		if !endsOnPurpose || e.TriggerVariant == "" {
			return nil, malformed("variant event needs a purpose-ending path and a trigger variant")
		}
		return VariantEvent{
			ID:                e.ID,
			Variant:           e.Variant,
			Path:              e.Path,
			TriggeringVariant: e.TriggerVariant,
			Not:               e.Not,
		}, nil
	case kb.EventFeature:
		if endsOnPurpose || e.TriggerFeature == "" {
			return nil, malformed("feature event needs a variant-ending path and a trigger feature")
		}
		return FeatureEvent{
			ID:                     e.ID,
			Variant:                e.Variant,
			Path:                   e.Path,
			TriggeringFeature:      e.TriggerFeature,
			TriggeringFeatureValue: e.TriggerValue,
			Not:                    e.Not,
		}, nil
	case kb.EventConcept:
		if endsOnPurpose || e.TriggerConcept == "" {
			return nil, malformed("concept event needs a variant-ending path and a trigger concept")
		}
		return ConceptEvent{
			ID:                e.ID,
			Variant:           e.Variant,
			Path:              e.Path,
			TriggeringConcept: e.TriggerConcept,
			Not:               e.Not,
		}, nil
	default:
		return nil, malformed("unknown event kind " + string(e.Kind))
	}
}

func (t *Transformer) Relation(id string) (*Relation, error) {
	r, ok := t.kb.Relation(id)
	if !ok {
		return nil, stageError("transform").With("relation", id).Wrapf(ErrUnknownReference, "relation %q", id)
	}

	switch r.Operator {
	case kb.OpEqual, kb.OpNotEqual, kb.OpLessThan, kb.OpLessOrEqual, kb.OpGreaterThan, kb.OpGreaterOrEqual:
	default:
		return nil, stageError("transform").With("relation", id).Wrapf(ErrMalformed, "relation %q: unknown operator %q", id, r.Operator)
	}

	if r.Left.IsConstant() && r.Right.IsConstant() {
		return nil, stageError("transform").With("relation", id).Wrapf(ErrMalformed, "relation %q: both sides are constants", id)
	}

	left, err := t.parameter(r, r.Left)
	if err != nil {
		return nil, err
	}
	right, err := t.parameter(r, r.Right)
	if err != nil {
		return nil, err
	}

	return &Relation{
		ID:        r.ID,
		Variant:   r.Variant,
		Left:      left,
		Right:     right,
		Operator:  r.Operator,
		Condition: r.Condition,
	}, nil
}

func (t *Transformer) parameter(r *kb.Relation, p kb.RelationParameter) (RelationParameter, error) {
	if p.IsConstant() {
		return ConstantParameter{Value: *p.Constant}, nil
	}

	path := p.Path
	if len(path) == 0 {
		path = []string{r.Variant}
	}

	if p.Feature == "" || path[0] != r.Variant || len(path)%2 == 0 {
		return nil, stageError("transform").
			With("relation", r.ID).
			Wrapf(ErrMalformed, "relation %q: parameter needs a feature and a variant-ending path from the nexus", r.ID)
	}

	return FeatureParameter{Feature: p.Feature, Path: path}, nil
}

func (t *Transformer) Rule(id string) (*Rule, error) {
	r, ok := t.kb.Rule(id)
	if !ok {
		return nil, stageError("transform").With("rule", id).Wrapf(ErrUnknownReference, "rule %q", id)
	}

	if len(r.Premises) == 0 || r.Conclusion == "" {
		return nil, stageError("transform").With("rule", id).Wrapf(ErrMalformed, "rule %q: needs premises and a conclusion", id)
	}

	return &Rule{
		ID:         r.ID,
		Variant:    r.Variant,
		Premises:   r.Premises,
		Conclusion: r.Conclusion,
	}, nil
}

// RootChoices builds the initial top-level choices, one per root purpose.
func (t *Transformer) RootChoices() []*model.VariantChoice {
	roots := t.kb.RootPurposes()

	choices := make([]*model.VariantChoice, 0, len(roots))
	for _, p := range roots {
		choices = append(choices, t.variantChoice("", p))
	}

	return choices
}

func (t *Transformer) variantChoice(parentVariant string, p *kb.Purpose) *model.VariantChoice {
	quantity := p.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	return &model.VariantChoice{
		ParentVariant: parentVariant,
		Purpose:       p.ID,
		Variants:      slices.Clone(p.Variants),
		Quantity:      quantity,
	}
}

// Entity materializes a tree node for the variant fulfilling the purpose,
// with fresh choices for everything the variant declares.
func (t *Transformer) Entity(purposeID, variantID string) (*model.Entity, error) {
	if _, ok := t.kb.Purpose(purposeID); !ok {
		return nil, stageError("transform").With("purpose", purposeID).Wrapf(ErrUnknownReference, "purpose %q", purposeID)
	}

	v, ok := t.kb.Variant(variantID)
	if !ok {
		return nil, stageError("transform").With("variant", variantID).Wrapf(ErrUnknownReference, "variant %q", variantID)
	}

	e := &model.Entity{
		Purpose:  purposeID,
		Variant:  variantID,
		Quantity: t.kb.Quantity(purposeID, variantID),
	}

	for _, pid := range v.Purposes {
		p, ok := t.kb.Purpose(pid)
		if !ok {
			return nil, stageError("transform").With("purpose", pid).Wrapf(ErrUnknownReference, "purpose %q", pid)
		}
		e.PossibleVariants = append(e.PossibleVariants, t.variantChoice(variantID, p))
	}

	for _, fid := range v.Features {
		f, ok := t.kb.Feature(fid)
		if !ok {
			return nil, stageError("transform").With("feature", fid).Wrapf(ErrUnknownReference, "feature %q", fid)
		}
		e.PossibleFeatures = append(e.PossibleFeatures, &model.FeatureChoice{
			ParentVariant: variantID,
			Feature:       fid,
			Values:        slices.Clone(f.Values),
		})
	}

	if len(v.Concepts) > 0 {
		e.PossibleConcepts = append(e.PossibleConcepts, &model.ConceptChoice{
			ParentVariant: variantID,
			Concepts:      slices.Clone(v.Concepts),
		})
	}

	return e, nil
}
