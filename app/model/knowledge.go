// Package model is the mutable tree the resolver rewrites while a session
// moves towards a resolved configuration.
package model

import (
	"github.com/elliotchance/pie/v2"
)

type FeatureValue struct {
	Feature string `json:"feature"`
	Value   string `json:"value"`
}

// Entity is a node of the configuration tree. Children hold no reference to
// their parent; a node is identified by its purpose and variant.
type Entity struct {
	Purpose       string         `json:"purpose"`
	Variant       string         `json:"variant"`
	Quantity      int            `json:"quantity"`
	FeatureValues []FeatureValue `json:"feature_values,omitempty"`
	Concepts      []string       `json:"concepts,omitempty"`
	Children      []*Entity      `json:"children,omitempty"`

	PossibleVariants []*VariantChoice `json:"possible_variants,omitempty"`
	PossibleFeatures []*FeatureChoice `json:"possible_features,omitempty"`
	PossibleConcepts []*ConceptChoice `json:"possible_concepts,omitempty"`
}

func (e *Entity) ID() string {
	return e.Purpose + ":" + e.Variant
}

// Resolved reports whether the entity has no open choices of its own.
func (e *Entity) Resolved() bool {
	return e.Purpose != "" && e.Variant != "" &&
		len(e.PossibleVariants) == 0 &&
		len(e.PossibleFeatures) == 0 &&
		len(e.PossibleConcepts) == 0
}

func (e *Entity) FeatureValue(featureID string) (string, bool) {
	idx := pie.FindFirstUsing(e.FeatureValues, func(fv FeatureValue) bool { return fv.Feature == featureID })
	if idx < 0 {
		return "", false
	}

	return e.FeatureValues[idx].Value, true
}

// SetFeatureValue assigns or replaces the value of a feature.
func (e *Entity) SetFeatureValue(featureID, value string) {
	idx := pie.FindFirstUsing(e.FeatureValues, func(fv FeatureValue) bool { return fv.Feature == featureID })
	if idx >= 0 {
		e.FeatureValues[idx].Value = value
		return
	}

	e.FeatureValues = append(e.FeatureValues, FeatureValue{Feature: featureID, Value: value})
}

func (e *Entity) RemoveFeatureValue(featureID string) bool {
	kept := pie.Filter(e.FeatureValues, func(fv FeatureValue) bool { return fv.Feature != featureID })
	if len(kept) == len(e.FeatureValues) {
		return false
	}

	e.FeatureValues = kept
	return true
}

func (e *Entity) FeatureChoice(featureID string) *FeatureChoice {
	idx := pie.FindFirstUsing(e.PossibleFeatures, func(c *FeatureChoice) bool { return c.Feature == featureID })
	if idx < 0 {
		return nil
	}

	return e.PossibleFeatures[idx]
}

func (e *Entity) HasConcept(conceptID string) bool {
	return pie.Contains(e.Concepts, conceptID)
}

// Choices returns every open choice of the entity, variants first.
func (e *Entity) Choices() []Choice {
	choices := make([]Choice, 0, len(e.PossibleVariants)+len(e.PossibleFeatures)+len(e.PossibleConcepts))
	for _, c := range e.PossibleVariants {
		choices = append(choices, c)
	}
	for _, c := range e.PossibleConcepts {
		choices = append(choices, c)
	}
	for _, c := range e.PossibleFeatures {
		choices = append(choices, c)
	}

	return choices
}

// Knowledge is the root aggregate: one top-level choice per unresolved root
// purpose plus the resolved root entities.
type Knowledge struct {
	Choices  []*VariantChoice `json:"choices,omitempty"`
	Entities []*Entity        `json:"entities,omitempty"`
	Stable   bool             `json:"stable"`
}

// Walk visits every entity depth-first, parents before children. Returning
// false from fn skips the entity's children.
func (k *Knowledge) Walk(fn func(e *Entity) bool) {
	var visit func(entities []*Entity)
	visit = func(entities []*Entity) {
		for _, e := range entities {
			if fn(e) {
				visit(e.Children)
			}
		}
	}

	visit(k.Entities)
}

// FindByVariant returns every entity whose variant is variantID.
func (k *Knowledge) FindByVariant(variantID string) []*Entity {
	var found []*Entity
	k.Walk(func(e *Entity) bool {
		if e.Variant == variantID {
			found = append(found, e)
		}
		return true
	})

	return found
}

// OpenChoices lists every choice still present anywhere in the tree.
func (k *Knowledge) OpenChoices() []Choice {
	var open []Choice
	for _, c := range k.Choices {
		open = append(open, c)
	}

	k.Walk(func(e *Entity) bool {
		open = append(open, e.Choices()...)
		return true
	})

	return open
}

// OffersVariant reports whether some open variant choice can still select
// the variant.
func (k *Knowledge) OffersVariant(variantID string) bool {
	for _, c := range k.Choices {
		if c.Offers(variantID) {
			return true
		}
	}

	offered := false
	k.Walk(func(e *Entity) bool {
		for _, c := range e.PossibleVariants {
			if c.Offers(variantID) {
				offered = true
			}
		}
		return !offered
	})

	return offered
}

// Resolved reports whether no choice is left anywhere in the tree.
func (k *Knowledge) Resolved() bool {
	return len(k.OpenChoices()) == 0
}

func (k *Knowledge) CountEntities() int {
	n := 0
	k.Walk(func(*Entity) bool {
		n++
		return true
	})

	return n
}
