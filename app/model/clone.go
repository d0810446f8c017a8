package model

import "slices"

func (k *Knowledge) Clone() *Knowledge {
	if k == nil {
		return nil
	}

	return &Knowledge{
		Choices:  cloneEach(k.Choices, (*VariantChoice).Clone),
		Entities: cloneEach(k.Entities, (*Entity).Clone),
		Stable:   k.Stable,
	}
}

func (e *Entity) Clone() *Entity {
	return &Entity{
		Purpose:          e.Purpose,
		Variant:          e.Variant,
		Quantity:         e.Quantity,
		FeatureValues:    slices.Clone(e.FeatureValues),
		Concepts:         slices.Clone(e.Concepts),
		Children:         cloneEach(e.Children, (*Entity).Clone),
		PossibleVariants: cloneEach(e.PossibleVariants, (*VariantChoice).Clone),
		PossibleFeatures: cloneEach(e.PossibleFeatures, (*FeatureChoice).Clone),
		PossibleConcepts: cloneEach(e.PossibleConcepts, (*ConceptChoice).Clone),
	}
}

func (c *VariantChoice) Clone() *VariantChoice {
	cp := *c
	cp.Variants = slices.Clone(c.Variants)
	return &cp
}

func (c *FeatureChoice) Clone() *FeatureChoice {
	cp := *c
	cp.Values = slices.Clone(c.Values)
	return &cp
}

func (c *ConceptChoice) Clone() *ConceptChoice {
	cp := *c
	cp.Concepts = slices.Clone(c.Concepts)
	return &cp
}

func cloneEach[T any](items []*T, clone func(*T) *T) []*T {
	if items == nil {
		return nil
	}

	out := make([]*T, len(items))
	for i, item := range items {
		out[i] = clone(item)
	}

	return out
}
