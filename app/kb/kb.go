// Package kb holds the immutable knowledge base a configuration is resolved
// against. A KnowledgeBase is built once and shared read-only between sessions.
package kb

import (
	"github.com/elliotchance/pie/v2"
)

const defaultQuantity = 1

type KnowledgeBase struct {
	purposes  map[string]*Purpose
	variants  map[string]*Variant
	features  map[string]*Feature
	concepts  map[string]*Concept
	events    map[string]*Event
	relations map[string]*Relation
	rules     map[string]*Rule

	// declaration order, kept so resolution is deterministic
	purposeIDs  []string
	variantIDs  []string
	conceptIDs  []string
	eventIDs    []string
	relationIDs []string
	ruleIDs     []string
}

func newKnowledgeBase(doc *document) *KnowledgeBase {
	b := &KnowledgeBase{
		purposes:  make(map[string]*Purpose, len(doc.Purposes)),
		variants:  make(map[string]*Variant, len(doc.Variants)),
		features:  make(map[string]*Feature, len(doc.Features)),
		concepts:  make(map[string]*Concept, len(doc.Concepts)),
		events:    make(map[string]*Event, len(doc.Events)),
		relations: make(map[string]*Relation, len(doc.Relations)),
		rules:     make(map[string]*Rule, len(doc.Rules)),
	}

	for i := range doc.Purposes {
		p := &doc.Purposes[i]
		b.purposes[p.ID] = p
		b.purposeIDs = append(b.purposeIDs, p.ID)
	}
	for i := range doc.Variants {
		v := &doc.Variants[i]
		if _, ok := b.variants[v.ID]; !ok {
			b.variantIDs = append(b.variantIDs, v.ID)
		}
		b.variants[v.ID] = v
	}
	for i := range doc.Features {
		b.features[doc.Features[i].ID] = &doc.Features[i]
	}
	for i := range doc.Concepts {
		c := &doc.Concepts[i]
		if _, ok := b.concepts[c.ID]; !ok {
			b.conceptIDs = append(b.conceptIDs, c.ID)
		}
		b.concepts[c.ID] = c
	}
	for i := range doc.Events {
		e := &doc.Events[i]
		b.events[e.ID] = e
		b.eventIDs = append(b.eventIDs, e.ID)
	}
	for i := range doc.Relations {
		r := &doc.Relations[i]
		b.relations[r.ID] = r
		b.relationIDs = append(b.relationIDs, r.ID)
	}
	for i := range doc.Rules {
		r := &doc.Rules[i]
		b.rules[r.ID] = r
		b.ruleIDs = append(b.ruleIDs, r.ID)
	}

	return b
}

func (b *KnowledgeBase) Purpose(id string) (*Purpose, bool) {
	p, ok := b.purposes[id]
	return p, ok
}

func (b *KnowledgeBase) Variant(id string) (*Variant, bool) {
	v, ok := b.variants[id]
	return v, ok
}

func (b *KnowledgeBase) Feature(id string) (*Feature, bool) {
	f, ok := b.features[id]
	return f, ok
}

func (b *KnowledgeBase) Concept(id string) (*Concept, bool) {
	c, ok := b.concepts[id]
	return c, ok
}

func (b *KnowledgeBase) Event(id string) (*Event, bool) {
	e, ok := b.events[id]
	return e, ok
}

func (b *KnowledgeBase) Relation(id string) (*Relation, bool) {
	r, ok := b.relations[id]
	return r, ok
}

func (b *KnowledgeBase) Rule(id string) (*Rule, bool) {
	r, ok := b.rules[id]
	return r, ok
}

// RootPurposes returns the root purposes in declaration order.
func (b *KnowledgeBase) RootPurposes() []*Purpose {
	var roots []*Purpose
	for _, id := range b.purposeIDs {
		if p := b.purposes[id]; p.Root {
			roots = append(roots, p)
		}
	}

	return roots
}

func (b *KnowledgeBase) EventIDs() []string {
	return b.eventIDs
}

func (b *KnowledgeBase) RelationIDs() []string {
	return b.relationIDs
}

func (b *KnowledgeBase) RuleIDs() []string {
	return b.ruleIDs
}

// FulfillingVariants returns the variants that can fulfill the purpose, or nil
// for an unknown purpose.
func (b *KnowledgeBase) FulfillingVariants(purposeID string) []string {
	p, ok := b.purposes[purposeID]
	if !ok {
		return nil
	}

	return p.Variants
}

// ConstitutingPurposes returns the purposes a variant is made of.
func (b *KnowledgeBase) ConstitutingPurposes(variantID string) []string {
	v, ok := b.variants[variantID]
	if !ok {
		return nil
	}

	return v.Purposes
}

func (b *KnowledgeBase) IsFulfilledBy(purposeID, variantID string) bool {
	return pie.Contains(b.FulfillingVariants(purposeID), variantID)
}

func (b *KnowledgeBase) IsConstitutedBy(variantID, purposeID string) bool {
	return pie.Contains(b.ConstitutingPurposes(variantID), purposeID)
}

// Quantity returns how many instances of the variant fill the purpose. It
// falls back to the purpose default and then to one.
func (b *KnowledgeBase) Quantity(purposeID, variantID string) int {
	p, ok := b.purposes[purposeID]
	if !ok {
		return defaultQuantity
	}

	if q, ok := p.Quantities[variantID]; ok && q > 0 {
		return q
	}

	if p.Quantity > 0 {
		return p.Quantity
	}

	return defaultQuantity
}

// IsAllowedValue reports whether value is declared for the feature.
func (b *KnowledgeBase) IsAllowedValue(featureID, value string) bool {
	f, ok := b.features[featureID]
	if !ok {
		return false
	}

	return pie.Contains(f.Values, value)
}
