package model

import (
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"
)

// Choice is an open decision point. The set of implementations is closed:
// *VariantChoice, *FeatureChoice and *ConceptChoice.
type Choice interface {
	ParentVariantID() string
	// Options is the number of remaining alternatives.
	Options() int
	// Complete reports whether at most one alternative is left.
	Complete() bool
	String() string

	isChoice()
}

var (
	_ Choice = (*VariantChoice)(nil)
	_ Choice = (*FeatureChoice)(nil)
	_ Choice = (*ConceptChoice)(nil)
)

// VariantChoice picks the variant fulfilling Purpose. ParentVariant is empty
// for root purposes.
type VariantChoice struct {
	ParentVariant string   `json:"parent_variant,omitempty"`
	Purpose       string   `json:"purpose"`
	Variants      []string `json:"variants"`
	Quantity      int      `json:"quantity"`
}

func (c *VariantChoice) isChoice() {}

func (c *VariantChoice) ParentVariantID() string { return c.ParentVariant }

func (c *VariantChoice) Options() int { return len(c.Variants) }

func (c *VariantChoice) Complete() bool { return len(c.Variants) < 2 }

func (c *VariantChoice) String() string {
	return fmt.Sprintf("variant %s/%s [%s]", c.ParentVariant, c.Purpose, strings.Join(c.Variants, ","))
}

// SetVariant narrows the choice to the variant. It reports false and leaves
// the choice untouched when the variant is not an option.
func (c *VariantChoice) SetVariant(variantID string) bool {
	if !pie.Contains(c.Variants, variantID) {
		return false
	}

	c.Variants = []string{variantID}
	return true
}

// Clear removes every option, turning the choice into a dead end.
func (c *VariantChoice) Clear() {
	c.Variants = nil
}

func (c *VariantChoice) Offers(variantID string) bool {
	return pie.Contains(c.Variants, variantID)
}

type FeatureChoice struct {
	ParentVariant string   `json:"parent_variant"`
	Feature       string   `json:"feature"`
	Values        []string `json:"values"`
}

func (c *FeatureChoice) isChoice() {}

func (c *FeatureChoice) ParentVariantID() string { return c.ParentVariant }

func (c *FeatureChoice) Options() int { return len(c.Values) }

func (c *FeatureChoice) Complete() bool { return len(c.Values) < 2 }

func (c *FeatureChoice) String() string {
	return fmt.Sprintf("feature %s/%s [%s]", c.ParentVariant, c.Feature, strings.Join(c.Values, ","))
}

func (c *FeatureChoice) SetValue(value string) bool {
	if !pie.Contains(c.Values, value) {
		return false
	}

	c.Values = []string{value}
	return true
}

func (c *FeatureChoice) Offers(value string) bool {
	return pie.Contains(c.Values, value)
}

// Restrict keeps only the values accepted by keep and reports whether any
// value was dropped.
func (c *FeatureChoice) Restrict(keep func(value string) bool) bool {
	kept := pie.Filter(c.Values, keep)
	if len(kept) == len(c.Values) {
		return false
	}

	c.Values = kept
	return true
}

type ConceptChoice struct {
	ParentVariant string   `json:"parent_variant"`
	Concepts      []string `json:"concepts"`
}

func (c *ConceptChoice) isChoice() {}

func (c *ConceptChoice) ParentVariantID() string { return c.ParentVariant }

func (c *ConceptChoice) Options() int { return len(c.Concepts) }

func (c *ConceptChoice) Complete() bool { return len(c.Concepts) < 2 }

func (c *ConceptChoice) String() string {
	return fmt.Sprintf("concept %s [%s]", c.ParentVariant, strings.Join(c.Concepts, ","))
}

func (c *ConceptChoice) SetConcept(conceptID string) bool {
	if !pie.Contains(c.Concepts, conceptID) {
		return false
	}

	c.Concepts = []string{conceptID}
	return true
}

func (c *ConceptChoice) Offers(conceptID string) bool {
	return pie.Contains(c.Concepts, conceptID)
}

func (c *ConceptChoice) Remove(conceptID string) bool {
	kept := pie.Filter(c.Concepts, func(id string) bool { return id != conceptID })
	if len(kept) == len(c.Concepts) {
		return false
	}

	c.Concepts = kept
	return true
}
