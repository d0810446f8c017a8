package model

import (
	"errors"
	"fmt"
	"strings"
)

// Decision is a client supplied resolution of one Choice. Implementations:
// VariantDecision, FeatureDecision and ConceptDecision.
type Decision interface {
	String() string

	isDecision()
}

var (
	_ Decision = VariantDecision{}
	_ Decision = FeatureDecision{}
	_ Decision = ConceptDecision{}
)

type VariantDecision struct {
	Purpose string `json:"purpose"`
	Variant string `json:"variant"`
}

func (VariantDecision) isDecision() {}

func (d VariantDecision) String() string {
	return fmt.Sprintf("variant %s %s", d.Purpose, d.Variant)
}

type FeatureDecision struct {
	Variant string `json:"variant"`
	Feature string `json:"feature"`
	Value   string `json:"value"`
}

func (FeatureDecision) isDecision() {}

func (d FeatureDecision) String() string {
	return fmt.Sprintf("feature %s %s %s", d.Variant, d.Feature, d.Value)
}

type ConceptDecision struct {
	Variant string `json:"variant"`
	Concept string `json:"concept"`
}

func (ConceptDecision) isDecision() {}

func (d ConceptDecision) String() string {
	return fmt.Sprintf("concept %s %s", d.Variant, d.Concept)
}

var ErrBadDecision = errors.New("malformed decision")

// ParseDecision parses the textual form produced by Decision.String:
//
//	variant <purpose> <variant>
//	feature <variant> <feature> <value>
//	concept <variant> <concept>
func ParseDecision(line string) (Decision, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrBadDecision)
	}

	kind, args := strings.ToLower(fields[0]), fields[1:]

	switch kind {
	case "variant":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: want 'variant <purpose> <variant>'", ErrBadDecision)
		}
		return VariantDecision{Purpose: args[0], Variant: args[1]}, nil
	case "feature":
		if len(args) != 3 {
			return nil, fmt.Errorf("%w: want 'feature <variant> <feature> <value>'", ErrBadDecision)
		}
		return FeatureDecision{Variant: args[0], Feature: args[1], Value: args[2]}, nil
	case "concept":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: want 'concept <variant> <concept>'", ErrBadDecision)
		}
		return ConceptDecision{Variant: args[0], Concept: args[1]}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrBadDecision, fields[0])
	}
}
