package kb

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type DiagnosticKind string

const (
	DiagSchema      DiagnosticKind = "schema"
	DiagDuplicate   DiagnosticKind = "duplicate"
	DiagReference   DiagnosticKind = "reference"
	DiagContextPath DiagnosticKind = "context_path"
	DiagEvent       DiagnosticKind = "event"
	DiagRelation    DiagnosticKind = "relation"
	DiagRule        DiagnosticKind = "rule"
)

// Diagnostic is one structural defect found while validating a knowledge base.
type Diagnostic struct {
	Kind    DiagnosticKind
	ID      string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.ID, d.Message)
}

var ErrInvalid = errors.New("invalid knowledge base")

// Load reads, parses and validates a knowledge base file.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("kb").With("path", path).Errorf("failed to read knowledge base: %w", err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, oops.In("kb").With("path", path).Wrap(err)
	}

	return b, nil
}

// Parse decodes YAML and fails if any diagnostic is reported.
func Parse(data []byte) (*KnowledgeBase, error) {
	b, diags, err := ParseUnchecked(data)
	if err != nil {
		return nil, err
	}

	if len(diags) > 0 {
		lines := pie.Map(diags, func(d Diagnostic) string { return d.String() })
		return nil, oops.In("kb").
			Code("invalid_knowledge_base").
			With("diagnostics", len(diags)).
			Wrapf(ErrInvalid, "%s", strings.Join(lines, "; "))
	}

	return b, nil
}

// ParseUnchecked decodes YAML and returns the knowledge base together with
// every diagnostic found, leaving it to the caller to decide what is fatal.
func ParseUnchecked(data []byte) (*KnowledgeBase, []Diagnostic, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, oops.In("kb").Errorf("failed to parse YAML knowledge base: %w", err)
	}

	diags := validateSchema(&doc)
	diags = append(diags, duplicates(&doc)...)

	b := newKnowledgeBase(&doc)
	diags = append(diags, b.Validate()...)

	return b, diags, nil
}

func validateSchema(doc *document) []Diagnostic {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(doc)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Diagnostic{{Kind: DiagSchema, Message: err.Error()}}
	}

	diags := make([]Diagnostic, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		diags = append(diags, Diagnostic{
			Kind:    DiagSchema,
			ID:      fe.Namespace(),
			Message: fmt.Sprintf("failed on %q rule", fe.Tag()),
		})
	}

	return diags
}

func duplicates(doc *document) []Diagnostic {
	var diags []Diagnostic

	check := func(kind string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				diags = append(diags, Diagnostic{Kind: DiagDuplicate, ID: id, Message: kind + " declared twice"})
			}
			seen[id] = true
		}
	}

	check("purpose", pie.Map(doc.Purposes, func(p Purpose) string { return p.ID }))
	check("variant", pie.Map(doc.Variants, func(v Variant) string { return v.ID }))
	check("feature", pie.Map(doc.Features, func(f Feature) string { return f.ID }))
	check("concept", pie.Map(doc.Concepts, func(c Concept) string { return c.ID }))
	check("event", pie.Map(doc.Events, func(e Event) string { return e.ID }))
	check("relation", pie.Map(doc.Relations, func(r Relation) string { return r.ID }))
	check("rule", pie.Map(doc.Rules, func(r Rule) string { return r.ID }))

	return diags
}

// Validate checks reference integrity and context paths in a single pass.
func (b *KnowledgeBase) Validate() []Diagnostic {
	var diags []Diagnostic
	report := func(kind DiagnosticKind, id, format string, args ...any) {
		diags = append(diags, Diagnostic{Kind: kind, ID: id, Message: fmt.Sprintf(format, args...)})
	}

	for _, pid := range b.purposeIDs {
		for _, vid := range b.purposes[pid].Variants {
			if _, ok := b.variants[vid]; !ok {
				report(DiagReference, pid, "unknown fulfilling variant %q", vid)
			}
		}
	}

	for _, id := range b.variantIDs {
		v := b.variants[id]
		for _, pid := range v.Purposes {
			if _, ok := b.purposes[pid]; !ok {
				report(DiagReference, id, "unknown constituting purpose %q", pid)
			}
		}
		for _, fid := range v.Features {
			if _, ok := b.features[fid]; !ok {
				report(DiagReference, id, "unknown feature %q", fid)
			}
		}
		for _, cid := range v.Concepts {
			c, ok := b.concepts[cid]
			if !ok {
				report(DiagReference, id, "unknown concept %q", cid)
				continue
			}
			for _, fv := range c.Values {
				if !pie.Contains(v.Features, fv.Feature) {
					report(DiagReference, id, "concept %q sets feature %q the variant does not declare", cid, fv.Feature)
				}
			}
		}
	}

	for _, id := range b.conceptIDs {
		for _, fv := range b.concepts[id].Values {
			if !b.IsAllowedValue(fv.Feature, fv.Value) {
				report(DiagReference, id, "value %q is not allowed for feature %q", fv.Value, fv.Feature)
			}
		}
	}

	for _, id := range b.eventIDs {
		b.validateEvent(b.events[id], report)
	}
	for _, id := range b.relationIDs {
		b.validateRelation(b.relations[id], report)
	}
	for _, id := range b.ruleIDs {
		b.validateRule(b.rules[id], report)
	}

	return diags
}

type reportFunc func(kind DiagnosticKind, id, format string, args ...any)

// checkPath verifies that path starts at the nexus and that every edge is a
// constitutes or fulfills edge. It returns the last element.
func (b *KnowledgeBase) checkPath(id, nexus string, path []string, report reportFunc) (string, bool) {
	if len(path) == 0 {
		report(DiagContextPath, id, "empty context path")
		return "", false
	}
	if path[0] != nexus {
		report(DiagContextPath, id, "path starts at %q, expected nexus %q", path[0], nexus)
		return "", false
	}

	for i := 1; i < len(path); i++ {
		if i%2 == 1 && !b.IsConstitutedBy(path[i-1], path[i]) {
			report(DiagContextPath, id, "variant %q is not constituted by purpose %q", path[i-1], path[i])
			return "", false
		}
		if i%2 == 0 && !b.IsFulfilledBy(path[i-1], path[i]) {
			report(DiagContextPath, id, "purpose %q is not fulfilled by variant %q", path[i-1], path[i])
			return "", false
		}
	}

	return path[len(path)-1], true
}

func (b *KnowledgeBase) validateEvent(e *Event, report reportFunc) {
	if _, ok := b.variants[e.Variant]; !ok {
		report(DiagReference, e.ID, "unknown nexus variant %q", e.Variant)
		return
	}

	last, ok := b.checkPath(e.ID, e.Variant, e.Path, report)
	if !ok {
		return
	}

	endsOnPurpose := len(e.Path)%2 == 0

	switch e.Kind {
	case EventVariant:
		if !endsOnPurpose {
			report(DiagEvent, e.ID, "variant event path must end on a purpose")
			return
		}
		if !b.IsFulfilledBy(last, e.TriggerVariant) {
			report(DiagEvent, e.ID, "trigger variant %q does not fulfill %q", e.TriggerVariant, last)
		}
	case EventFeature:
		if endsOnPurpose {
			report(DiagEvent, e.ID, "feature event path must end on a variant")
			return
		}
		if v := b.variants[last]; !pie.Contains(v.Features, e.TriggerFeature) {
			report(DiagEvent, e.ID, "variant %q does not declare feature %q", last, e.TriggerFeature)
			return
		}
		if !b.IsAllowedValue(e.TriggerFeature, e.TriggerValue) {
			report(DiagEvent, e.ID, "value %q is not allowed for feature %q", e.TriggerValue, e.TriggerFeature)
		}
	case EventConcept:
		if endsOnPurpose {
			report(DiagEvent, e.ID, "concept event path must end on a variant")
			return
		}
		if v := b.variants[last]; !pie.Contains(v.Concepts, e.TriggerConcept) {
			report(DiagEvent, e.ID, "variant %q does not declare concept %q", last, e.TriggerConcept)
		}
	}
}

func (b *KnowledgeBase) validateRelation(r *Relation, report reportFunc) {
	if _, ok := b.variants[r.Variant]; !ok {
		report(DiagReference, r.ID, "unknown nexus variant %q", r.Variant)
		return
	}

	if r.Condition != "" {
		if _, ok := b.events[r.Condition]; !ok {
			report(DiagReference, r.ID, "unknown conditional event %q", r.Condition)
		}
	}

	if r.Left.IsConstant() && r.Right.IsConstant() {
		report(DiagRelation, r.ID, "both sides are constants")
	}

	sides := []struct {
		name  string
		param RelationParameter
	}{{"left", r.Left}, {"right", r.Right}}

	for _, s := range sides {
		side, p := s.name, s.param
		if p.IsConstant() {
			if p.Feature != "" {
				report(DiagRelation, r.ID, "%s side sets both a feature and a constant", side)
			}
			continue
		}
		if p.Feature == "" {
			report(DiagRelation, r.ID, "%s side has neither a feature nor a constant", side)
			continue
		}

		path := p.Path
		if len(path) == 0 {
			path = []string{r.Variant}
		}
		last, ok := b.checkPath(r.ID, r.Variant, path, report)
		if !ok {
			continue
		}
		if len(path)%2 == 0 {
			report(DiagRelation, r.ID, "%s side path must end on a variant", side)
			continue
		}
		if v := b.variants[last]; !pie.Contains(v.Features, p.Feature) {
			report(DiagRelation, r.ID, "variant %q does not declare feature %q", last, p.Feature)
		}
	}
}

func (b *KnowledgeBase) validateRule(r *Rule, report reportFunc) {
	if _, ok := b.variants[r.Variant]; !ok {
		report(DiagReference, r.ID, "unknown nexus variant %q", r.Variant)
	}
	if _, ok := b.events[r.Conclusion]; !ok {
		report(DiagRule, r.ID, "unknown conclusion event %q", r.Conclusion)
	}
	if r.SelfFulfilling() {
		return
	}
	for _, premise := range r.Premises {
		if _, ok := b.events[premise]; !ok {
			report(DiagRule, r.ID, "unknown premise event %q", premise)
		}
	}
}
