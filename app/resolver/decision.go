package resolver

import (
	"log/slog"
	"varconf/app/kb"
	"varconf/app/model"
)

// VariantDecisionEvaluator narrows every variant choice for the decided
// purpose to the decided variant.
type VariantDecisionEvaluator struct {
	kb   *kb.KnowledgeBase
	opts Options
}

func (r *VariantDecisionEvaluator) Name() string { return "variant-decision" }

func (r *VariantDecisionEvaluator) Resolve(k *model.Knowledge, d model.Decision, _ *Handler, md *Metadata) (*model.Knowledge, error) {
	decision, ok := d.(model.VariantDecision)
	if !ok {
		return k, nil
	}

	purpose, ok := r.kb.Purpose(decision.Purpose)
	if !ok {
		return nil, stageError(r.Name()).With("purpose", decision.Purpose).Wrapf(ErrUnknownReference, "purpose %q", decision.Purpose)
	}
	if _, ok := r.kb.Variant(decision.Variant); !ok {
		return nil, stageError(r.Name()).With("variant", decision.Variant).Wrapf(ErrUnknownReference, "variant %q", decision.Variant)
	}

	found := false
	apply := func(c *model.VariantChoice) {
		if c.Purpose != decision.Purpose {
			return
		}
		if c.SetVariant(decision.Variant) {
			found = true
			md.Record(decisionKey(decision, c), "narrowed to %s", decision.Variant)
		}
	}

	for _, c := range k.Choices {
		apply(c)
	}
	k.Walk(func(e *model.Entity) bool {
		for _, c := range e.PossibleVariants {
			apply(c)
		}
		return true
	})

	if found && purpose.Root && r.opts.RootPurposeOptional {
		for _, c := range k.Choices {
			if c.Purpose != decision.Purpose && c.Options() > 0 {
				c.Clear()
				md.Record(decisionKey(decision, c), "cleared by exclusive root %s", decision.Purpose)
			}
		}
	}

	logOutcome(d, found)

	return k, nil
}

// FeatureDecisionEvaluator narrows the feature choice of the decided variant.
type FeatureDecisionEvaluator struct {
	kb *kb.KnowledgeBase
}

func (r *FeatureDecisionEvaluator) Name() string { return "feature-decision" }

func (r *FeatureDecisionEvaluator) Resolve(k *model.Knowledge, d model.Decision, _ *Handler, md *Metadata) (*model.Knowledge, error) {
	decision, ok := d.(model.FeatureDecision)
	if !ok {
		return k, nil
	}

	if _, ok := r.kb.Variant(decision.Variant); !ok {
		return nil, stageError(r.Name()).With("variant", decision.Variant).Wrapf(ErrUnknownReference, "variant %q", decision.Variant)
	}
	if _, ok := r.kb.Feature(decision.Feature); !ok {
		return nil, stageError(r.Name()).With("feature", decision.Feature).Wrapf(ErrUnknownReference, "feature %q", decision.Feature)
	}

	found := false
	k.Walk(func(e *model.Entity) bool {
		for _, c := range e.PossibleFeatures {
			if c.ParentVariant != decision.Variant || c.Feature != decision.Feature {
				continue
			}
			if c.SetValue(decision.Value) {
				found = true
				md.Record(decisionKey(decision, c), "narrowed to %s", decision.Value)
			}
		}
		return true
	})

	logOutcome(d, found)

	return k, nil
}

// ConceptDecisionEvaluator narrows the concept choice of the decided variant.
type ConceptDecisionEvaluator struct {
	kb *kb.KnowledgeBase
}

func (r *ConceptDecisionEvaluator) Name() string { return "concept-decision" }

func (r *ConceptDecisionEvaluator) Resolve(k *model.Knowledge, d model.Decision, _ *Handler, md *Metadata) (*model.Knowledge, error) {
	decision, ok := d.(model.ConceptDecision)
	if !ok {
		return k, nil
	}

	if _, ok := r.kb.Variant(decision.Variant); !ok {
		return nil, stageError(r.Name()).With("variant", decision.Variant).Wrapf(ErrUnknownReference, "variant %q", decision.Variant)
	}
	if _, ok := r.kb.Concept(decision.Concept); !ok {
		return nil, stageError(r.Name()).With("concept", decision.Concept).Wrapf(ErrUnknownReference, "concept %q", decision.Concept)
	}

	found := false
	k.Walk(func(e *model.Entity) bool {
		for _, c := range e.PossibleConcepts {
			if c.ParentVariant != decision.Variant {
				continue
			}
			if c.SetConcept(decision.Concept) {
				found = true
				md.Record(decisionKey(decision, c), "narrowed to %s", decision.Concept)
			}
		}
		return true
	})

	logOutcome(d, found)

	return k, nil
}

func decisionKey(d model.Decision, c model.Choice) string {
	return "decision|" + d.String() + "|" + c.String()
}

func logOutcome(d model.Decision, found bool) {
	if !found {
		slog.Debug("Decision matched no choice", "decision", d.String())
	}
}
