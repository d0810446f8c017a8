package resolver

import (
	"varconf/app/kb"
	"varconf/app/model"
)

// AutoCompletion collapses choices with fewer than two options: a single
// option is materialized, no option drops the choice.
type AutoCompletion struct {
	kb          *kb.KnowledgeBase
	transformer *Transformer
	opts        Options
}

func (r *AutoCompletion) Name() string { return "auto-completion" }

func (r *AutoCompletion) Resolve(k *model.Knowledge, d model.Decision, _ *Handler, md *Metadata) (*model.Knowledge, error) {
	changed := false

	if r.opts.AutoCompleteRoots || d != nil {
		remaining := k.Choices[:0:0]
		for _, c := range k.Choices {
			if !c.Complete() {
				remaining = append(remaining, c)
				continue
			}

			changed = true
			if c.Options() == 0 {
				md.Record("autocomplete|"+c.Purpose, "dropped root choice")
				continue
			}

			e, err := r.transformer.Entity(c.Purpose, c.Variants[0])
			if err != nil {
				return nil, err
			}
			k.Entities = append(k.Entities, e)
			md.Record("autocomplete|"+e.ID(), "created root entity")
		}
		k.Choices = remaining
	}

	for _, e := range k.Entities {
		entityChanged, err := r.complete(e, md)
		if err != nil {
			return nil, err
		}
		changed = changed || entityChanged
	}

	if changed {
		k.Stable = false
	}

	return k, nil
}

// complete processes the entity's own choices, then recurses into its
// children, including the ones it just created.
func (r *AutoCompletion) complete(e *model.Entity, md *Metadata) (bool, error) {
	changed := false

	for _, choice := range e.Choices() {
		if !choice.Complete() {
			continue
		}

		changed = true

		var err error
		switch c := choice.(type) {
		case *model.VariantChoice:
			err = r.completeVariant(e, c, md)
		case *model.ConceptChoice:
			err = r.completeConcept(e, c, md)
		case *model.FeatureChoice:
			r.completeFeature(e, c, md)
		default:
			err = stageError(r.Name()).With("choice", choice.String()).Wrapf(ErrUnknownChoice, "%T", choice)
		}
		if err != nil {
			return false, err
		}
	}

	for _, child := range e.Children {
		childChanged, err := r.complete(child, md)
		if err != nil {
			return false, err
		}
		changed = changed || childChanged
	}

	return changed, nil
}

func (r *AutoCompletion) completeVariant(e *model.Entity, c *model.VariantChoice, md *Metadata) error {
	e.PossibleVariants = without(e.PossibleVariants, c)

	if c.Options() == 0 {
		md.Record("autocomplete|"+e.ID()+"|"+c.Purpose, "dropped dead-end variant choice")
		return nil
	}

	child, err := r.transformer.Entity(c.Purpose, c.Variants[0])
	if err != nil {
		return err
	}

	e.Children = append(e.Children, child)
	md.Record("autocomplete|"+child.ID(), "created entity under %s", e.ID())

	return nil
}

// completeConcept selects the last remaining concept and pushes its feature
// values onto the entity.
func (r *AutoCompletion) completeConcept(e *model.Entity, c *model.ConceptChoice, md *Metadata) error {
	e.PossibleConcepts = without(e.PossibleConcepts, c)

	if c.Options() == 0 {
		md.Record("autocomplete|"+e.ID()+"|concepts", "dropped dead-end concept choice")
		return nil
	}

	concept, ok := r.kb.Concept(c.Concepts[0])
	if !ok {
		return stageError(r.Name()).With("concept", c.Concepts[0]).Wrapf(ErrUnknownReference, "concept %q", c.Concepts[0])
	}

	e.Concepts = append(e.Concepts, concept.ID)
	for _, fv := range concept.Values {
		if fc := e.FeatureChoice(fv.Feature); fc != nil {
			if !fc.SetValue(fv.Value) {
				fc.Values = nil
			}
			continue
		}
		if _, assigned := e.FeatureValue(fv.Feature); !assigned {
			e.SetFeatureValue(fv.Feature, fv.Value)
		}
	}
	md.Record("autocomplete|"+e.ID()+"|"+concept.ID, "selected concept")

	return nil
}

func (r *AutoCompletion) completeFeature(e *model.Entity, c *model.FeatureChoice, md *Metadata) {
	e.PossibleFeatures = without(e.PossibleFeatures, c)

	if c.Options() == 0 {
		md.Record("autocomplete|"+e.ID()+"|"+c.Feature, "dropped dead-end feature choice")
		return
	}

	e.SetFeatureValue(c.Feature, c.Values[0])
	md.Record("autocomplete|"+e.ID()+"|"+c.Feature, "set to %s", c.Values[0])
}

func without[T comparable](items []T, item T) []T {
	out := items[:0:0]
	for _, it := range items {
		if it != item {
			out = append(out, it)
		}
	}

	return out
}
