package resolver

import (
	"log/slog"
	"slices"
	"varconf/app/kb"
	"varconf/app/model"

	"github.com/elliotchance/pie/v2"
)

// ObsoleteEntitiesRemover prunes values and concepts that can no longer be
// part of a consistent configuration. Any removal marks the knowledge
// unstable so the chain runs again.
type ObsoleteEntitiesRemover struct {
	kb          *kb.KnowledgeBase
	transformer *Transformer
}

func (r *ObsoleteEntitiesRemover) Name() string { return "obsolete-remover" }

func (r *ObsoleteEntitiesRemover) Resolve(k *model.Knowledge, _ model.Decision, h *Handler, md *Metadata) (*model.Knowledge, error) {
	removed := r.removeImpossibleValues(k, md)

	violated, err := r.removeViolatingValues(k, h, md)
	if err != nil {
		return nil, err
	}

	unsatisfiable, err := r.removeUnsatisfiableConcepts(k, md)
	if err != nil {
		return nil, err
	}

	if removed || violated || unsatisfiable {
		k.Stable = false
	}

	return k, nil
}

func (r *ObsoleteEntitiesRemover) removeImpossibleValues(k *model.Knowledge, md *Metadata) bool {
	removed := false

	k.Walk(func(e *model.Entity) bool {
		for _, fv := range slices.Clone(e.FeatureValues) {
			if r.kb.IsAllowedValue(fv.Feature, fv.Value) {
				continue
			}
			e.RemoveFeatureValue(fv.Feature)
			removed = true
			md.Record("obsolete|"+e.ID()+"|"+fv.Feature, "removed impossible value %s", fv.Value)
		}
		return true
	})

	return removed
}

type slot struct {
	entity  *model.Entity
	feature string
}

// removeViolatingValues drops resolved values that break a gated-in relation
// and reopens the dependent feature with the values every gated-in relation
// still accepts.
func (r *ObsoleteEntitiesRemover) removeViolatingValues(k *model.Knowledge, h *Handler, md *Metadata) (bool, error) {
	accepts := make(map[slot][]func(string) bool)
	var violations []slot
	var sources []string

	for _, id := range h.ActiveRelations() {
		rel, err := r.transformer.Relation(id)
		if err != nil {
			return false, err
		}
		if open, _ := gate(h, rel); !open {
			continue
		}

		bindings, err := bindRelation(k, rel)
		if err != nil {
			return false, err
		}

		for _, b := range bindings {
			b.pairs(func(left, right term) {
				lv, lok := left.resolved()
				rv, rok := right.resolved()

				if rok && !left.constant {
					s := slot{left.entity, left.feature}
					accepts[s] = append(accepts[s], func(v string) bool { return holds(rel.Operator, v, rv) })
				}
				if lok && !right.constant {
					s := slot{right.entity, right.feature}
					accepts[s] = append(accepts[s], func(v string) bool { return holds(rel.Operator, lv, v) })
				}

				if !lok || !rok || holds(rel.Operator, lv, rv) {
					return
				}

				target := left
				if left.constant {
					target = right
				}
				violations = append(violations, slot{target.entity, target.feature})
				sources = append(sources, id)
			})
		}
	}

	removed := false
	for i, s := range violations {
		if _, ok := s.entity.FeatureValue(s.feature); !ok {
			continue
		}

		r.reopen(s, accepts[s])
		removed = true
		md.Record("obsolete|"+s.entity.ID()+"|"+s.feature, "removed value violating relation %s", sources[i])
		slog.Debug("Removed value violating relation",
			"relation", sources[i],
			"entity", s.entity.ID(),
			"feature", s.feature,
		)
	}

	return removed, nil
}

func (r *ObsoleteEntitiesRemover) reopen(s slot, accepts []func(string) bool) {
	s.entity.RemoveFeatureValue(s.feature)

	var allowed []string
	if f, ok := r.kb.Feature(s.feature); ok {
		allowed = pie.Filter(f.Values, func(v string) bool {
			for _, accept := range accepts {
				if !accept(v) {
					return false
				}
			}
			return true
		})
	}

	if c := s.entity.FeatureChoice(s.feature); c != nil {
		c.Values = allowed
		return
	}

	s.entity.PossibleFeatures = append(s.entity.PossibleFeatures, &model.FeatureChoice{
		ParentVariant: s.entity.Variant,
		Feature:       s.feature,
		Values:        allowed,
	})
}

func (r *ObsoleteEntitiesRemover) removeUnsatisfiableConcepts(k *model.Knowledge, md *Metadata) (bool, error) {
	removed := false
	var err error

	k.Walk(func(e *model.Entity) bool {
		for _, c := range e.PossibleConcepts {
			for _, id := range slices.Clone(c.Concepts) {
				concept, ok := r.kb.Concept(id)
				if !ok {
					err = stageError(r.Name()).With("concept", id).Wrapf(ErrUnknownReference, "concept %q", id)
					return false
				}
				if satisfiable(e, concept) {
					continue
				}
				c.Remove(id)
				removed = true
				md.Record("obsolete|"+e.ID()+"|"+id, "removed unsatisfiable concept")
			}
		}
		return err == nil
	})

	return removed, err
}

// satisfiable reports whether every value the concept sets is still possible
// on the entity.
func satisfiable(e *model.Entity, c *kb.Concept) bool {
	for _, fv := range c.Values {
		if v, ok := e.FeatureValue(fv.Feature); ok {
			if v != fv.Value {
				return false
			}
			continue
		}

		if fc := e.FeatureChoice(fv.Feature); fc == nil || !fc.Offers(fv.Value) {
			return false
		}
	}

	return true
}
