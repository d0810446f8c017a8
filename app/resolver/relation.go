package resolver

import (
	"log/slog"
	"varconf/app/model"
)

// term is one side of a relation bound to either a constant or a feature of
// a concrete entity.
type term struct {
	constant bool
	value    string
	entity   *model.Entity
	feature  string
}

func (t term) resolved() (string, bool) {
	if t.constant {
		return t.value, true
	}

	return t.entity.FeatureValue(t.feature)
}

func (t term) choice() *model.FeatureChoice {
	if t.constant {
		return nil
	}

	return t.entity.FeatureChoice(t.feature)
}

// dead reports a feature that has neither a value nor a choice left.
func (t term) dead() bool {
	if _, ok := t.resolved(); ok {
		return false
	}

	return t.choice() == nil
}

type operand struct {
	terms []term
	// pending is set while the parameter's path waits on an open choice
	pending bool
}

// binding is a relation's operands as seen from one nexus entity.
type binding struct {
	left, right operand
}

func (b binding) complete() bool {
	return !b.left.pending && !b.right.pending
}

// unreachable reports a side whose path can no longer be realized.
func (b binding) unreachable() bool {
	return (len(b.left.terms) == 0 && !b.left.pending) || (len(b.right.terms) == 0 && !b.right.pending)
}

func (b binding) pairs(fn func(l, r term)) {
	for _, l := range b.left.terms {
		for _, r := range b.right.terms {
			fn(l, r)
		}
	}
}

func bindParameter(nexus *model.Entity, p RelationParameter) (operand, error) {
	switch p := p.(type) {
	case ConstantParameter:
		return operand{terms: []term{{constant: true, value: p.Value}}}, nil
	case FeatureParameter:
		entities, open := reach(nexus, p.Path)
		terms := make([]term, 0, len(entities))
		for _, e := range entities {
			terms = append(terms, term{entity: e, feature: p.Feature})
		}
		return operand{terms: terms, pending: open}, nil
	default:
		return operand{}, stageError("relations").Wrapf(ErrMalformed, "unsupported relation parameter %T", p)
	}
}

// bindRelation binds both sides of the relation at every nexus in the tree.
func bindRelation(k *model.Knowledge, rel *Relation) ([]binding, error) {
	nexuses := k.FindByVariant(rel.Variant)

	bindings := make([]binding, 0, len(nexuses))
	for _, n := range nexuses {
		left, err := bindParameter(n, rel.Left)
		if err != nil {
			return nil, err
		}
		right, err := bindParameter(n, rel.Right)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding{left: left, right: right})
	}

	return bindings, nil
}

// gate reports whether the relation's conditional event allows evaluation.
// An obsolete condition makes the relation obsolete as well.
func gate(h *Handler, rel *Relation) (open bool, obsolete bool) {
	if rel.Condition == "" {
		return true, false
	}

	status, _ := h.EventStatus(rel.Condition)
	switch status {
	case EventTriggered:
		return true, false
	case EventObsolete:
		return false, true
	default:
		return false, false
	}
}

// RelationEvaluator applies active relations: a resolved side narrows the
// open choice on the other side to the values that satisfy the operator.
type RelationEvaluator struct {
	transformer *Transformer
}

func (r *RelationEvaluator) Name() string { return "relations" }

func (r *RelationEvaluator) Resolve(k *model.Knowledge, _ model.Decision, h *Handler, md *Metadata) (*model.Knowledge, error) {
	for _, id := range h.ActiveRelations() {
		rel, err := r.transformer.Relation(id)
		if err != nil {
			return nil, err
		}

		open, obsolete := gate(h, rel)
		if obsolete {
			h.ObsoleteRelation(id)
			md.Record("relation|"+id, "obsolete: condition %s is obsolete", rel.Condition)
			continue
		}
		if !open {
			continue
		}

		bindings, err := bindRelation(k, rel)
		if err != nil {
			return nil, err
		}
		if len(bindings) == 0 {
			continue
		}

		narrowed, settled, impossible := r.apply(rel, bindings)
		if narrowed {
			h.MarkDirty()
			md.Record("relation|"+id, "narrowed dependent choices")
		}

		// another instance of the nexus may still be selected elsewhere
		if k.OffersVariant(rel.Variant) {
			continue
		}

		switch {
		case impossible == len(bindings):
			h.ObsoleteRelation(id)
			md.Record("relation|"+id, "obsolete: comparison can no longer hold")
			slog.Debug("Relation obsolete", "relation", id)
		case settled+impossible == len(bindings):
			h.ApplyRelation(id)
			md.Record("relation|"+id, "applied")
		}
	}

	return k, nil
}

// apply narrows what each binding allows. settled counts bindings whose
// pairs are all resolved and hold; impossible counts bindings with a side
// that can never get a value.
func (r *RelationEvaluator) apply(rel *Relation, bindings []binding) (narrowed bool, settled, impossible int) {
	for _, b := range bindings {
		if b.unreachable() {
			impossible++
			continue
		}

		ok := b.complete()
		dead := false

		b.pairs(func(left, right term) {
			if dead {
				return
			}
			if left.dead() || right.dead() {
				dead = true
				return
			}

			lv, lok := left.resolved()
			rv, rok := right.resolved()

			switch {
			case lok && rok:
				if !holds(rel.Operator, lv, rv) {
					// left for ObsoleteEntitiesRemover
					ok = false
				}
			case lok:
				ok = false
				if right.choice().Restrict(func(v string) bool { return holds(rel.Operator, lv, v) }) {
					narrowed = true
				}
			case rok:
				ok = false
				if left.choice().Restrict(func(v string) bool { return holds(rel.Operator, v, rv) }) {
					narrowed = true
				}
			default:
				ok = false
			}
		})

		switch {
		case dead:
			impossible++
		case ok:
			settled++
		}
	}

	return narrowed, settled, impossible
}
