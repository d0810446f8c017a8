package resolver

import (
	"log/slog"
	"varconf/app/model"
)

// EventEvaluator decides relevant events by walking their context paths from
// every nexus entity in the tree.
type EventEvaluator struct {
	transformer *Transformer
}

func (r *EventEvaluator) Name() string { return "events" }

func (r *EventEvaluator) Resolve(k *model.Knowledge, _ model.Decision, h *Handler, md *Metadata) (*model.Knowledge, error) {
	for _, id := range h.RelevantEvents() {
		ev, err := r.transformer.Event(id)
		if err != nil {
			return nil, err
		}

		nexuses := k.FindByVariant(ev.Nexus())
		if len(nexuses) == 0 {
			continue
		}

		leaf, err := r.leaf(ev)
		if err != nil {
			return nil, err
		}

		result := unmatched
		for _, n := range nexuses {
			result = merge(result, walk(n, ev.WalkPath(), leaf))
		}

		// another instance of the nexus may still be selected elsewhere
		if result == unmatched && k.OffersVariant(ev.Nexus()) {
			result = pending
		}

		if ev.Inverted() {
			result = result.invert()
		}

		switch result {
		case matched:
			h.TriggerEvent(id)
			md.Record("event|"+id, "triggered")
			slog.Debug("Event triggered", "event", id)
		case unmatched:
			h.ObsoleteEvent(id)
			md.Record("event|"+id, "obsolete")
			slog.Debug("Event obsolete", "event", id)
		}
	}

	return k, nil
}

// leaf returns the trigger test applied where the event's path ends.
func (r *EventEvaluator) leaf(ev Event) (func(*model.Entity) outcome, error) {
	switch ev := ev.(type) {
	case VariantEvent:
		// the trigger variant is the last path element, reaching it is the match
		return func(*model.Entity) outcome { return matched }, nil
	case FeatureEvent:
		return func(e *model.Entity) outcome {
			if v, ok := e.FeatureValue(ev.TriggeringFeature); ok {
				if v == ev.TriggeringFeatureValue {
					return matched
				}
				return unmatched
			}
			if c := e.FeatureChoice(ev.TriggeringFeature); c != nil && c.Offers(ev.TriggeringFeatureValue) {
				return pending
			}
			return unmatched
		}, nil
	case ConceptEvent:
		return func(e *model.Entity) outcome {
			if e.HasConcept(ev.TriggeringConcept) {
				return matched
			}
			for _, c := range e.PossibleConcepts {
				if c.Offers(ev.TriggeringConcept) {
					return pending
				}
			}
			return unmatched
		}, nil
	default:
		return nil, stageError(r.Name()).With("event", ev.EventID()).Wrapf(ErrMalformed, "unsupported event type %T", ev)
	}
}
