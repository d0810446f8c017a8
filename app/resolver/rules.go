package resolver

import (
	"log/slog"
	"varconf/app/model"
)

// RulesEvaluator fires rules whose premises all triggered by triggering
// their conclusion event.
type RulesEvaluator struct {
	transformer *Transformer
}

func (r *RulesEvaluator) Name() string { return "rules" }

func (r *RulesEvaluator) Resolve(k *model.Knowledge, _ model.Decision, h *Handler, md *Metadata) (*model.Knowledge, error) {
	for _, id := range h.ActiveRules() {
		rule, err := r.transformer.Rule(id)
		if err != nil {
			return nil, err
		}

		fulfilled, discarded, err := r.premises(k, h, rule)
		if err != nil {
			return nil, err
		}
		if discarded {
			h.DiscardRule(id)
			md.Record("rule|"+id, "discarded: premise obsolete")
			continue
		}
		if !fulfilled {
			continue
		}

		status, ok := h.EventStatus(rule.Conclusion)
		if !ok {
			return nil, stageError(r.Name()).With("rule", id).Wrapf(ErrUnknownReference, "conclusion event %q", rule.Conclusion)
		}

		switch status {
		case EventRelevant:
			h.TriggerEvent(rule.Conclusion)
			h.FireRule(id)
			h.MarkDirty()
			md.Record("rule|"+id, "fired, triggered %s", rule.Conclusion)
			slog.Debug("Rule fired", "rule", id, "conclusion", rule.Conclusion)
		case EventTriggered:
			h.FireRule(id)
		case EventObsolete:
			h.DiscardRule(id)
			md.Record("rule|"+id, "discarded: conclusion %s already obsolete", rule.Conclusion)
		}
	}

	return k, nil
}

// premises reports whether every premise holds, or whether one can no longer
// hold.
func (r *RulesEvaluator) premises(k *model.Knowledge, h *Handler, rule *Rule) (fulfilled, discarded bool, err error) {
	if rule.SelfFulfilling() {
		return len(k.FindByVariant(rule.Variant)) > 0, false, nil
	}

	fulfilled = true
	for _, premise := range rule.Premises {
		status, ok := h.EventStatus(premise)
		if !ok {
			return false, false, stageError(r.Name()).With("rule", rule.ID).Wrapf(ErrUnknownReference, "premise event %q", premise)
		}

		switch status {
		case EventObsolete:
			return false, true, nil
		case EventRelevant:
			fulfilled = false
		}
	}

	return fulfilled, false, nil
}
