package resolver

import (
	"maps"
	"varconf/app/kb"

	"github.com/elliotchance/pie/v2"
)

type EventStatus string

const (
	EventRelevant  EventStatus = "relevant"
	EventTriggered EventStatus = "triggered"
	EventObsolete  EventStatus = "obsolete"
)

type RelationStatus string

const (
	RelationActive   RelationStatus = "active"
	RelationApplied  RelationStatus = "applied"
	RelationObsolete RelationStatus = "obsolete"
)

type RuleStatus string

const (
	RuleActive    RuleStatus = "active"
	RuleFired     RuleStatus = "fired"
	RuleDiscarded RuleStatus = "discarded"
)

// Handler is the per-session rules and events state. Every stage reads and
// writes it; it is owned by one resolution at a time.
type Handler struct {
	Events         map[string]EventStatus    `json:"events"`
	Relations      map[string]RelationStatus `json:"relations"`
	Rules          map[string]RuleStatus     `json:"rules"`
	KnowledgeDirty bool                      `json:"knowledge_dirty"`
}

// NewHandler starts every event as relevant and every relation and rule as
// active.
func NewHandler(base *kb.KnowledgeBase) *Handler {
	h := &Handler{
		Events:    make(map[string]EventStatus, len(base.EventIDs())),
		Relations: make(map[string]RelationStatus, len(base.RelationIDs())),
		Rules:     make(map[string]RuleStatus, len(base.RuleIDs())),
	}

	for _, id := range base.EventIDs() {
		h.Events[id] = EventRelevant
	}
	for _, id := range base.RelationIDs() {
		h.Relations[id] = RelationActive
	}
	for _, id := range base.RuleIDs() {
		h.Rules[id] = RuleActive
	}

	return h
}

func (h *Handler) Clone() *Handler {
	return &Handler{
		Events:         maps.Clone(h.Events),
		Relations:      maps.Clone(h.Relations),
		Rules:          maps.Clone(h.Rules),
		KnowledgeDirty: h.KnowledgeDirty,
	}
}

func (h *Handler) EventStatus(id string) (EventStatus, bool) {
	s, ok := h.Events[id]
	return s, ok
}

// RelevantEvents returns the undecided events in a stable order.
func (h *Handler) RelevantEvents() []string {
	return sortedWith(h.Events, EventRelevant)
}

func (h *Handler) ActiveRelations() []string {
	return sortedWith(h.Relations, RelationActive)
}

func (h *Handler) ActiveRules() []string {
	return sortedWith(h.Rules, RuleActive)
}

// TriggerEvent moves a relevant event to triggered. Terminal states are kept.
func (h *Handler) TriggerEvent(id string) bool {
	return h.moveEvent(id, EventTriggered)
}

func (h *Handler) ObsoleteEvent(id string) bool {
	return h.moveEvent(id, EventObsolete)
}

func (h *Handler) moveEvent(id string, to EventStatus) bool {
	if h.Events[id] != EventRelevant {
		return false
	}

	h.Events[id] = to
	return true
}

func (h *Handler) ApplyRelation(id string) {
	h.Relations[id] = RelationApplied
}

func (h *Handler) ObsoleteRelation(id string) {
	h.Relations[id] = RelationObsolete
}

func (h *Handler) FireRule(id string) {
	h.Rules[id] = RuleFired
}

func (h *Handler) DiscardRule(id string) {
	h.Rules[id] = RuleDiscarded
}

func (h *Handler) MarkDirty() {
	h.KnowledgeDirty = true
}

func sortedWith[S ~string](m map[string]S, status S) []string {
	ids := pie.Filter(pie.Keys(m), func(id string) bool { return m[id] == status })
	return pie.Sort(ids)
}
