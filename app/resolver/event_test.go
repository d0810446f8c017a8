package resolver

import (
	"testing"
	"varconf/app/kb"
	"varconf/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsKB = `
purposes:
  - {id: CAR, root: true, variants: [ECONOMY]}
  - {id: ENGINE, variants: [PETROL, ELECTRIC]}
  - {id: WHEELS, variants: [ALLOY]}
variants:
  - {id: ECONOMY, purposes: [ENGINE], features: [COLOR]}
  - {id: PETROL}
  - {id: ELECTRIC}
  - {id: ALLOY}
features:
  - {id: COLOR, values: [red, blue, green]}
events:
  - {id: RED, kind: feature, variant: ECONOMY, path: [ECONOMY], trigger_feature: COLOR, trigger_value: red}
  - {id: NOT_RED, kind: feature, variant: ECONOMY, path: [ECONOMY], trigger_feature: COLOR, trigger_value: red, not: true}
  - {id: ELECTRIC_ENGINE, kind: variant, variant: ECONOMY, path: [ECONOMY, ENGINE], trigger_variant: ELECTRIC}
`

func selectEconomy(t *testing.T, o *Orchestrator) *State {
	t.Helper()

	return resolve(t, o, o.NewState(), model.VariantDecision{Purpose: "CAR", Variant: "ECONOMY"})
}

func eventStatus(t *testing.T, s *State, id string) EventStatus {
	t.Helper()

	status, ok := s.Handler.EventStatus(id)
	require.True(t, ok, "event %s", id)

	return status
}

func TestEventEvaluator_FeatureEvent(t *testing.T) {
	o := NewOrchestrator(mustParse(t, eventsKB), Options{}, nil)

	state := selectEconomy(t, o)
	assert.Equal(t, EventRelevant, eventStatus(t, state, "RED"))
	assert.Equal(t, EventRelevant, eventStatus(t, state, "NOT_RED"))

	tests := []struct {
		value  string
		red    EventStatus
		notRed EventStatus
	}{
		{"red", EventTriggered, EventObsolete},
		{"blue", EventObsolete, EventTriggered},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			next := resolve(t, o, state, model.FeatureDecision{Variant: "ECONOMY", Feature: "COLOR", Value: tt.value})

			assert.Equal(t, tt.red, eventStatus(t, next, "RED"))
			assert.Equal(t, tt.notRed, eventStatus(t, next, "NOT_RED"))
		})
	}
}

func TestEventEvaluator_NarrowedChoiceWithoutTrigger(t *testing.T) {
	o := NewOrchestrator(mustParse(t, eventsKB), Options{}, nil)
	state := selectEconomy(t, o)

	entity := state.Knowledge.FindByVariant("ECONOMY")[0]
	entity.FeatureChoice("COLOR").Values = []string{"blue", "green"}

	next := resolve(t, o, state)
	assert.Equal(t, EventObsolete, eventStatus(t, next, "RED"))
}

func TestEventEvaluator_VariantEvent(t *testing.T) {
	o := NewOrchestrator(mustParse(t, eventsKB), Options{}, nil)

	state := selectEconomy(t, o)
	assert.Equal(t, EventRelevant, eventStatus(t, state, "ELECTRIC_ENGINE"))

	next := resolve(t, o, state, model.VariantDecision{Purpose: "ENGINE", Variant: "ELECTRIC"})
	assert.Equal(t, EventTriggered, eventStatus(t, next, "ELECTRIC_ENGINE"))

	next = resolve(t, o, state, model.VariantDecision{Purpose: "ENGINE", Variant: "PETROL"})
	assert.Equal(t, EventObsolete, eventStatus(t, next, "ELECTRIC_ENGINE"))
}

func TestEventEvaluator_StaysRelevantWithoutNexus(t *testing.T) {
	o := NewOrchestrator(mustParse(t, eventsKB), Options{}, nil)

	state := resolve(t, o, o.NewState())
	for _, id := range []string{"RED", "NOT_RED", "ELECTRIC_ENGINE"} {
		assert.Equal(t, EventRelevant, eventStatus(t, state, id))
	}
}

func TestEventEvaluator_BrokenContextPathIsObsolete(t *testing.T) {
	const broken = eventsKB + `
  - {id: ALLOY_WHEELS, kind: variant, variant: ECONOMY, path: [ECONOMY, WHEELS], trigger_variant: ALLOY}
`
	base, diags, err := kb.ParseUnchecked([]byte(broken))
	require.NoError(t, err)
	require.NotEmpty(t, diags)

	o := NewOrchestrator(base, Options{}, nil)
	state := selectEconomy(t, o)

	assert.Equal(t, EventObsolete, eventStatus(t, state, "ALLOY_WHEELS"))
}

func TestWalk(t *testing.T) {
	root := &model.Entity{
		Purpose: "CAR",
		Variant: "ECONOMY",
		Children: []*model.Entity{
			{Purpose: "ENGINE", Variant: "PETROL"},
		},
		PossibleVariants: []*model.VariantChoice{
			{ParentVariant: "ECONOMY", Purpose: "WHEELS", Variants: []string{"ALLOY", "STEEL"}},
		},
	}
	hit := func(*model.Entity) outcome { return matched }

	tests := []struct {
		name string
		path []string
		want outcome
	}{
		{"nexus itself", []string{"ECONOMY"}, matched},
		{"wrong nexus", []string{"LUXURY"}, unmatched},
		{"existing child", []string{"ECONOMY", "ENGINE", "PETROL"}, matched},
		{"missing child", []string{"ECONOMY", "ENGINE", "ELECTRIC"}, unmatched},
		{"offered by open choice", []string{"ECONOMY", "WHEELS", "ALLOY"}, pending},
		{"not offered", []string{"ECONOMY", "WHEELS", "CHROME"}, unmatched},
		{"purpose ending", []string{"ECONOMY", "ENGINE"}, unmatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, walk(root, tt.path, hit))
		})
	}
}

func TestOutcome_Invert(t *testing.T) {
	assert.Equal(t, unmatched, matched.invert())
	assert.Equal(t, matched, unmatched.invert())
	assert.Equal(t, pending, pending.invert())
	assert.Equal(t, matched, merge(pending, matched))
	assert.Equal(t, pending, merge(unmatched, pending))
}
