package resolver

import (
	"testing"
	"varconf/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conceptsKB = `
purposes:
  - {id: CAR, root: true, variants: [ECONOMY]}
variants:
  - {id: ECONOMY, features: [COLOR, TRIM], concepts: [SPORT, CLASSIC]}
features:
  - {id: COLOR, values: [red, blue]}
  - {id: TRIM, values: [basic, leather]}
concepts:
  - id: SPORT
    values:
      - {feature: COLOR, value: red}
      - {feature: TRIM, value: leather}
  - id: CLASSIC
    values:
      - {feature: COLOR, value: blue}
      - {feature: TRIM, value: basic}
events:
  - {id: IS_SPORT, kind: concept, variant: ECONOMY, path: [ECONOMY], trigger_concept: SPORT}
`

func economy(t *testing.T, s *State) *model.Entity {
	t.Helper()

	found := s.Knowledge.FindByVariant("ECONOMY")
	require.Len(t, found, 1)

	return found[0]
}

func TestAutoCompletion_ConceptDecisionSetsFeatures(t *testing.T) {
	o := NewOrchestrator(mustParse(t, conceptsKB), Options{}, nil)

	state := selectEconomy(t, o)
	require.Len(t, economy(t, state).PossibleConcepts, 1)
	assert.Equal(t, EventRelevant, eventStatus(t, state, "IS_SPORT"))

	state = resolve(t, o, state, model.ConceptDecision{Variant: "ECONOMY", Concept: "SPORT"})

	car := economy(t, state)
	assert.Equal(t, []string{"SPORT"}, car.Concepts)
	assert.Equal(t, []model.FeatureValue{
		{Feature: "COLOR", Value: "red"},
		{Feature: "TRIM", Value: "leather"},
	}, car.FeatureValues)
	assert.True(t, car.Resolved())
	assert.Equal(t, EventTriggered, eventStatus(t, state, "IS_SPORT"))
}

func TestAutoCompletion_ConflictingFeatureSelectsRemainingConcept(t *testing.T) {
	o := NewOrchestrator(mustParse(t, conceptsKB), Options{}, nil)

	state := resolve(t, o, selectEconomy(t, o), model.FeatureDecision{Variant: "ECONOMY", Feature: "COLOR", Value: "blue"})

	car := economy(t, state)
	assert.Equal(t, []string{"CLASSIC"}, car.Concepts)
	trim, ok := car.FeatureValue("TRIM")
	require.True(t, ok)
	assert.Equal(t, "basic", trim)
	assert.True(t, state.Knowledge.Resolved())
	assert.Equal(t, EventObsolete, eventStatus(t, state, "IS_SPORT"))
}

func TestAutoCompletion_DropsDeadEndChoices(t *testing.T) {
	o := NewOrchestrator(mustParse(t, conceptsKB), Options{}, nil)
	state := selectEconomy(t, o)

	car := economy(t, state)
	car.PossibleConcepts[0].Concepts = nil
	car.FeatureChoice("TRIM").Values = nil

	state = resolve(t, o, state)

	car = economy(t, state)
	assert.Empty(t, car.PossibleConcepts)
	assert.Nil(t, car.FeatureChoice("TRIM"))
	_, ok := car.FeatureValue("TRIM")
	assert.False(t, ok)
	require.NotNil(t, car.FeatureChoice("COLOR"))
}

func TestAutoCompletion_NoChoiceBelowTwoOptions(t *testing.T) {
	o := NewOrchestrator(mustParse(t, eventsKB), Options{AutoCompleteRoots: true}, nil)

	state := resolve(t, o, o.NewState())

	open := state.Knowledge.OpenChoices()
	require.Len(t, open, 2)
	for _, c := range open {
		assert.GreaterOrEqual(t, c.Options(), 2, c.String())
	}
}
