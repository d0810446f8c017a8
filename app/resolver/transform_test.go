package resolver

import (
	"testing"
	"varconf/app/kb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformer_Entity(t *testing.T) {
	const doc = `
purposes:
  - {id: CAR, root: true, variants: [ECONOMY]}
  - {id: WHEELS, quantity: 4, variants: [ALLOY, STEEL], quantities: {STEEL: 5}}
variants:
  - {id: ECONOMY, purposes: [WHEELS], features: [COLOR], concepts: [PLAIN]}
  - {id: ALLOY}
  - {id: STEEL}
features:
  - {id: COLOR, values: [red, blue]}
concepts:
  - {id: PLAIN, values: [{feature: COLOR, value: blue}]}
`
	tr := NewTransformer(mustParse(t, doc))

	e, err := tr.Entity("CAR", "ECONOMY")
	require.NoError(t, err)

	assert.Equal(t, "CAR:ECONOMY", e.ID())
	assert.Equal(t, 1, e.Quantity)
	require.Len(t, e.PossibleVariants, 1)
	assert.Equal(t, "WHEELS", e.PossibleVariants[0].Purpose)
	assert.Equal(t, []string{"ALLOY", "STEEL"}, e.PossibleVariants[0].Variants)
	assert.Equal(t, 4, e.PossibleVariants[0].Quantity)
	require.Len(t, e.PossibleFeatures, 1)
	assert.Equal(t, []string{"red", "blue"}, e.PossibleFeatures[0].Values)
	require.Len(t, e.PossibleConcepts, 1)
	assert.Equal(t, []string{"PLAIN"}, e.PossibleConcepts[0].Concepts)

	steel, err := tr.Entity("WHEELS", "STEEL")
	require.NoError(t, err)
	assert.Equal(t, 5, steel.Quantity)

	_, err = tr.Entity("CAR", "SPACESHIP")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestTransformer_RejectsMalformedEntries(t *testing.T) {
	const doc = `
purposes:
  - {id: CAR, root: true, variants: [ECONOMY]}
variants:
  - {id: ECONOMY, features: [DOORS]}
features:
  - {id: DOORS, values: ["3", "5"]}
events:
  - {id: NO_TRIGGER, kind: feature, variant: ECONOMY, path: [ECONOMY]}
  - {id: WRONG_START, kind: feature, variant: ECONOMY, path: [CAR], trigger_feature: DOORS, trigger_value: "3"}
relations:
  - {id: CONSTANTS, variant: ECONOMY, operator: EQUAL, left: {constant: "1"}, right: {constant: "1"}}
`
	base, diags, err := kb.ParseUnchecked([]byte(doc))
	require.NoError(t, err)
	require.NotEmpty(t, diags)

	tr := NewTransformer(base)

	for _, id := range []string{"NO_TRIGGER", "WRONG_START"} {
		_, err = tr.Event(id)
		assert.ErrorIs(t, err, ErrMalformed, id)
	}

	_, err = tr.Relation("CONSTANTS")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = tr.Event("MISSING")
	assert.ErrorIs(t, err, ErrUnknownReference)
	_, err = tr.Rule("MISSING")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestTransformer_VariantEventWalkPath(t *testing.T) {
	tr := NewTransformer(mustParse(t, eventsKB))

	ev, err := tr.Event("ELECTRIC_ENGINE")
	require.NoError(t, err)

	variantEvent, ok := ev.(VariantEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"ECONOMY", "ENGINE", "ELECTRIC"}, variantEvent.WalkPath())
	assert.Equal(t, []string{"ECONOMY", "ENGINE"}, variantEvent.Path)
	assert.Equal(t, "ECONOMY", ev.Nexus())
}

func TestTransformer_RootChoices(t *testing.T) {
	tr := NewTransformer(mustParse(t, twoRootsKB))

	roots := tr.RootChoices()
	require.Len(t, roots, 2)
	assert.Equal(t, "P1", roots[0].Purpose)
	assert.Equal(t, "", roots[0].ParentVariant)
	assert.Equal(t, []string{"V2"}, roots[1].Variants)
}
