package resolver

import (
	"testing"
	"varconf/app/model"

	"github.com/stretchr/testify/assert"
)

const rulesKB = `
purposes:
  - {id: CAR, root: true, variants: [ECONOMY]}
variants:
  - {id: ECONOMY, features: [DOORS, COLOR]}
features:
  - {id: DOORS, values: ["3", "5"]}
  - {id: COLOR, values: [red, blue]}
events:
  - {id: FIVE_DOORS, kind: feature, variant: ECONOMY, path: [ECONOMY], trigger_feature: DOORS, trigger_value: "5"}
  - {id: FAMILY, kind: feature, variant: ECONOMY, path: [ECONOMY], trigger_feature: COLOR, trigger_value: blue}
  - {id: WELCOME, kind: feature, variant: ECONOMY, path: [ECONOMY], trigger_feature: COLOR, trigger_value: red}
rules:
  - {id: FAMILY_CAR, variant: ECONOMY, premises: [FIVE_DOORS], conclusion: FAMILY}
  - {id: GREETING, variant: ECONOMY, premises: [ECONOMY], conclusion: WELCOME}
`

func ruleStatus(s *State, id string) RuleStatus {
	return s.Handler.Rules[id]
}

func TestRulesEvaluator_SelfFulfillingFiresWithNexus(t *testing.T) {
	o := NewOrchestrator(mustParse(t, rulesKB), Options{}, nil)

	state := resolve(t, o, o.NewState())
	assert.Equal(t, RuleActive, ruleStatus(state, "GREETING"))
	assert.Equal(t, EventRelevant, eventStatus(t, state, "WELCOME"))

	state = selectEconomy(t, o)
	assert.Equal(t, RuleFired, ruleStatus(state, "GREETING"))
	assert.Equal(t, EventTriggered, eventStatus(t, state, "WELCOME"))
}

func TestRulesEvaluator_FiresOnTriggeredPremise(t *testing.T) {
	o := NewOrchestrator(mustParse(t, rulesKB), Options{}, nil)

	state := selectEconomy(t, o)
	assert.Equal(t, RuleActive, ruleStatus(state, "FAMILY_CAR"))

	state = resolve(t, o, state, model.FeatureDecision{Variant: "ECONOMY", Feature: "DOORS", Value: "5"})

	assert.Equal(t, EventTriggered, eventStatus(t, state, "FIVE_DOORS"))
	assert.Equal(t, RuleFired, ruleStatus(state, "FAMILY_CAR"))
	assert.Equal(t, EventTriggered, eventStatus(t, state, "FAMILY"))
}

func TestRulesEvaluator_DiscardsOnObsoletePremise(t *testing.T) {
	o := NewOrchestrator(mustParse(t, rulesKB), Options{}, nil)

	state := resolve(t, o, selectEconomy(t, o), model.FeatureDecision{Variant: "ECONOMY", Feature: "DOORS", Value: "3"})

	assert.Equal(t, EventObsolete, eventStatus(t, state, "FIVE_DOORS"))
	assert.Equal(t, RuleDiscarded, ruleStatus(state, "FAMILY_CAR"))
	assert.Equal(t, EventRelevant, eventStatus(t, state, "FAMILY"))
}

func TestRulesEvaluator_DiscardsOnObsoleteConclusion(t *testing.T) {
	o := NewOrchestrator(mustParse(t, rulesKB), Options{}, nil)
	md := NewMetadata()

	state := resolve(t, o, selectEconomy(t, o), model.FeatureDecision{Variant: "ECONOMY", Feature: "COLOR", Value: "red"})
	assert.Equal(t, EventObsolete, eventStatus(t, state, "FAMILY"))

	res, err := o.Resolve(t.Context(), Request{
		State:     state,
		Decisions: []model.Decision{model.FeatureDecision{Variant: "ECONOMY", Feature: "DOORS", Value: "5"}},
		Metadata:  md,
	})
	assert.NoError(t, err)

	assert.Equal(t, RuleDiscarded, ruleStatus(res.State, "FAMILY_CAR"))
	msg, ok := md.Lookup("rule|FAMILY_CAR")
	assert.True(t, ok)
	assert.Contains(t, msg, "already obsolete")
}
