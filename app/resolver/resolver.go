// Package resolver rewrites a session's Knowledge tree until it reaches a
// fixed point. Each stage implements Resolver; the Orchestrator runs them in
// order and repeats the chain while any stage reports a change.
package resolver

import (
	"varconf/app/kb"
	"varconf/app/model"
)

const DefaultMaxIterations = 64

type Options struct {
	// MaxIterations bounds the fixpoint loop per decision.
	MaxIterations int
	// RootPurposeOptional makes root purposes mutually exclusive: deciding
	// one clears every other root choice.
	RootPurposeOptional bool
	// AutoCompleteRoots lets AutoCompletion collapse single-option root
	// choices even when no decision drives the pass.
	AutoCompleteRoots bool
}

// Resolver is one stage of the chain. A stage mutates the knowledge in place
// and returns it. The decision is nil on every pass but the first.
type Resolver interface {
	Name() string
	Resolve(k *model.Knowledge, d model.Decision, h *Handler, md *Metadata) (*model.Knowledge, error)
}

// Chain returns the stages in their fixed order.
func Chain(base *kb.KnowledgeBase, opts Options) []Resolver {
	t := NewTransformer(base)

	return []Resolver{
		&VariantDecisionEvaluator{kb: base, opts: opts},
		&FeatureDecisionEvaluator{kb: base},
		&ConceptDecisionEvaluator{kb: base},
		&AutoCompletion{kb: base, transformer: t, opts: opts},
		&EventEvaluator{transformer: t},
		&RelationEvaluator{transformer: t},
		&RulesEvaluator{transformer: t},
		&ObsoleteEntitiesRemover{kb: base, transformer: t},
	}
}
