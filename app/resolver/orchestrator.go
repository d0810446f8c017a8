package resolver

import (
	"context"
	"errors"
	"log/slog"
	"varconf/app/kb"
	"varconf/app/model"

	"github.com/samber/oops"
)

// Repository persists session state between requests.
type Repository interface {
	// Load returns ErrSessionNotFound for an unknown session.
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
}

// State is everything a session carries from one request to the next.
type State struct {
	Knowledge *model.Knowledge `json:"knowledge"`
	Handler   *Handler         `json:"handler"`
}

func (s *State) Clone() *State {
	return &State{
		Knowledge: s.Knowledge.Clone(),
		Handler:   s.Handler.Clone(),
	}
}

type Request struct {
	// SessionID selects the stored state when State is nil and names where
	// the result is saved. Both may be empty for a one-shot resolution.
	SessionID string
	State     *State
	Decisions []model.Decision
	Metadata  *Metadata
}

type Result struct {
	SessionID  string
	State      *State
	Resolved   bool
	Iterations int
}

type Orchestrator struct {
	kb          *kb.KnowledgeBase
	opts        Options
	transformer *Transformer
	repo        Repository
	chain       []Resolver
}

// NewOrchestrator builds the stage chain. repo may be nil, in which case
// sessions are not loaded or saved.
func NewOrchestrator(base *kb.KnowledgeBase, opts Options, repo Repository) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	return &Orchestrator{
		kb:          base,
		opts:        opts,
		transformer: NewTransformer(base),
		repo:        repo,
		chain:       Chain(base, opts),
	}
}

// NewState returns the initial state: one open choice per root purpose.
func (o *Orchestrator) NewState() *State {
	return &State{
		Knowledge: &model.Knowledge{Choices: o.transformer.RootChoices()},
		Handler:   NewHandler(o.kb),
	}
}

// Resolve applies the decisions one by one, running the chain to a fixed
// point after each. The stored state is replaced only when every decision
// resolved without error.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (*Result, error) {
	state, err := o.load(ctx, req)
	if err != nil {
		return nil, err
	}

	work := state.Clone()

	decisions := req.Decisions
	if len(decisions) == 0 {
		decisions = []model.Decision{nil}
	}

	total := 0
	for _, d := range decisions {
		n, err := o.converge(work, d, req.Metadata)
		total += n
		if err != nil {
			return nil, oops.With("session", req.SessionID, "decision", describe(d)).Wrap(err)
		}
	}

	if o.repo != nil && req.SessionID != "" {
		if err := o.repo.Save(ctx, req.SessionID, work); err != nil {
			return nil, oops.In("resolver").With("session", req.SessionID).Errorf("failed to save session: %w", err)
		}
	}

	resolved := work.Knowledge.Resolved()
	slog.Debug("Resolution finished",
		"session", req.SessionID,
		"iterations", total,
		"resolved", resolved,
	)

	return &Result{
		SessionID:  req.SessionID,
		State:      work,
		Resolved:   resolved,
		Iterations: total,
	}, nil
}

func (o *Orchestrator) load(ctx context.Context, req Request) (*State, error) {
	if req.State != nil {
		return req.State, nil
	}

	if o.repo == nil || req.SessionID == "" {
		return o.NewState(), nil
	}

	state, err := o.repo.Load(ctx, req.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return o.NewState(), nil
	}
	if err != nil {
		return nil, oops.In("resolver").With("session", req.SessionID).Errorf("failed to load session: %w", err)
	}

	return state, nil
}

// converge runs the chain until no stage reports a change. The decision is
// only seen by the first pass.
func (o *Orchestrator) converge(s *State, d model.Decision, md *Metadata) (int, error) {
	for i := 1; i <= o.opts.MaxIterations; i++ {
		s.Knowledge.Stable = true
		s.Handler.KnowledgeDirty = false

		for _, stage := range o.chain {
			k, err := stage.Resolve(s.Knowledge, d, s.Handler, md)
			if err != nil {
				return i, err
			}
			s.Knowledge = k
		}

		if s.Knowledge.Stable && !s.Handler.KnowledgeDirty {
			return i, nil
		}

		d = nil
	}

	return o.opts.MaxIterations, oops.In("resolver").
		Code("not_converged").
		With("max_iterations", o.opts.MaxIterations).
		Wrapf(ErrNotConverged, "no fixed point after %d iterations", o.opts.MaxIterations)
}

func describe(d model.Decision) string {
	if d == nil {
		return "none"
	}

	return d.String()
}
