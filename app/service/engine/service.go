package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"varconf/app/config"
	"varconf/app/kb"
	"varconf/app/model"
	"varconf/app/resolver"
	"varconf/app/service/queue"
	"varconf/app/service/session"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

type Service struct {
	cfg          *config.Config
	orchestrator *resolver.Orchestrator
	queueSvc     *queue.Service

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	opts := resolver.Options{
		MaxIterations:       cfg.Resolver.MaxIterations,
		RootPurposeOptional: cfg.Resolver.RootPurposeOptional,
		AutoCompleteRoots:   cfg.Resolver.AutoCompleteRoots,
	}

	return &Service{
		cfg: cfg,
		orchestrator: resolver.NewOrchestrator(
			do.MustInvoke[*kb.KnowledgeBase](di),
			opts,
			do.MustInvoke[*session.Service](di),
		),
		queueSvc: do.MustInvoke[*queue.Service](di),
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Run consumes the decision queue until the context ends or the queue is
// closed. A failed decision is logged and leaves its session untouched.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-s.queueSvc.Channel():
			if !ok {
				return nil
			}

			var decisions []model.Decision
			if msg.Decision != nil {
				decisions = append(decisions, msg.Decision)
			}

			if _, err := s.Apply(ctx, msg.SessionID, decisions...); err != nil {
				slog.Warn("Decision rejected",
					"session", msg.SessionID,
					"decision", describe(msg.Decision),
					"error", err,
				)
			}
		}
	}
}

// Apply resolves the decisions against the session. An empty session id
// starts a fresh session under a generated id.
func (s *Service) Apply(ctx context.Context, sessionID string, decisions ...model.Decision) (*resolver.Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lock := s.lock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	var md *resolver.Metadata
	if s.cfg.Resolver.Diagnostics {
		md = resolver.NewMetadata()
	}

	start := time.Now()
	result, err := s.orchestrator.Resolve(ctx, resolver.Request{
		SessionID: sessionID,
		Decisions: decisions,
		Metadata:  md,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session %s: %w", sessionID, err)
	}

	for _, e := range md.Entries() {
		slog.Debug("Resolution note", "session", sessionID, "key", e.Key, "message", e.Message)
	}

	open := pie.Map(result.State.Knowledge.OpenChoices(), func(c model.Choice) string {
		return c.String()
	})

	slog.Info("Processed decisions",
		"session", sessionID,
		"decisions", len(decisions),
		"iterations", result.Iterations,
		"resolved", result.Resolved,
		"entities", result.State.Knowledge.CountEntities(),
		"open_choices", open,
		"duration", time.Since(start),
	)

	return result, nil
}

func (s *Service) lock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}

	return l
}

func describe(d model.Decision) string {
	if d == nil {
		return "none"
	}

	return d.String()
}
