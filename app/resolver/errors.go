package resolver

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrUnknownChoice is raised for a choice type no stage knows how to handle.
	ErrUnknownChoice = errors.New("unknown choice type")
	// ErrUnknownReference is raised for a decision or entity naming ids absent
	// from the knowledge base.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrMalformed is raised for an event, relation or rule that cannot be
	// interpreted.
	ErrMalformed = errors.New("malformed knowledge base entry")
	// ErrNotConverged is raised when the stage chain keeps reporting changes
	// after the configured number of iterations.
	ErrNotConverged = errors.New("resolution did not converge")

	ErrSessionNotFound = errors.New("session not found")
)

func stageError(stage string) oops.OopsErrorBuilder {
	return oops.In("resolver").Tags(stage)
}
