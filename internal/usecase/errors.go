package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnknownIntent         = intent.ErrUnknownIntent
	ErrEntityNotFound        = errors.New("entity not found")
	ErrAmbiguousEntity       = errors.New("ambiguous entity")
	ErrMissingRequiredSlot   = errors.New("missing required slot")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// AmbiguousEntityError reports a resolution that ended with several equally
// plausible candidates. It is recoverable: the caller can ask the user to
// pick one, unlike the hard failure kinds.
type AmbiguousEntityError struct {
	Slot       intent.SlotName
	Kind       entity.Kind
	Input      string
	Candidates []entity.Candidate
}

func (e *AmbiguousEntityError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, candidate := range e.Candidates {
		label := candidate.Ref.DisplayName
		if candidate.Context != "" {
			label += " (" + candidate.Context + ")"
		}
		names = append(names, label)
	}

	return fmt.Sprintf("ambiguous %s %q: candidates: %s", e.Kind, e.Input, strings.Join(names, ", "))
}

func (e *AmbiguousEntityError) Unwrap() error {
	return ErrAmbiguousEntity
}
