package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/domain/season"
	"github.com/footchat/footchat/internal/platform/id"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

type TurnState string

const (
	TurnStateReady              TurnState = "ready"
	TurnStateNeedsClarification TurnState = "needs_clarification"
	TurnStateFailed             TurnState = "failed"
)

// Clarification asks the user to pick between candidates that resolution
// could not separate.
type Clarification struct {
	Slot       intent.SlotName
	Kind       entity.Kind
	Input      string
	Candidates []entity.Candidate
}

// TurnOutcome is the terminal result of one resolution turn. Exactly one of
// Queries / Clarification / Err is populated depending on State.
type TurnOutcome struct {
	TurnID        string
	Intent        intent.Name
	State         TurnState
	Queries       []query.ResolvedQuery
	Clarification *Clarification
	FailedSlot    intent.SlotName
	Err           error
}

// TurnService drives one user turn through normalization, entity resolution
// and query building. All outcomes are terminal; retrying (re-prompting the
// user, backing off a rate limit) is the caller's decision.
type TurnService struct {
	resolver *EntityResolverService
	plans    *QueryPlanService
	ids      id.Generator
	logger   *logging.Logger
}

func NewTurnService(resolver *EntityResolverService, plans *QueryPlanService, ids id.Generator, logger *logging.Logger) *TurnService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}

	return &TurnService{
		resolver: resolver,
		plans:    plans,
		ids:      ids,
		logger:   logger,
	}
}

// placeholderValues are the extractor's ways of saying "the user did not say";
// they are treated as absent slots, never resolved as names.
var placeholderValues = map[string]struct{}{
	"":            {},
	"null":        {},
	"none":        {},
	"unknown":     {},
	"unspecified": {},
	"current":     {},
	"this season": {},
}

func isPlaceholder(text string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// ResolveTurn runs the turn state machine over a draft intent.
func (s *TurnService) ResolveTurn(ctx context.Context, draft intent.Draft) TurnOutcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.TurnService.ResolveTurn")
	defer span.End()

	turnID, err := s.ids.NewID()
	if err != nil {
		turnID = "unidentified"
	}
	outcome := TurnOutcome{TurnID: turnID, Intent: draft.Name}

	if err := draft.Validate(); err != nil {
		outcome.State = TurnStateFailed
		outcome.Err = err
		return outcome
	}
	specs, err := intent.SlotsFor(draft.Name)
	if err != nil {
		outcome.State = TurnStateFailed
		outcome.Err = err
		return outcome
	}

	slots := NewResolvedSlots()

	// NormalizingDates: a malformed date or season label fails the whole
	// turn; every downstream call would need the value.
	for _, spec := range specs {
		raw, present := draft.Slots[spec.Name]
		if !present || (raw.Kind != intent.RawKindInteger && isPlaceholder(raw.Text)) {
			continue
		}

		switch spec.Type {
		case intent.SlotTypeDate:
			date, err := season.ParseDate(raw.Text)
			if err != nil {
				return s.fail(ctx, outcome, spec.Name, err)
			}
			slots.Dates[spec.Name] = date
		case intent.SlotTypeSeason:
			label, err := season.ParseSeasonLabel(raw.Text)
			if err != nil {
				return s.fail(ctx, outcome, spec.Name, err)
			}
			slots.Seasons[spec.Name] = label
		case intent.SlotTypeCount:
			count, err := countFromRaw(raw)
			if err != nil {
				return s.fail(ctx, outcome, spec.Name, err)
			}
			slots.Counts[spec.Name] = count
		}
	}

	// ResolvingEntities: the league slot resolves first because it scopes
	// every other lookup; the remaining entity slots are independent and run
	// concurrently. Failures are reported in slot declaration order so two
	// ambiguous slots cannot flip error messages between runs.
	scope := ResolveScope{}
	if label, ok := slots.Seasons[intent.SlotSeason]; ok {
		scoped := label
		scope.Season = &scoped
	}

	entitySpecs := make([]intent.SlotSpec, 0, len(specs))
	for _, spec := range specs {
		if !isEntitySlot(spec.Type) {
			continue
		}
		raw, present := draft.Slots[spec.Name]
		if !present || isPlaceholder(raw.Text) {
			continue
		}
		if spec.Type == intent.SlotTypeLeagueRef {
			league, err := s.resolver.Resolve(ctx, entity.KindLeague, raw.Text, scope)
			if err != nil {
				return s.failResolution(ctx, outcome, spec.Name, entity.KindLeague, raw.Text, err)
			}
			slots.Entities[spec.Name] = league
			ref := league
			scope.League = &ref
			continue
		}
		entitySpecs = append(entitySpecs, spec)
	}

	type slotResult struct {
		ref entity.Ref
		err error
	}
	results := make([]slotResult, len(entitySpecs))

	var wg conc.WaitGroup
	for i, spec := range entitySpecs {
		i, spec := i, spec
		raw := draft.Slots[spec.Name]
		wg.Go(func() {
			kind := entity.KindTeam
			if spec.Type == intent.SlotTypePlayerRef {
				kind = entity.KindPlayer
			}
			ref, err := s.resolver.Resolve(ctx, kind, raw.Text, scope)
			results[i] = slotResult{ref: ref, err: err}
		})
	}
	wg.Wait()

	for i, spec := range entitySpecs {
		result := results[i]
		if result.err == nil {
			slots.Entities[spec.Name] = result.ref
			continue
		}

		kind := entity.KindTeam
		if spec.Type == intent.SlotTypePlayerRef {
			kind = entity.KindPlayer
		}
		return s.failResolution(ctx, outcome, spec.Name, kind, draft.Slots[spec.Name].Text, result.err)
	}

	// BuildingQuery.
	queries, err := s.plans.Build(draft.Name, slots)
	if err != nil {
		return s.fail(ctx, outcome, "", err)
	}

	outcome.State = TurnStateReady
	outcome.Queries = queries
	s.logger.DebugContext(ctx, "turn resolved",
		"turn_id", outcome.TurnID,
		"intent", draft.Name,
		"queries", len(queries),
	)

	return outcome
}

func (s *TurnService) fail(ctx context.Context, outcome TurnOutcome, slot intent.SlotName, err error) TurnOutcome {
	outcome.State = TurnStateFailed
	outcome.FailedSlot = slot
	outcome.Err = err
	s.logger.InfoContext(ctx, "turn failed",
		"turn_id", outcome.TurnID,
		"intent", outcome.Intent,
		"slot", slot,
		"error", err,
	)

	return outcome
}

func (s *TurnService) failResolution(ctx context.Context, outcome TurnOutcome, slot intent.SlotName, kind entity.Kind, input string, err error) TurnOutcome {
	var ambiguous *AmbiguousEntityError
	if errors.As(err, &ambiguous) {
		outcome.State = TurnStateNeedsClarification
		outcome.Clarification = &Clarification{
			Slot:       slot,
			Kind:       kind,
			Input:      input,
			Candidates: ambiguous.Candidates,
		}
		s.logger.InfoContext(ctx, "turn needs clarification",
			"turn_id", outcome.TurnID,
			"intent", outcome.Intent,
			"slot", slot,
			"candidates", len(ambiguous.Candidates),
		)
		return outcome
	}

	return s.fail(ctx, outcome, slot, err)
}

func isEntitySlot(t intent.SlotType) bool {
	switch t {
	case intent.SlotTypeLeagueRef, intent.SlotTypeTeamRef, intent.SlotTypePlayerRef:
		return true
	default:
		return false
	}
}

func countFromRaw(raw intent.RawValue) (int, error) {
	if raw.Kind == intent.RawKindInteger {
		if raw.Int <= 0 {
			return 0, fmt.Errorf("%w: count must be greater than zero", ErrInvalidInput)
		}
		return raw.Int, nil
	}

	count, err := strconv.Atoi(strings.TrimSpace(raw.Text))
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid count", ErrInvalidInput, raw.Text)
	}

	return count, nil
}
