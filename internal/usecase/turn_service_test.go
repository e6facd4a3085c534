package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/domain/season"
	"github.com/footchat/footchat/internal/infrastructure/repository/memory"
	"github.com/footchat/footchat/internal/platform/logging"
)

// midSeasonClock pins "now" inside the 2023/24 cross-year season.
func midSeasonClock() time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func newTurnService(searcher EntitySearcher) *TurnService {
	logger := logging.NewNop()
	resolver := NewEntityResolverService(searcher, memory.NewMappingRepository(), logger)
	plans := NewQueryPlanService().WithClock(midSeasonClock)
	return NewTurnService(resolver, plans, nil, logger)
}

func TestResolveTurn_HeadToHeadReady(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"benfica": {candidate(entity.KindTeam, 211, "Benfica")},
		"porto":   {candidate(entity.KindTeam, 212, "Porto")},
	}}
	turns := newTurnService(searcher)

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name: intent.HeadToHead,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Benfica"),
			intent.SlotTeamB: intent.RawText("Porto"),
		},
	})

	if outcome.State != TurnStateReady {
		t.Fatalf("expected ready outcome, got %s (err=%v)", outcome.State, outcome.Err)
	}
	if outcome.TurnID == "" {
		t.Fatalf("expected a turn id")
	}
	if len(outcome.Queries) != 1 {
		t.Fatalf("expected one query, got %d", len(outcome.Queries))
	}

	q := outcome.Queries[0]
	if q.Endpoint != query.EndpointHeadToHead {
		t.Fatalf("unexpected endpoint: %s", q.Endpoint)
	}
	if q.Params["team_a"].Entity.ProviderID != 211 || q.Params["team_b"].Entity.ProviderID != 212 {
		t.Fatalf("unexpected team params: %+v", q.Params)
	}
	if q.Params["last"].Int != defaultHeadToHeadLimit {
		t.Fatalf("expected default last=%d, got %d", defaultHeadToHeadLimit, q.Params["last"].Int)
	}
	if _, hasSeason := q.Params["season"]; hasSeason {
		t.Fatalf("head-to-head must not filter by season unless asked")
	}
}

func TestResolveTurn_StandingsWithSeason(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"premier league": {candidate(entity.KindLeague, 39, "Premier League")},
	}}
	turns := newTurnService(searcher)

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name: intent.Standings,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotLeague: intent.RawText("Premier League"),
			intent.SlotSeason: intent.RawText("23/24"),
		},
	})

	if outcome.State != TurnStateReady {
		t.Fatalf("expected ready outcome, got %s (err=%v)", outcome.State, outcome.Err)
	}
	q := outcome.Queries[0]
	if q.Endpoint != query.EndpointStandings {
		t.Fatalf("unexpected endpoint: %s", q.Endpoint)
	}
	if q.Params["season"].Season != (season.Label{StartYear: 2023, EndYear: 2024}) {
		t.Fatalf("unexpected season param: %+v", q.Params["season"].Season)
	}
	// The season scope travels into the provider search too.
	if searcher.lastFilters.SeasonYear != 2023 {
		t.Fatalf("expected season filter 2023 on entity search, got %d", searcher.lastFilters.SeasonYear)
	}
}

func TestResolveTurn_AmbiguousPlayerNeedsClarification(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"ronaldo": {
			{Ref: entity.Ref{ProviderID: 874, DisplayName: "Cristiano Ronaldo", Kind: entity.KindPlayer}, Context: "Al Nassr, Portugal"},
			{Ref: entity.Ref{ProviderID: 907, DisplayName: "Ronaldo Vieira", Kind: entity.KindPlayer}, Context: "Sassuolo, England"},
		},
	}}
	turns := newTurnService(searcher)

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name: intent.PlayerStats,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotPlayer: intent.RawText("Ronaldo"),
		},
	})

	if outcome.State != TurnStateNeedsClarification {
		t.Fatalf("expected needs_clarification, got %s (err=%v)", outcome.State, outcome.Err)
	}
	if outcome.Clarification == nil || outcome.Clarification.Slot != intent.SlotPlayer {
		t.Fatalf("unexpected clarification: %+v", outcome.Clarification)
	}
	if len(outcome.Clarification.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(outcome.Clarification.Candidates))
	}
}

func TestResolveTurn_MalformedDateFails(t *testing.T) {
	t.Parallel()

	turns := newTurnService(&fakeSearcher{})

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name: intent.MatchEvents,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Benfica"),
			intent.SlotTeamB: intent.RawText("Porto"),
			intent.SlotDate:  intent.RawDateText("32-13-2024"),
		},
	})

	if outcome.State != TurnStateFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.State)
	}
	if outcome.FailedSlot != intent.SlotDate {
		t.Fatalf("expected date slot to be blamed, got %q", outcome.FailedSlot)
	}
	if !errors.Is(outcome.Err, season.ErrUnparseableDate) {
		t.Fatalf("expected ErrUnparseableDate, got %v", outcome.Err)
	}
}

func TestResolveTurn_TwoAmbiguousSlotsReportFirstDeclared(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"united": {
			candidate(entity.KindTeam, 33, "Manchester United"),
			candidate(entity.KindTeam, 62, "Sheffield United"),
		},
		"rovers": {
			candidate(entity.KindTeam, 64, "Blackburn Rovers"),
			candidate(entity.KindTeam, 67, "Bristol Rovers"),
		},
	}}
	turns := newTurnService(searcher)

	draft := intent.Draft{
		Name: intent.HeadToHead,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("United"),
			intent.SlotTeamB: intent.RawText("Rovers"),
		},
	}

	// Both slots are ambiguous; the declared-first slot must win the
	// clarification every run.
	for i := 0; i < 5; i++ {
		outcome := turns.ResolveTurn(context.Background(), draft)
		if outcome.State != TurnStateNeedsClarification {
			t.Fatalf("expected needs_clarification, got %s", outcome.State)
		}
		if outcome.Clarification.Slot != intent.SlotTeamA {
			t.Fatalf("run %d: expected team_a clarification, got %q", i, outcome.Clarification.Slot)
		}
	}
}

func TestResolveTurn_PlaceholderSlotIsAbsent(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"arsenal": {candidate(entity.KindTeam, 42, "Arsenal")},
	}}
	turns := newTurnService(searcher)

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name: intent.Fixture,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Arsenal"),
			intent.SlotTeamB: intent.RawText("null"),
		},
	})

	if outcome.State != TurnStateReady {
		t.Fatalf("expected ready outcome, got %s (err=%v)", outcome.State, outcome.Err)
	}
	if outcome.Queries[0].Endpoint != query.EndpointFixtures {
		t.Fatalf("placeholder team_b must not trigger head-to-head, got %s", outcome.Queries[0].Endpoint)
	}
}

func TestResolveTurn_MissingRequiredSlot(t *testing.T) {
	t.Parallel()

	turns := newTurnService(&fakeSearcher{})

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name:  intent.Standings,
		Slots: map[intent.SlotName]intent.RawValue{},
	})

	if outcome.State != TurnStateFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.State)
	}
	if !errors.Is(outcome.Err, ErrMissingRequiredSlot) {
		t.Fatalf("expected ErrMissingRequiredSlot, got %v", outcome.Err)
	}
}

func TestResolveTurn_UndeclaredSlotFailsValidation(t *testing.T) {
	t.Parallel()

	turns := newTurnService(&fakeSearcher{})

	outcome := turns.ResolveTurn(context.Background(), intent.Draft{
		Name: intent.NextMatch,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Arsenal"),
			intent.SlotDate:  intent.RawDateText("2024-05-01"),
		},
	})

	if outcome.State != TurnStateFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.State)
	}
}
