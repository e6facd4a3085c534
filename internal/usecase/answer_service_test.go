package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/infrastructure/repository/memory"
	"github.com/footchat/footchat/internal/platform/cache"
	"github.com/footchat/footchat/internal/platform/logging"
)

func newAnswerService(extractor IntentExtractor, searcher EntitySearcher, executor QueryExecutor, results *cache.Store) *AnswerService {
	logger := logging.NewNop()
	resolver := NewEntityResolverService(searcher, memory.NewMappingRepository(), logger)
	turns := NewTurnService(resolver, NewQueryPlanService().WithClock(midSeasonClock), nil, logger)
	return NewAnswerService(extractor, turns, executor, results, logger)
}

func TestAsk_MatchEventsBindsFixtureFromLookup(t *testing.T) {
	t.Parallel()

	extractor := fakeExtractor{draft: intent.Draft{
		Name: intent.MatchEvents,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Benfica"),
			intent.SlotTeamB: intent.RawText("Porto"),
			intent.SlotDate:  intent.RawDateText("2024-03-02"),
		},
	}}
	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"benfica": {candidate(entity.KindTeam, 211, "Benfica")},
		"porto":   {candidate(entity.KindTeam, 212, "Porto")},
	}}
	executor := &fakeExecutor{respond: func(q query.ResolvedQuery) (Records, error) {
		switch q.Endpoint {
		case query.EndpointHeadToHead:
			return Records{
				Endpoint: q.Endpoint,
				Fixtures: []FixtureRow{{FixtureID: 777, HomeTeam: "Benfica", AwayTeam: "Porto", Status: "FT"}},
			}, nil
		case query.EndpointFixtureEvents:
			if q.Params["fixture"].Kind != query.ValueKindInt || q.Params["fixture"].Int != 777 {
				return Records{}, fmt.Errorf("fixture id was not bound: %+v", q.Params["fixture"])
			}
			return Records{
				Endpoint: q.Endpoint,
				Events:   []MatchEventRow{{Minute: 12, TeamName: "Benfica", PlayerName: "Di Maria", Type: "Goal", Detail: "Normal Goal"}},
			}, nil
		default:
			return Records{}, fmt.Errorf("unexpected endpoint %s", q.Endpoint)
		}
	}}

	answers := newAnswerService(extractor, searcher, executor, nil)

	answer, err := answers.Ask(context.Background(), "What happened in Benfica vs Porto on 2 March?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer.State != TurnStateReady {
		t.Fatalf("expected ready answer, got %s: %q", answer.State, answer.Text)
	}
	if !strings.Contains(answer.Text, "Di Maria") {
		t.Fatalf("expected event in answer, got %q", answer.Text)
	}
	if executor.callCount() != 2 {
		t.Fatalf("expected two provider calls, got %d", executor.callCount())
	}
}

func TestAsk_MatchEventsWithoutFixtureFound(t *testing.T) {
	t.Parallel()

	extractor := fakeExtractor{draft: intent.Draft{
		Name: intent.MatchEvents,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Benfica"),
			intent.SlotTeamB: intent.RawText("Porto"),
			intent.SlotDate:  intent.RawDateText("2024-03-02"),
		},
	}}
	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"benfica": {candidate(entity.KindTeam, 211, "Benfica")},
		"porto":   {candidate(entity.KindTeam, 212, "Porto")},
	}}
	executor := &fakeExecutor{respond: func(q query.ResolvedQuery) (Records, error) {
		return Records{Endpoint: q.Endpoint}, nil
	}}

	answers := newAnswerService(extractor, searcher, executor, nil)

	_, err := answers.Ask(context.Background(), "What happened in Benfica vs Porto on 2 March?")
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound when no fixture matches, got %v", err)
	}
}

func TestAsk_CachesRepeatedStandingsQuery(t *testing.T) {
	t.Parallel()

	extractor := fakeExtractor{draft: intent.Draft{
		Name: intent.Standings,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotLeague: intent.RawText("Premier League"),
			intent.SlotSeason: intent.RawText("23/24"),
		},
	}}
	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"premier league": {candidate(entity.KindLeague, 39, "Premier League")},
	}}
	executor := &fakeExecutor{respond: func(q query.ResolvedQuery) (Records, error) {
		return Records{
			Endpoint:  q.Endpoint,
			Standings: []StandingRow{{Position: 1, TeamName: "Arsenal", Played: 28, Won: 20, Draw: 5, Lost: 3, GoalDifference: 45, Points: 65}},
		}, nil
	}}

	answers := newAnswerService(extractor, searcher, executor, cache.NewStore(time.Minute))

	for i := 0; i < 2; i++ {
		answer, err := answers.Ask(context.Background(), "Premier League table 23/24")
		if err != nil {
			t.Fatalf("ask %d: %v", i, err)
		}
		if !strings.Contains(answer.Text, "Arsenal") {
			t.Fatalf("expected standings in answer, got %q", answer.Text)
		}
	}

	if executor.callCount() != 1 {
		t.Fatalf("expected one provider fetch for repeated question, got %d", executor.callCount())
	}
}

func TestAsk_UnsupportedIntent(t *testing.T) {
	t.Parallel()

	answers := newAnswerService(fakeExtractor{draft: intent.Draft{Name: intent.Unsupported}}, &fakeSearcher{}, &fakeExecutor{}, nil)

	answer, err := answers.Ask(context.Background(), "Who won the NBA finals?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer.State != TurnStateFailed {
		t.Fatalf("expected failed state, got %s", answer.State)
	}
	if !strings.Contains(answer.Text, "football") {
		t.Fatalf("expected scope explanation, got %q", answer.Text)
	}
}

func TestAsk_ClarificationAnswerListsCandidates(t *testing.T) {
	t.Parallel()

	extractor := fakeExtractor{draft: intent.Draft{
		Name: intent.NextMatch,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("United"),
		},
	}}
	searcher := &fakeSearcher{byName: map[string][]entity.Candidate{
		"united": {
			{Ref: entity.Ref{ProviderID: 33, DisplayName: "Manchester United", Kind: entity.KindTeam}, Context: "England"},
			{Ref: entity.Ref{ProviderID: 62, DisplayName: "Sheffield United", Kind: entity.KindTeam}, Context: "England"},
		},
	}}

	answers := newAnswerService(extractor, searcher, &fakeExecutor{}, nil)

	answer, err := answers.Ask(context.Background(), "When do United play next?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer.State != TurnStateNeedsClarification {
		t.Fatalf("expected needs_clarification, got %s", answer.State)
	}
	if len(answer.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", answer.Candidates)
	}
	if !strings.Contains(answer.Text, "Which one did you mean") {
		t.Fatalf("expected clarification prompt, got %q", answer.Text)
	}
}

func TestAsk_ProviderFailureSurfacesAsError(t *testing.T) {
	t.Parallel()

	extractor := fakeExtractor{draft: intent.Draft{
		Name: intent.NextMatch,
		Slots: map[intent.SlotName]intent.RawValue{
			intent.SlotTeamA: intent.RawText("Arsenal"),
		},
	}}
	searcher := &fakeSearcher{err: fmt.Errorf("%w: provider rate limited", ErrDependencyUnavailable)}

	answers := newAnswerService(extractor, searcher, &fakeExecutor{}, nil)

	_, err := answers.Ask(context.Background(), "When do Arsenal play next?")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	t.Parallel()

	answers := newAnswerService(fakeExtractor{}, &fakeSearcher{}, &fakeExecutor{}, nil)

	if _, err := answers.Ask(context.Background(), "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
