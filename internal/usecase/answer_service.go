package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/platform/cache"
	"github.com/footchat/footchat/internal/platform/logging"
)

const unsupportedReply = "Sorry, I can only answer football questions about standings, fixtures, match events, player stats and head-to-head records."

// Answer is the rendered reply for one user question.
type Answer struct {
	TurnID     string
	State      TurnState
	Text       string
	Candidates []string
}

// AnswerService is the full ask pipeline: extract a draft intent, resolve the
// turn, execute the query plan in order, and render the records as text.
type AnswerService struct {
	extractor IntentExtractor
	turns     *TurnService
	executor  QueryExecutor
	results   *cache.Store
	logger    *logging.Logger
}

func NewAnswerService(extractor IntentExtractor, turns *TurnService, executor QueryExecutor, results *cache.Store, logger *logging.Logger) *AnswerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &AnswerService{
		extractor: extractor,
		turns:     turns,
		executor:  executor,
		results:   results,
		logger:    logger,
	}
}

// Ask answers one free-text question. Resolution failures come back as
// explanatory answers, not errors; only transport-level problems (provider
// down, extractor down) surface as errors for the caller's backoff policy.
func (s *AnswerService) Ask(ctx context.Context, question string) (Answer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnswerService.Ask")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}

	draft, err := s.extractor.Extract(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("extract intent: %w", err)
	}
	if draft.Name == intent.Unsupported {
		return Answer{State: TurnStateFailed, Text: unsupportedReply}, nil
	}

	outcome := s.turns.ResolveTurn(ctx, draft)
	switch outcome.State {
	case TurnStateNeedsClarification:
		return s.clarificationAnswer(outcome), nil
	case TurnStateFailed:
		if outcome.Err != nil && isProviderFailure(outcome.Err) {
			return Answer{}, outcome.Err
		}
		return Answer{
			TurnID: outcome.TurnID,
			State:  TurnStateFailed,
			Text:   failureReply(outcome),
		}, nil
	}

	records, err := s.executePlan(ctx, outcome.Queries)
	if err != nil {
		return Answer{}, fmt.Errorf("execute query plan: %w", err)
	}

	return Answer{
		TurnID: outcome.TurnID,
		State:  TurnStateReady,
		Text:   renderAnswer(draft.Name, records),
	}, nil
}

// executePlan runs the queries in order, substituting prior-bound parameters
// with values from earlier results. Cacheable results go through the TTL
// store so repeated standings questions within a session cost one fetch.
func (s *AnswerService) executePlan(ctx context.Context, queries []query.ResolvedQuery) ([]Records, error) {
	out := make([]Records, 0, len(queries))
	for _, q := range queries {
		bound, err := bindPriorParams(q, out)
		if err != nil {
			return nil, err
		}

		records, err := s.executeOne(ctx, bound)
		if err != nil {
			return nil, err
		}
		out = append(out, records)
	}

	return out, nil
}

func (s *AnswerService) executeOne(ctx context.Context, q query.ResolvedQuery) (Records, error) {
	key := q.Fingerprint()
	if s.results == nil || key == "" {
		return s.executor.Execute(ctx, q)
	}

	value, err := s.results.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.executor.Execute(ctx, q)
	})
	if err != nil {
		return Records{}, err
	}

	records, ok := value.(Records)
	if !ok {
		return Records{}, fmt.Errorf("unexpected cached record type %T", value)
	}
	return records, nil
}

func bindPriorParams(q query.ResolvedQuery, prior []Records) (query.ResolvedQuery, error) {
	bound := query.ResolvedQuery{Endpoint: q.Endpoint, Params: make(map[string]query.Value, len(q.Params))}
	for name, value := range q.Params {
		if value.Kind != query.ValueKindPrior {
			bound.Params[name] = value
			continue
		}
		if value.PriorIndex < 0 || value.PriorIndex >= len(prior) {
			return query.ResolvedQuery{}, fmt.Errorf("query %s binds %q to missing prior result %d", q.Endpoint, name, value.PriorIndex)
		}

		switch value.PriorField {
		case "fixture_id":
			fixtures := prior[value.PriorIndex].Fixtures
			if len(fixtures) == 0 {
				return query.ResolvedQuery{}, fmt.Errorf("%w: no fixture found to read %q from", ErrEntityNotFound, name)
			}
			bound.Params[name] = query.IntValue(int(fixtures[0].FixtureID))
		default:
			return query.ResolvedQuery{}, fmt.Errorf("unknown prior field %q", value.PriorField)
		}
	}

	return bound, nil
}

func (s *AnswerService) clarificationAnswer(outcome TurnOutcome) Answer {
	clarification := outcome.Clarification
	names := make([]string, 0, len(clarification.Candidates))
	for _, candidate := range clarification.Candidates {
		label := candidate.Ref.DisplayName
		if candidate.Context != "" {
			label += " (" + candidate.Context + ")"
		}
		names = append(names, label)
	}

	return Answer{
		TurnID:     outcome.TurnID,
		State:      TurnStateNeedsClarification,
		Text:       fmt.Sprintf("I found more than one %s called %q. Which one did you mean: %s?", clarification.Kind, clarification.Input, strings.Join(names, " or ")),
		Candidates: names,
	}
}

func failureReply(outcome TurnOutcome) string {
	if outcome.Err == nil {
		return "I could not work out what you were asking."
	}
	if outcome.FailedSlot != "" {
		return fmt.Sprintf("I could not make sense of %s: %v.", outcome.FailedSlot, outcome.Err)
	}
	return fmt.Sprintf("I could not answer that: %v.", outcome.Err)
}
