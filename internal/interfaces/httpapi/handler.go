package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/domain/season"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/footchat/footchat/internal/usecase"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

type Handler struct {
	answerService *usecase.AnswerService
	turns         *usecase.TurnService
	resolver      *usecase.EntityResolverService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(answerService *usecase.AnswerService, turns *usecase.TurnService, resolver *usecase.EntityResolverService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		answerService: answerService,
		turns:         turns,
		resolver:      resolver,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Ask")
	defer span.End()

	var req askRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	answer, err := h.answerService.Ask(ctx, req.Question)
	if err != nil {
		h.logger.WarnContext(ctx, "ask failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, askResponseDTO{
		TurnID:     answer.TurnID,
		State:      string(answer.State),
		Answer:     answer.Text,
		Candidates: answer.Candidates,
	})
}

// ResolveTurn runs a draft intent through the full turn state machine and
// reports the terminal outcome: the provider-ready query plan, a
// clarification request, or a mapped error for failed turns.
func (h *Handler) ResolveTurn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveTurn")
	defer span.End()

	var req turnRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	outcome := h.turns.ResolveTurn(ctx, draftFromRequest(req))
	if outcome.State == usecase.TurnStateFailed {
		h.logger.WarnContext(ctx, "turn resolution failed",
			"intent", req.Intent,
			"slot", outcome.FailedSlot,
			"error", outcome.Err,
		)
		writeError(ctx, w, outcome.Err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, turnOutcomeToDTO(outcome))
}

func (h *Handler) ResolveEntity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveEntity")
	defer span.End()

	var req resolveRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	kind, err := parseEntityKind(req.Kind)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	scope := usecase.ResolveScope{}
	if strings.TrimSpace(req.Season) != "" {
		label, err := season.ParseSeasonLabel(req.Season)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		scope.Season = &label
	}
	if strings.TrimSpace(req.League) != "" {
		league, err := h.resolver.Resolve(ctx, entity.KindLeague, req.League, scope)
		if err != nil {
			h.logger.WarnContext(ctx, "resolve league scope failed", "league", req.League, "error", err)
			writeError(ctx, w, err)
			return
		}
		scope.League = &league
	}

	ref, err := h.resolver.Resolve(ctx, kind, req.Name, scope)
	if err != nil {
		var ambiguous *usecase.AmbiguousEntityError
		if errors.As(err, &ambiguous) {
			writeSuccess(ctx, w, http.StatusOK, resolveResponseDTO{
				Resolved:   false,
				Candidates: candidatesToDTO(ambiguous.Candidates),
			})
			return
		}
		h.logger.WarnContext(ctx, "resolve entity failed", "kind", kind, "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolveResponseDTO{
		Resolved: true,
		Entity: &entityRefDTO{
			ProviderID:  ref.ProviderID,
			DisplayName: ref.DisplayName,
			Kind:        string(ref.Kind),
		},
	})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parseEntityKind(v string) (entity.Kind, error) {
	switch entity.Kind(strings.ToLower(strings.TrimSpace(v))) {
	case entity.KindTeam:
		return entity.KindTeam, nil
	case entity.KindPlayer:
		return entity.KindPlayer, nil
	case entity.KindLeague:
		return entity.KindLeague, nil
	default:
		return "", fmt.Errorf("%w: unknown entity kind %q", usecase.ErrInvalidInput, v)
	}
}

func candidatesToDTO(candidates []entity.Candidate) []candidateDTO {
	out := make([]candidateDTO, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, candidateDTO{
			Entity: entityRefDTO{
				ProviderID:  candidate.Ref.ProviderID,
				DisplayName: candidate.Ref.DisplayName,
				Kind:        string(candidate.Ref.Kind),
			},
			Context: candidate.Context,
		})
	}

	return out
}

func draftFromRequest(req turnRequest) intent.Draft {
	draft := intent.Draft{
		Name:  intent.Name(strings.TrimSpace(req.Intent)),
		Slots: make(map[intent.SlotName]intent.RawValue, len(req.Slots)),
	}
	for name, slot := range req.Slots {
		switch {
		case slot.Int != nil:
			draft.Slots[intent.SlotName(name)] = intent.RawInteger(*slot.Int)
		case slot.Date != "":
			draft.Slots[intent.SlotName(name)] = intent.RawDateText(slot.Date)
		default:
			draft.Slots[intent.SlotName(name)] = intent.RawText(slot.Text)
		}
	}

	return draft
}

func turnOutcomeToDTO(outcome usecase.TurnOutcome) turnResponseDTO {
	dto := turnResponseDTO{
		TurnID: outcome.TurnID,
		State:  string(outcome.State),
	}

	if outcome.Clarification != nil {
		dto.Clarification = &clarificationDTO{
			Slot:       string(outcome.Clarification.Slot),
			Kind:       string(outcome.Clarification.Kind),
			Input:      outcome.Clarification.Input,
			Candidates: candidatesToDTO(outcome.Clarification.Candidates),
		}
	}

	for _, q := range outcome.Queries {
		dto.Queries = append(dto.Queries, resolvedQueryDTO{
			Endpoint: string(q.Endpoint),
			Params:   queryParamsToDTO(q.Params),
		})
	}

	return dto
}

func queryParamsToDTO(params map[string]query.Value) map[string]queryParamDTO {
	out := make(map[string]queryParamDTO, len(params))
	for name, value := range params {
		param := queryParamDTO{Kind: string(value.Kind)}
		switch value.Kind {
		case query.ValueKindDate:
			param.Date = value.Date.String()
		case query.ValueKindSeason:
			param.Season = value.Season.String()
		case query.ValueKindEntity:
			param.Entity = &entityRefDTO{
				ProviderID:  value.Entity.ProviderID,
				DisplayName: value.Entity.DisplayName,
				Kind:        string(value.Entity.Kind),
			}
		case query.ValueKindInt:
			param.Int = value.Int
		case query.ValueKindPrior:
			index := value.PriorIndex
			param.PriorIndex = &index
			param.PriorField = value.PriorField
		}
		out[name] = param
	}

	return out
}

type askRequest struct {
	Question string `json:"question" validate:"required,max=250"`
}

type turnRequest struct {
	Intent string                 `json:"intent" validate:"required,max=50"`
	Slots  map[string]turnSlotDTO `json:"slots" validate:"dive"`
}

type turnSlotDTO struct {
	Text string `json:"text,omitempty" validate:"max=100"`
	Date string `json:"date,omitempty" validate:"max=20"`
	Int  *int   `json:"int,omitempty"`
}

type turnResponseDTO struct {
	TurnID        string             `json:"turnId"`
	State         string             `json:"state"`
	Queries       []resolvedQueryDTO `json:"queries,omitempty"`
	Clarification *clarificationDTO  `json:"clarification,omitempty"`
}

type resolvedQueryDTO struct {
	Endpoint string                   `json:"endpoint"`
	Params   map[string]queryParamDTO `json:"params"`
}

type queryParamDTO struct {
	Kind       string        `json:"kind"`
	Date       string        `json:"date,omitempty"`
	Season     string        `json:"season,omitempty"`
	Entity     *entityRefDTO `json:"entity,omitempty"`
	Int        int           `json:"int,omitempty"`
	PriorIndex *int          `json:"priorIndex,omitempty"`
	PriorField string        `json:"priorField,omitempty"`
}

type clarificationDTO struct {
	Slot       string         `json:"slot"`
	Kind       string         `json:"kind"`
	Input      string         `json:"input"`
	Candidates []candidateDTO `json:"candidates"`
}

type resolveRequest struct {
	Kind   string `json:"kind" validate:"required"`
	Name   string `json:"name" validate:"required,max=100"`
	League string `json:"league" validate:"max=100"`
	Season string `json:"season" validate:"max=10"`
}

type askResponseDTO struct {
	TurnID     string   `json:"turnId"`
	State      string   `json:"state"`
	Answer     string   `json:"answer"`
	Candidates []string `json:"candidates,omitempty"`
}

type resolveResponseDTO struct {
	Resolved   bool           `json:"resolved"`
	Entity     *entityRefDTO  `json:"entity,omitempty"`
	Candidates []candidateDTO `json:"candidates,omitempty"`
}

type entityRefDTO struct {
	ProviderID  int64  `json:"providerId"`
	DisplayName string `json:"displayName"`
	Kind        string `json:"kind"`
}

type candidateDTO struct {
	Entity  entityRefDTO `json:"entity"`
	Context string       `json:"context,omitempty"`
}
