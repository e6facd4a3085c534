package usecase

import (
	"fmt"
	"time"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/domain/season"
)

const defaultHeadToHeadLimit = 10

// ResolvedSlots carries a turn's slot values after normalization and entity
// resolution, keyed by slot name.
type ResolvedSlots struct {
	Entities map[intent.SlotName]entity.Ref
	Seasons  map[intent.SlotName]season.Label
	Dates    map[intent.SlotName]season.CalendarDate
	Counts   map[intent.SlotName]int
}

func NewResolvedSlots() ResolvedSlots {
	return ResolvedSlots{
		Entities: make(map[intent.SlotName]entity.Ref),
		Seasons:  make(map[intent.SlotName]season.Label),
		Dates:    make(map[intent.SlotName]season.CalendarDate),
		Counts:   make(map[intent.SlotName]int),
	}
}

// QueryPlanService turns a validated intent plus resolved slots into the
// ordered provider calls that intent requires.
type QueryPlanService struct {
	now func() time.Time
}

func NewQueryPlanService() *QueryPlanService {
	return &QueryPlanService{now: time.Now}
}

// WithClock overrides the season-default clock; tests pin it.
func (s *QueryPlanService) WithClock(now func() time.Time) *QueryPlanService {
	if now != nil {
		s.now = now
	}
	return s
}

// Build composes the provider query sequence for one intent. Calls are
// ordered; a later call may bind a parameter to a prior call's result.
func (s *QueryPlanService) Build(name intent.Name, slots ResolvedSlots) ([]query.ResolvedQuery, error) {
	specs, err := intent.SlotsFor(name)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		if !slots.has(spec) {
			return nil, fmt.Errorf("%w: %s requires slot %q", ErrMissingRequiredSlot, name, spec.Name)
		}
	}

	switch name {
	case intent.Standings:
		return s.buildStandings(slots), nil
	case intent.Fixture:
		return s.buildFixture(slots), nil
	case intent.MatchEvents:
		return s.buildMatchEvents(slots), nil
	case intent.PlayerStats:
		return s.buildPlayerStats(slots), nil
	case intent.HeadToHead:
		return s.buildHeadToHead(slots), nil
	case intent.NextMatch:
		return s.buildNextMatch(slots), nil
	default:
		return nil, fmt.Errorf("%w: %q has no query plan", intent.ErrUnknownIntent, name)
	}
}

func (s *QueryPlanService) buildStandings(slots ResolvedSlots) []query.ResolvedQuery {
	params := map[string]query.Value{
		"league": query.EntityValue(slots.Entities[intent.SlotLeague]),
		"season": query.SeasonValue(s.seasonOrCurrent(slots)),
	}

	return []query.ResolvedQuery{{Endpoint: query.EndpointStandings, Params: params}}
}

func (s *QueryPlanService) buildFixture(slots ResolvedSlots) []query.ResolvedQuery {
	params := map[string]query.Value{
		"team_a": query.EntityValue(slots.Entities[intent.SlotTeamA]),
	}
	if teamB, ok := slots.Entities[intent.SlotTeamB]; ok {
		params["team_b"] = query.EntityValue(teamB)
	}
	if date, ok := slots.Dates[intent.SlotDate]; ok {
		params["date"] = query.DateValue(date)
	}
	if league, ok := slots.Entities[intent.SlotLeague]; ok {
		params["league"] = query.EntityValue(league)
	}
	if label, ok := slots.Seasons[intent.SlotSeason]; ok {
		params["season"] = query.SeasonValue(label)
	}

	endpoint := query.EndpointFixtures
	if _, bothTeams := params["team_b"]; bothTeams {
		endpoint = query.EndpointHeadToHead
	}

	return []query.ResolvedQuery{{Endpoint: endpoint, Params: params}}
}

func (s *QueryPlanService) buildMatchEvents(slots ResolvedSlots) []query.ResolvedQuery {
	lookup := map[string]query.Value{
		"team_a": query.EntityValue(slots.Entities[intent.SlotTeamA]),
		"team_b": query.EntityValue(slots.Entities[intent.SlotTeamB]),
		"date":   query.DateValue(slots.Dates[intent.SlotDate]),
	}
	if league, ok := slots.Entities[intent.SlotLeague]; ok {
		lookup["league"] = query.EntityValue(league)
	}

	// The fixture id is only known after the head-to-head lookup runs.
	events := map[string]query.Value{
		"fixture": query.PriorValue(0, "fixture_id"),
	}

	return []query.ResolvedQuery{
		{Endpoint: query.EndpointHeadToHead, Params: lookup},
		{Endpoint: query.EndpointFixtureEvents, Params: events},
	}
}

func (s *QueryPlanService) buildPlayerStats(slots ResolvedSlots) []query.ResolvedQuery {
	params := map[string]query.Value{
		"player": query.EntityValue(slots.Entities[intent.SlotPlayer]),
		"season": query.SeasonValue(s.seasonOrCurrent(slots)),
	}
	if league, ok := slots.Entities[intent.SlotLeague]; ok {
		params["league"] = query.EntityValue(league)
	}

	return []query.ResolvedQuery{{Endpoint: query.EndpointPlayers, Params: params}}
}

func (s *QueryPlanService) buildHeadToHead(slots ResolvedSlots) []query.ResolvedQuery {
	limit := defaultHeadToHeadLimit
	if count, ok := slots.Counts[intent.SlotLimit]; ok && count > 0 {
		limit = count
	}

	params := map[string]query.Value{
		"team_a": query.EntityValue(slots.Entities[intent.SlotTeamA]),
		"team_b": query.EntityValue(slots.Entities[intent.SlotTeamB]),
		"last":   query.IntValue(limit),
	}
	// No season filter unless the user asked for one: head-to-head history
	// spans seasons by default.
	if label, ok := slots.Seasons[intent.SlotSeason]; ok {
		params["season"] = query.SeasonValue(label)
	}

	return []query.ResolvedQuery{{Endpoint: query.EndpointHeadToHead, Params: params}}
}

func (s *QueryPlanService) buildNextMatch(slots ResolvedSlots) []query.ResolvedQuery {
	params := map[string]query.Value{
		"team": query.EntityValue(slots.Entities[intent.SlotTeamA]),
		"next": query.IntValue(1),
	}

	return []query.ResolvedQuery{{Endpoint: query.EndpointFixtures, Params: params}}
}

// seasonOrCurrent falls back to the season the clock currently sits in,
// assuming the cross-year calendar most covered competitions use.
func (s *QueryPlanService) seasonOrCurrent(slots ResolvedSlots) season.Label {
	if label, ok := slots.Seasons[intent.SlotSeason]; ok {
		return label
	}
	return season.DeduceSeason(season.DateOf(s.now()), season.CrossYear)
}

func (r ResolvedSlots) has(spec intent.SlotSpec) bool {
	switch spec.Type {
	case intent.SlotTypeLeagueRef, intent.SlotTypeTeamRef, intent.SlotTypePlayerRef:
		_, ok := r.Entities[spec.Name]
		return ok
	case intent.SlotTypeSeason:
		_, ok := r.Seasons[spec.Name]
		return ok
	case intent.SlotTypeDate:
		_, ok := r.Dates[spec.Name]
		return ok
	case intent.SlotTypeCount:
		_, ok := r.Counts[spec.Name]
		return ok
	default:
		return false
	}
}
