package intent

import (
	"errors"
	"fmt"
)

// Name identifies a supported question type. The set is closed: anything the
// NLP extractor cannot map onto it comes back as Unsupported.
type Name string

const (
	Standings   Name = "standings"
	Fixture     Name = "fixture"
	MatchEvents Name = "match_events"
	PlayerStats Name = "player_stats"
	HeadToHead  Name = "head_to_head"
	NextMatch   Name = "next_match"

	// Unsupported is a recognized extractor outcome but has no schema entry;
	// it never reaches the resolution pipeline.
	Unsupported Name = "unsupported"
)

var ErrUnknownIntent = errors.New("unknown intent")

type SlotName string

const (
	SlotLeague SlotName = "league"
	SlotTeamA  SlotName = "team_a"
	SlotTeamB  SlotName = "team_b"
	SlotPlayer SlotName = "player"
	SlotSeason SlotName = "season"
	SlotDate   SlotName = "date"
	SlotLimit  SlotName = "limit"
)

type SlotType string

const (
	SlotTypeLeagueRef SlotType = "league_ref"
	SlotTypeTeamRef   SlotType = "team_ref"
	SlotTypePlayerRef SlotType = "player_ref"
	SlotTypeSeason    SlotType = "season"
	SlotTypeDate      SlotType = "date"
	SlotTypeCount     SlotType = "count"
)

// SlotSpec declares one named parameter of an intent. Declaration order is
// significant: it is the deterministic tie-break for reporting failures when
// several slots fail at once.
type SlotSpec struct {
	Name     SlotName
	Type     SlotType
	Required bool
}

var schemaByIntent = map[Name][]SlotSpec{
	Standings: {
		{Name: SlotLeague, Type: SlotTypeLeagueRef, Required: true},
		{Name: SlotSeason, Type: SlotTypeSeason},
		{Name: SlotLimit, Type: SlotTypeCount},
	},
	Fixture: {
		{Name: SlotTeamA, Type: SlotTypeTeamRef, Required: true},
		{Name: SlotTeamB, Type: SlotTypeTeamRef},
		{Name: SlotDate, Type: SlotTypeDate},
		{Name: SlotLeague, Type: SlotTypeLeagueRef},
		{Name: SlotSeason, Type: SlotTypeSeason},
	},
	MatchEvents: {
		{Name: SlotTeamA, Type: SlotTypeTeamRef, Required: true},
		{Name: SlotTeamB, Type: SlotTypeTeamRef, Required: true},
		{Name: SlotDate, Type: SlotTypeDate, Required: true},
		{Name: SlotLeague, Type: SlotTypeLeagueRef},
	},
	PlayerStats: {
		{Name: SlotPlayer, Type: SlotTypePlayerRef, Required: true},
		{Name: SlotSeason, Type: SlotTypeSeason},
		{Name: SlotLeague, Type: SlotTypeLeagueRef},
	},
	HeadToHead: {
		{Name: SlotTeamA, Type: SlotTypeTeamRef, Required: true},
		{Name: SlotTeamB, Type: SlotTypeTeamRef, Required: true},
		{Name: SlotSeason, Type: SlotTypeSeason},
		{Name: SlotLimit, Type: SlotTypeCount},
	},
	NextMatch: {
		{Name: SlotTeamA, Type: SlotTypeTeamRef, Required: true},
	},
}

// SlotsFor returns the declared slots of an intent in declaration order.
func SlotsFor(name Name) ([]SlotSpec, error) {
	specs, ok := schemaByIntent[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
	}

	out := make([]SlotSpec, len(specs))
	copy(out, specs)
	return out, nil
}

// Names lists every intent that has a schema entry, for exhaustive tests.
func Names() []Name {
	return []Name{Standings, Fixture, MatchEvents, PlayerStats, HeadToHead, NextMatch}
}
