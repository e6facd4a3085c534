package usecase

import (
	"context"
	"time"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/intent"
	"github.com/footchat/footchat/internal/domain/query"
)

// SearchFilters narrow a provider fuzzy search. Zero values mean unscoped.
type SearchFilters struct {
	LeagueID   int64
	SeasonYear int
}

// EntitySearcher is the provider's fuzzy-search capability.
type EntitySearcher interface {
	SearchEntities(ctx context.Context, kind entity.Kind, name string, filters SearchFilters) ([]entity.Candidate, error)
}

// QueryExecutor runs one fully-qualified query against the provider.
type QueryExecutor interface {
	Execute(ctx context.Context, q query.ResolvedQuery) (Records, error)
}

// IntentExtractor is the NLP collaborator turning raw text into a draft
// intent. Its output is treated as untrusted raw slot strings.
type IntentExtractor interface {
	Extract(ctx context.Context, userText string) (intent.Draft, error)
}

// EntityMappingRepository persists normalized-name -> provider-id mappings.
// Writes are idempotent: the same name+scope always maps to the same Ref.
type EntityMappingRepository interface {
	Get(ctx context.Context, kind entity.Kind, normalizedName string, leagueID int64) (entity.Ref, bool, error)
	Put(ctx context.Context, kind entity.Kind, normalizedName string, leagueID int64, ref entity.Ref) error
}

// Records is the typed union of provider fetch results, one field per
// endpoint family.
type Records struct {
	Endpoint      query.Endpoint
	Standings     []StandingRow
	Fixtures      []FixtureRow
	Events        []MatchEventRow
	PlayerSeasons []PlayerSeasonRow
}

type StandingRow struct {
	Position       int
	TeamName       string
	Played         int
	Won            int
	Draw           int
	Lost           int
	GoalDifference int
	Points         int
}

type FixtureRow struct {
	FixtureID  int64
	LeagueName string
	HomeTeam   string
	AwayTeam   string
	HomeGoals  *int
	AwayGoals  *int
	KickoffAt  time.Time
	Status     string
}

type MatchEventRow struct {
	Minute     int
	TeamName   string
	PlayerName string
	Type       string
	Detail     string
}

type PlayerSeasonRow struct {
	PlayerName  string
	TeamName    string
	LeagueName  string
	SeasonYear  int
	Appearances int
	Goals       int
	Assists     int
	YellowCards int
	RedCards    int
	Rating      string
}
