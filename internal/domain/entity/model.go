package entity

import "fmt"

type Kind string

const (
	KindTeam   Kind = "team"
	KindPlayer Kind = "player"
	KindLeague Kind = "league"
)

// Ref is a provider-recognized entity. The provider owns the catalog; a Ref
// is only ever produced by resolution, never constructed from user text.
type Ref struct {
	ProviderID  int64
	DisplayName string
	Kind        Kind
}

func (r Ref) Validate() error {
	if r.ProviderID <= 0 {
		return fmt.Errorf("entity provider id must be greater than zero")
	}
	if r.DisplayName == "" {
		return fmt.Errorf("entity display name is required")
	}
	switch r.Kind {
	case KindTeam, KindPlayer, KindLeague:
	default:
		return fmt.Errorf("invalid entity kind %q", r.Kind)
	}

	return nil
}

// Candidate is an intermediate search hit: a Ref plus the score and the
// context (country, league) that lets a user tell same-named entities apart.
type Candidate struct {
	Ref   Ref
	Score int
	// Context is the human-readable disambiguator shown in clarification
	// prompts ("Premier League, England").
	Context string
	// LeagueID is set when the provider reports the candidate's current
	// league; it backs the in-league ranking boost.
	LeagueID int64
}
