package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/footchat/footchat/internal/domain/intent"
)

func isProviderFailure(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}

func renderAnswer(name intent.Name, results []Records) string {
	if len(results) == 0 {
		return "No results."
	}

	last := results[len(results)-1]
	switch name {
	case intent.Standings:
		return renderStandings(last.Standings)
	case intent.Fixture, intent.HeadToHead, intent.NextMatch:
		return renderFixtures(last.Fixtures)
	case intent.MatchEvents:
		return renderEvents(last.Events)
	case intent.PlayerStats:
		return renderPlayerSeasons(last.PlayerSeasons)
	default:
		return "No results."
	}
}

func renderStandings(rows []StandingRow) string {
	if len(rows) == 0 {
		return "No standings available."
	}

	var b strings.Builder
	b.WriteString("Pos  Club                      P   W   D   L   GD  Pts\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%3d  %-24s %3d %3d %3d %3d %+4d %4d\n",
			row.Position,
			truncateName(row.TeamName, 24),
			row.Played,
			row.Won,
			row.Draw,
			row.Lost,
			row.GoalDifference,
			row.Points,
		)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderFixtures(rows []FixtureRow) string {
	if len(rows) == 0 {
		return "No matching fixtures found."
	}

	var b strings.Builder
	for _, row := range rows {
		if row.HomeGoals != nil && row.AwayGoals != nil {
			fmt.Fprintf(&b, "%s %d–%d %s", row.HomeTeam, *row.HomeGoals, *row.AwayGoals, row.AwayTeam)
		} else {
			fmt.Fprintf(&b, "%s vs %s", row.HomeTeam, row.AwayTeam)
		}
		if !row.KickoffAt.IsZero() {
			fmt.Fprintf(&b, " (%s", row.KickoffAt.Format("2 Jan 2006"))
			if row.LeagueName != "" {
				b.WriteString(", " + row.LeagueName)
			}
			b.WriteString(")")
		} else if row.LeagueName != "" {
			b.WriteString(" (" + row.LeagueName + ")")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderEvents(rows []MatchEventRow) string {
	if len(rows) == 0 {
		return "No notable events."
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%2d'  %s: %s (%s", row.Minute, row.TeamName, row.PlayerName, row.Type)
		if row.Detail != "" {
			b.WriteString(" – " + row.Detail)
		}
		b.WriteString(")\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderPlayerSeasons(rows []PlayerSeasonRow) string {
	if len(rows) == 0 {
		return "No player statistics found."
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s – %s, season %d", row.PlayerName, row.TeamName, row.SeasonYear)
		if row.LeagueName != "" {
			b.WriteString(" (" + row.LeagueName + ")")
		}
		fmt.Fprintf(&b, "\nApps: %d | Goals: %d | Assists: %d | Yellow: %d | Red: %d",
			row.Appearances, row.Goals, row.Assists, row.YellowCards, row.RedCards)
		if row.Rating != "" {
			fmt.Fprintf(&b, " | Rating: %s", row.Rating)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	return name[:max-1] + "…"
}
