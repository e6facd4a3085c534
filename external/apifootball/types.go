package apifootball

import (
	"strings"

	sonic "github.com/bytedance/sonic"
)

// apiErrors tolerates both encodings API-Football uses: an empty JSON array
// when the call succeeded and an object of field->message when it did not.
type apiErrors map[string]string

func (e *apiErrors) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		*e = nil
		return nil
	}

	out := make(map[string]string)
	if err := sonic.Unmarshal(data, &out); err != nil {
		return err
	}
	*e = out
	return nil
}

func (e apiErrors) join() string {
	if len(e) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e))
	for field, message := range e {
		parts = append(parts, field+": "+message)
	}
	return strings.Join(parts, "; ")
}

type envelopeMeta struct {
	Errors  apiErrors `json:"errors"`
	Results int       `json:"results"`
}

type teamSearchEnvelope struct {
	Response []teamSearchItem `json:"response"`
}

type teamSearchItem struct {
	Team teamInfo `json:"team"`
}

type teamInfo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

type leagueSearchEnvelope struct {
	Response []leagueSearchItem `json:"response"`
}

type leagueSearchItem struct {
	League  leagueInfo  `json:"league"`
	Country countryInfo `json:"country"`
}

type leagueInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type countryInfo struct {
	Name string `json:"name"`
}

type playerSearchEnvelope struct {
	Response []playerSearchItem `json:"response"`
}

type playerSearchItem struct {
	Player     playerInfo       `json:"player"`
	Statistics []playerStatItem `json:"statistics"`
}

type playerInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
}

type playerStatItem struct {
	Team   teamInfo       `json:"team"`
	League leagueStatInfo `json:"league"`
	Games  gamesInfo      `json:"games"`
	Goals  goalsInfo      `json:"goals"`
	Cards  cardsInfo      `json:"cards"`
}

type leagueStatInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Season int    `json:"season"`
}

type gamesInfo struct {
	Appearances int    `json:"appearences"`
	Rating      string `json:"rating"`
}

type goalsInfo struct {
	Total   *int `json:"total"`
	Assists *int `json:"assists"`
}

type cardsInfo struct {
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

type standingsEnvelope struct {
	Response []standingsLeagueItem `json:"response"`
}

type standingsLeagueItem struct {
	League standingsLeague `json:"league"`
}

type standingsLeague struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Standings [][]standingItem `json:"standings"`
}

type standingItem struct {
	Rank     int           `json:"rank"`
	Team     teamInfo      `json:"team"`
	Points   int           `json:"points"`
	GoalDiff int           `json:"goalsDiff"`
	All      standingStats `json:"all"`
}

type standingStats struct {
	Played int `json:"played"`
	Win    int `json:"win"`
	Draw   int `json:"draw"`
	Lose   int `json:"lose"`
}

type fixturesEnvelope struct {
	Response []fixtureItem `json:"response"`
}

type fixtureItem struct {
	Fixture fixtureInfo    `json:"fixture"`
	League  leagueStatInfo `json:"league"`
	Teams   fixtureTeams   `json:"teams"`
	Goals   fixtureGoals   `json:"goals"`
}

type fixtureInfo struct {
	ID     int64         `json:"id"`
	Date   string        `json:"date"`
	Status fixtureStatus `json:"status"`
}

type fixtureStatus struct {
	Short string `json:"short"`
}

type fixtureTeams struct {
	Home teamInfo `json:"home"`
	Away teamInfo `json:"away"`
}

type fixtureGoals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type eventsEnvelope struct {
	Response []eventItem `json:"response"`
}

type eventItem struct {
	Time   eventTime  `json:"time"`
	Team   teamInfo   `json:"team"`
	Player playerInfo `json:"player"`
	Type   string     `json:"type"`
	Detail string     `json:"detail"`
}

type eventTime struct {
	Elapsed int  `json:"elapsed"`
	Extra   *int `json:"extra"`
}
