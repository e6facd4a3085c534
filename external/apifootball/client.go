package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/query"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/footchat/footchat/internal/platform/resilience"
	"github.com/footchat/footchat/internal/usecase"
)

const (
	defaultBaseURL = "https://v3.football.api-sports.io"
	defaultTimeout = 8 * time.Second
	apiKeyHeader   = "x-apisports-key"
)

var errAPIFootballTransient = crerr.New("api-football transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Key            string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to API-Football v3. It implements both provider ports: fuzzy
// entity search and resolved-query execution.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	key            string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var (
	_ usecase.EntitySearcher = (*Client)(nil)
	_ usecase.QueryExecutor  = (*Client)(nil)
)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		key:            strings.TrimSpace(cfg.Key),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) SearchEntities(ctx context.Context, kind entity.Kind, name string, filters usecase.SearchFilters) ([]entity.Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("search name must not be empty")
	}

	switch kind {
	case entity.KindTeam:
		return c.searchTeams(ctx, name, filters)
	case entity.KindPlayer:
		return c.searchPlayers(ctx, name, filters)
	case entity.KindLeague:
		return c.searchLeagues(ctx, name)
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", kind)
	}
}

func (c *Client) searchTeams(ctx context.Context, name string, filters usecase.SearchFilters) ([]entity.Candidate, error) {
	params := url.Values{}
	params.Set("search", name)
	if filters.LeagueID > 0 {
		params.Set("league", strconv.FormatInt(filters.LeagueID, 10))
	}
	if filters.SeasonYear > 0 {
		params.Set("season", strconv.Itoa(filters.SeasonYear))
	}

	var envelope teamSearchEnvelope
	if _, err := c.doJSON(ctx, "/teams", params, &envelope); err != nil {
		return nil, fmt.Errorf("search teams %q: %w", name, err)
	}

	out := make([]entity.Candidate, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if item.Team.ID <= 0 || strings.TrimSpace(item.Team.Name) == "" {
			continue
		}
		candidate := entity.Candidate{
			Ref: entity.Ref{
				ProviderID:  item.Team.ID,
				DisplayName: strings.TrimSpace(item.Team.Name),
				Kind:        entity.KindTeam,
			},
			Context: strings.TrimSpace(item.Team.Country),
		}
		// A league-scoped search only returns teams from that league.
		if filters.LeagueID > 0 {
			candidate.LeagueID = filters.LeagueID
		}
		out = append(out, candidate)
	}

	return out, nil
}

func (c *Client) searchPlayers(ctx context.Context, name string, filters usecase.SearchFilters) ([]entity.Candidate, error) {
	params := url.Values{}
	params.Set("search", name)
	if filters.LeagueID > 0 {
		params.Set("league", strconv.FormatInt(filters.LeagueID, 10))
	}
	if filters.SeasonYear > 0 {
		params.Set("season", strconv.Itoa(filters.SeasonYear))
	}

	var envelope playerSearchEnvelope
	if _, err := c.doJSON(ctx, "/players", params, &envelope); err != nil {
		return nil, fmt.Errorf("search players %q: %w", name, err)
	}

	out := make([]entity.Candidate, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if item.Player.ID <= 0 || strings.TrimSpace(item.Player.Name) == "" {
			continue
		}
		candidate := entity.Candidate{
			Ref: entity.Ref{
				ProviderID:  item.Player.ID,
				DisplayName: strings.TrimSpace(item.Player.Name),
				Kind:        entity.KindPlayer,
			},
			Context: strings.TrimSpace(item.Player.Nationality),
		}
		if len(item.Statistics) > 0 {
			stat := item.Statistics[0]
			candidate.LeagueID = stat.League.ID
			if team := strings.TrimSpace(stat.Team.Name); team != "" {
				candidate.Context = joinContext(team, candidate.Context)
			}
		}
		out = append(out, candidate)
	}

	return out, nil
}

func (c *Client) searchLeagues(ctx context.Context, name string) ([]entity.Candidate, error) {
	params := url.Values{}
	params.Set("search", name)

	var envelope leagueSearchEnvelope
	if _, err := c.doJSON(ctx, "/leagues", params, &envelope); err != nil {
		return nil, fmt.Errorf("search leagues %q: %w", name, err)
	}

	out := make([]entity.Candidate, 0, len(envelope.Response))
	for _, item := range envelope.Response {
		if item.League.ID <= 0 || strings.TrimSpace(item.League.Name) == "" {
			continue
		}
		out = append(out, entity.Candidate{
			Ref: entity.Ref{
				ProviderID:  item.League.ID,
				DisplayName: strings.TrimSpace(item.League.Name),
				Kind:        entity.KindLeague,
			},
			Context: strings.TrimSpace(item.Country.Name),
		})
	}

	return out, nil
}

// Execute runs one resolved query. Prior-bound parameters must already be
// substituted by the caller.
func (c *Client) Execute(ctx context.Context, q query.ResolvedQuery) (usecase.Records, error) {
	params, err := encodeParams(q)
	if err != nil {
		return usecase.Records{}, err
	}

	switch q.Endpoint {
	case query.EndpointStandings:
		return c.fetchStandings(ctx, params)
	case query.EndpointFixtures, query.EndpointHeadToHead:
		return c.fetchFixtures(ctx, q.Endpoint, params)
	case query.EndpointFixtureEvents:
		return c.fetchEvents(ctx, params)
	case query.EndpointPlayers:
		return c.fetchPlayerSeasons(ctx, params)
	default:
		return usecase.Records{}, fmt.Errorf("unsupported endpoint %q", q.Endpoint)
	}
}

func (c *Client) fetchStandings(ctx context.Context, params url.Values) (usecase.Records, error) {
	var envelope standingsEnvelope
	if _, err := c.doJSON(ctx, "/standings", params, &envelope); err != nil {
		return usecase.Records{}, fmt.Errorf("fetch standings: %w", err)
	}

	records := usecase.Records{Endpoint: query.EndpointStandings}
	for _, item := range envelope.Response {
		for _, group := range item.League.Standings {
			for _, row := range group {
				records.Standings = append(records.Standings, usecase.StandingRow{
					Position:       row.Rank,
					TeamName:       row.Team.Name,
					Played:         row.All.Played,
					Won:            row.All.Win,
					Draw:           row.All.Draw,
					Lost:           row.All.Lose,
					GoalDifference: row.GoalDiff,
					Points:         row.Points,
				})
			}
		}
	}

	return records, nil
}

func (c *Client) fetchFixtures(ctx context.Context, endpoint query.Endpoint, params url.Values) (usecase.Records, error) {
	path := "/fixtures"
	if endpoint == query.EndpointHeadToHead {
		path = "/fixtures/headtohead"
	}

	var envelope fixturesEnvelope
	if _, err := c.doJSON(ctx, path, params, &envelope); err != nil {
		return usecase.Records{}, fmt.Errorf("fetch fixtures: %w", err)
	}

	records := usecase.Records{Endpoint: endpoint}
	for _, item := range envelope.Response {
		if item.Fixture.ID <= 0 {
			continue
		}
		records.Fixtures = append(records.Fixtures, usecase.FixtureRow{
			FixtureID:  item.Fixture.ID,
			LeagueName: item.League.Name,
			HomeTeam:   item.Teams.Home.Name,
			AwayTeam:   item.Teams.Away.Name,
			HomeGoals:  item.Goals.Home,
			AwayGoals:  item.Goals.Away,
			KickoffAt:  parseKickoff(item.Fixture.Date),
			Status:     item.Fixture.Status.Short,
		})
	}

	return records, nil
}

func (c *Client) fetchEvents(ctx context.Context, params url.Values) (usecase.Records, error) {
	var envelope eventsEnvelope
	if _, err := c.doJSON(ctx, "/fixtures/events", params, &envelope); err != nil {
		return usecase.Records{}, fmt.Errorf("fetch fixture events: %w", err)
	}

	records := usecase.Records{Endpoint: query.EndpointFixtureEvents}
	for _, item := range envelope.Response {
		records.Events = append(records.Events, usecase.MatchEventRow{
			Minute:     item.Time.Elapsed,
			TeamName:   item.Team.Name,
			PlayerName: item.Player.Name,
			Type:       item.Type,
			Detail:     item.Detail,
		})
	}

	return records, nil
}

func (c *Client) fetchPlayerSeasons(ctx context.Context, params url.Values) (usecase.Records, error) {
	var envelope playerSearchEnvelope
	if _, err := c.doJSON(ctx, "/players", params, &envelope); err != nil {
		return usecase.Records{}, fmt.Errorf("fetch player stats: %w", err)
	}

	records := usecase.Records{Endpoint: query.EndpointPlayers}
	for _, item := range envelope.Response {
		for _, stat := range item.Statistics {
			row := usecase.PlayerSeasonRow{
				PlayerName:  item.Player.Name,
				TeamName:    stat.Team.Name,
				LeagueName:  stat.League.Name,
				SeasonYear:  stat.League.Season,
				Appearances: stat.Games.Appearances,
				YellowCards: stat.Cards.Yellow,
				RedCards:    stat.Cards.Red,
				Rating:      strings.TrimSpace(stat.Games.Rating),
			}
			if stat.Goals.Total != nil {
				row.Goals = *stat.Goals.Total
			}
			if stat.Goals.Assists != nil {
				row.Assists = *stat.Goals.Assists
			}
			records.PlayerSeasons = append(records.PlayerSeasons, row)
		}
	}

	return records, nil
}

// encodeParams maps resolved query parameters onto provider query-string
// keys. Two entity refs on a head-to-head query collapse into the provider's
// "h2h" pair syntax.
func encodeParams(q query.ResolvedQuery) (url.Values, error) {
	params := url.Values{}
	var h2hA, h2hB int64

	for name, value := range q.Params {
		if value.Kind == query.ValueKindPrior {
			return nil, fmt.Errorf("query %s parameter %q is still prior-bound", q.Endpoint, name)
		}

		switch name {
		case "team_a":
			h2hA = value.Entity.ProviderID
		case "team_b":
			h2hB = value.Entity.ProviderID
		case "league":
			params.Set("league", strconv.FormatInt(value.Entity.ProviderID, 10))
		case "player":
			params.Set("id", strconv.FormatInt(value.Entity.ProviderID, 10))
		case "team":
			params.Set("team", strconv.FormatInt(value.Entity.ProviderID, 10))
		case "season":
			params.Set("season", strconv.Itoa(value.Season.StartYear))
		case "date":
			params.Set("date", value.Date.String())
		case "fixture", "last", "next":
			params.Set(name, strconv.Itoa(value.Int))
		default:
			return nil, fmt.Errorf("query %s has unsupported parameter %q", q.Endpoint, name)
		}
	}

	switch {
	case q.Endpoint == query.EndpointHeadToHead:
		if h2hA <= 0 || h2hB <= 0 {
			return nil, fmt.Errorf("head-to-head query requires two teams")
		}
		params.Set("h2h", fmt.Sprintf("%d-%d", h2hA, h2hB))
	case h2hA > 0:
		params.Set("team", strconv.FormatInt(h2hA, 10))
	}

	return params, nil
}

func (c *Client) doJSON(ctx context.Context, path string, params url.Values, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: football data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + params.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isAPIFootballCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		if stderrors.Is(err, errAPIFootballTransient) {
			return nil, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	var meta envelopeMeta
	if err := sonic.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	if message := meta.Errors.join(); message != "" {
		return nil, fmt.Errorf("provider rejected request: %s", message)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set(apiKeyHeader, c.key)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errAPIFootballTransient, sanitizeSensitiveText(err.Error(), c.key))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errAPIFootballTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errAPIFootballTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "api-football request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" || key == "" {
		return value
	}
	return strings.ReplaceAll(value, key, "REDACTED")
}

func isAPIFootballCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errAPIFootballTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func parseKickoff(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func joinContext(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ", ")
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
