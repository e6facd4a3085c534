package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/season"
	"github.com/footchat/footchat/internal/platform/logging"
)

const (
	scoreExact     = 100
	scorePrefix    = 60
	scoreSubstring = 30
	scoreLeagueHit = 15
)

// teamAliases expands common nicknames before normalization. The provider's
// fuzzy search does not know "Spurs" is Tottenham; users do.
var teamAliases = map[string]string{
	"man utd":    "manchester united",
	"man united": "manchester united",
	"man city":   "manchester city",
	"spurs":      "tottenham hotspur",
	"barca":      "barcelona",
	"atleti":     "atletico madrid",
	"inter":      "inter milan",
	"wolves":     "wolverhampton wanderers",
	"psg":        "paris saint germain",
	"gunners":    "arsenal",
}

// ResolveScope narrows a lookup: a league scopes the provider search and
// boosts in-league candidates; a season scopes historical squads.
type ResolveScope struct {
	League *entity.Ref
	Season *season.Label
}

// EntityResolverService maps free-text names onto provider entities. It is
// the one component exposed to real-world naming mess, so ambiguity is an
// explicit outcome here, never a silent first-hit pick.
type EntityResolverService struct {
	searcher EntitySearcher
	mappings EntityMappingRepository
	logger   *logging.Logger
}

func NewEntityResolverService(searcher EntitySearcher, mappings EntityMappingRepository, logger *logging.Logger) *EntityResolverService {
	if logger == nil {
		logger = logging.Default()
	}

	return &EntityResolverService{
		searcher: searcher,
		mappings: mappings,
		logger:   logger,
	}
}

// Resolve returns the single best provider entity for rawText, or
// AmbiguousEntityError / ErrEntityNotFound. Successful resolutions are
// cached under the normalized name and scope; repeats hit the cache.
func (s *EntityResolverService) Resolve(ctx context.Context, kind entity.Kind, rawText string, scope ResolveScope) (entity.Ref, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolverService.Resolve")
	defer span.End()

	normalized := entity.NormalizeName(expandAlias(kind, rawText))
	if normalized == "" {
		return entity.Ref{}, fmt.Errorf("%w: %s name is empty", ErrInvalidInput, kind)
	}

	var scopeLeagueID int64
	if scope.League != nil {
		scopeLeagueID = scope.League.ProviderID
	}

	if cached, ok, err := s.mappings.Get(ctx, kind, normalized, scopeLeagueID); err != nil {
		s.logger.WarnContext(ctx, "mapping lookup failed, falling through to search", "kind", kind, "name", normalized, "error", err)
	} else if ok {
		return cached, nil
	}

	filters := SearchFilters{LeagueID: scopeLeagueID}
	if scope.Season != nil {
		filters.SeasonYear = scope.Season.StartYear
	}

	candidates, err := s.searcher.SearchEntities(ctx, kind, normalized, filters)
	if err != nil {
		return entity.Ref{}, fmt.Errorf("search %s %q: %w", kind, rawText, err)
	}

	winners := rankCandidates(candidates, normalized, scopeLeagueID)
	switch {
	case len(winners) == 0:
		return entity.Ref{}, fmt.Errorf("%w: no %s matches %q", ErrEntityNotFound, kind, rawText)
	case len(winners) > 1:
		return entity.Ref{}, &AmbiguousEntityError{Kind: kind, Input: rawText, Candidates: winners}
	}

	winner := winners[0].Ref
	if err := s.mappings.Put(ctx, kind, normalized, scopeLeagueID, winner); err != nil {
		s.logger.WarnContext(ctx, "mapping store failed", "kind", kind, "name", normalized, "error", err)
	}

	return winner, nil
}

// rankCandidates scores every candidate and returns all candidates sharing
// the top score, sorted by display name so tied outcomes are stable between
// runs.
func rankCandidates(candidates []entity.Candidate, normalized string, leagueID int64) []entity.Candidate {
	scored := make([]entity.Candidate, 0, len(candidates))
	top := 0
	for _, candidate := range candidates {
		score := matchScore(entity.NormalizeName(candidate.Ref.DisplayName), normalized)
		if score == 0 {
			continue
		}
		if leagueID > 0 && candidateInLeague(candidate, leagueID) {
			score += scoreLeagueHit
		}
		candidate.Score = score
		scored = append(scored, candidate)
		if score > top {
			top = score
		}
	}

	winners := scored[:0]
	for _, candidate := range scored {
		if candidate.Score == top {
			winners = append(winners, candidate)
		}
	}
	sort.SliceStable(winners, func(i, j int) bool {
		if winners[i].Ref.DisplayName != winners[j].Ref.DisplayName {
			return winners[i].Ref.DisplayName < winners[j].Ref.DisplayName
		}
		return winners[i].Ref.ProviderID < winners[j].Ref.ProviderID
	})

	out := make([]entity.Candidate, len(winners))
	copy(out, winners)
	return out
}

func matchScore(candidateName, normalized string) int {
	if candidateName == normalized {
		return scoreExact
	}

	// A whole-token match ("Ronaldo" in "Cristiano Ronaldo") scores the same
	// as a prefix match: either way the user gave part of the full name, and
	// neither reading may outrank the other.
	for _, token := range strings.Fields(candidateName) {
		if token == normalized {
			return scorePrefix
		}
	}

	switch {
	case strings.HasPrefix(candidateName, normalized):
		return scorePrefix
	case strings.Contains(candidateName, normalized):
		return scoreSubstring
	}

	return 0
}

func candidateInLeague(candidate entity.Candidate, leagueID int64) bool {
	return candidate.LeagueID > 0 && candidate.LeagueID == leagueID
}

func expandAlias(kind entity.Kind, rawText string) string {
	if kind != entity.KindTeam {
		return rawText
	}
	if alias, ok := teamAliases[strings.ToLower(strings.TrimSpace(rawText))]; ok {
		return alias
	}
	return rawText
}
