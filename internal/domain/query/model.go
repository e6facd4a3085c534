package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/domain/season"
)

// Endpoint names a provider API call. The set mirrors API-Football v3.
type Endpoint string

const (
	EndpointStandings     Endpoint = "standings"
	EndpointFixtures      Endpoint = "fixtures"
	EndpointHeadToHead    Endpoint = "fixtures/headtohead"
	EndpointFixtureEvents Endpoint = "fixtures/events"
	EndpointPlayers       Endpoint = "players"
)

type ValueKind string

const (
	ValueKindDate    ValueKind = "date"
	ValueKindSeason  ValueKind = "season"
	ValueKindEntity  ValueKind = "entity"
	ValueKindInt     ValueKind = "int"
	// ValueKindPrior binds a parameter to a field of an earlier query's
	// result in the same plan (e.g. the fixture id found by a head-to-head
	// lookup feeding the events call).
	ValueKindPrior ValueKind = "prior"
)

// Value is the closed union of things that may appear as a provider query
// parameter. Raw user text is deliberately not representable here: anything
// that reaches a ResolvedQuery went through the normalizer or resolver first.
type Value struct {
	Kind       ValueKind
	Date       season.CalendarDate
	Season     season.Label
	Entity     entity.Ref
	Int        int
	PriorIndex int
	PriorField string
}

func DateValue(d season.CalendarDate) Value {
	return Value{Kind: ValueKindDate, Date: d}
}

func SeasonValue(l season.Label) Value {
	return Value{Kind: ValueKindSeason, Season: l}
}

func EntityValue(ref entity.Ref) Value {
	return Value{Kind: ValueKindEntity, Entity: ref}
}

func IntValue(v int) Value {
	return Value{Kind: ValueKindInt, Int: v}
}

func PriorValue(index int, field string) Value {
	return Value{Kind: ValueKindPrior, PriorIndex: index, PriorField: field}
}

// ResolvedQuery is the fully-qualified contract handed to the fetch layer.
type ResolvedQuery struct {
	Endpoint Endpoint
	Params   map[string]Value
}

// Fingerprint renders a stable cache key for a query. Prior-bound parameters
// make a query non-cacheable and yield an empty fingerprint.
func (q ResolvedQuery) Fingerprint() string {
	keys := make([]string, 0, len(q.Params))
	for key, value := range q.Params {
		if value.Kind == ValueKindPrior {
			return ""
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(q.Endpoint))
	for _, key := range keys {
		value := q.Params[key]
		b.WriteByte('|')
		b.WriteString(key)
		b.WriteByte('=')
		switch value.Kind {
		case ValueKindDate:
			b.WriteString(value.Date.String())
		case ValueKindSeason:
			b.WriteString(value.Season.String())
		case ValueKindEntity:
			fmt.Fprintf(&b, "%s:%d", value.Entity.Kind, value.Entity.ProviderID)
		case ValueKindInt:
			fmt.Fprintf(&b, "%d", value.Int)
		}
	}

	return b.String()
}
