package memory

import (
	"context"
	"testing"

	"github.com/footchat/footchat/internal/domain/entity"
)

func TestMappingRepository_PutGet(t *testing.T) {
	t.Parallel()

	repo := NewMappingRepository()
	ref := entity.Ref{ProviderID: 211, DisplayName: "Benfica", Kind: entity.KindTeam}

	if err := repo.Put(context.Background(), entity.KindTeam, "benfica", 0, ref); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := repo.Get(context.Background(), entity.KindTeam, "benfica", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != ref {
		t.Fatalf("unexpected mapping: ok=%v ref=%+v", ok, got)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one mapping, got %d", repo.Len())
	}
}

func TestMappingRepository_LeagueScopeIsolation(t *testing.T) {
	t.Parallel()

	repo := NewMappingRepository()
	scoped := entity.Ref{ProviderID: 33, DisplayName: "Manchester United", Kind: entity.KindTeam}

	if err := repo.Put(context.Background(), entity.KindTeam, "united", 39, scoped); err != nil {
		t.Fatalf("put: %v", err)
	}

	// The unscoped key stays cold; only the league-39 lookup hits.
	if _, ok, _ := repo.Get(context.Background(), entity.KindTeam, "united", 0); ok {
		t.Fatalf("unscoped lookup must miss a league-scoped mapping")
	}
	got, ok, _ := repo.Get(context.Background(), entity.KindTeam, "united", 39)
	if !ok || got.ProviderID != 33 {
		t.Fatalf("scoped lookup failed: ok=%v ref=%+v", ok, got)
	}
}

func TestMappingRepository_RejectsInvalidRef(t *testing.T) {
	t.Parallel()

	repo := NewMappingRepository()

	err := repo.Put(context.Background(), entity.KindTeam, "benfica", 0, entity.Ref{DisplayName: "Benfica", Kind: entity.KindTeam})
	if err == nil {
		t.Fatalf("expected invalid ref to be rejected")
	}
	if repo.Len() != 0 {
		t.Fatalf("rejected put must not store anything, got %d", repo.Len())
	}
}

func TestMappingRepository_Overwrite(t *testing.T) {
	t.Parallel()

	repo := NewMappingRepository()
	first := entity.Ref{ProviderID: 211, DisplayName: "Benfica", Kind: entity.KindTeam}
	second := entity.Ref{ProviderID: 212, DisplayName: "Benfica B", Kind: entity.KindTeam}

	if err := repo.Put(context.Background(), entity.KindTeam, "benfica", 0, first); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(context.Background(), entity.KindTeam, "benfica", 0, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, _, _ := repo.Get(context.Background(), entity.KindTeam, "benfica", 0)
	if got.ProviderID != 212 {
		t.Fatalf("expected latest mapping to win, got %+v", got)
	}
	if repo.Len() != 1 {
		t.Fatalf("overwrite must not grow the store, got %d", repo.Len())
	}
}
