package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/footchat/footchat/internal/domain/entity"
)

// MappingRepository is the in-process entity mapping store used when no
// database is configured. Mappings live for the process lifetime.
type MappingRepository struct {
	mu    sync.RWMutex
	items map[string]entity.Ref
}

func NewMappingRepository() *MappingRepository {
	return &MappingRepository{items: make(map[string]entity.Ref)}
}

func (r *MappingRepository) Get(_ context.Context, kind entity.Kind, normalizedName string, leagueID int64) (entity.Ref, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.items[mappingKey(kind, normalizedName, leagueID)]
	return ref, ok, nil
}

func (r *MappingRepository) Put(_ context.Context, kind entity.Kind, normalizedName string, leagueID int64, ref entity.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.items[mappingKey(kind, normalizedName, leagueID)] = ref
	r.mu.Unlock()
	return nil
}

// Len reports the number of stored mappings; tests use it to assert cache
// idempotency.
func (r *MappingRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func mappingKey(kind entity.Kind, normalizedName string, leagueID int64) string {
	return fmt.Sprintf("%s:%d:%s", kind, leagueID, normalizedName)
}
