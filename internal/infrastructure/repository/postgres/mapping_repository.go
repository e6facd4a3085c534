package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/footchat/footchat/internal/domain/entity"
	qb "github.com/footchat/footchat/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// MappingRepository persists normalized-name -> provider-entity mappings so
// resolutions survive restarts and are shared between instances.
type MappingRepository struct {
	db *sqlx.DB
}

func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) Get(ctx context.Context, kind entity.Kind, normalizedName string, leagueID int64) (entity.Ref, bool, error) {
	query, args, err := qb.Select("*").From("entity_mappings").
		Where(
			qb.Eq("kind", string(kind)),
			qb.Eq("normalized_name", normalizedName),
			qb.Eq("league_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return entity.Ref{}, false, fmt.Errorf("build select entity mapping query: %w", err)
	}

	var row entityMappingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Ref{}, false, nil
		}
		return entity.Ref{}, false, fmt.Errorf("select entity mapping: %w", err)
	}

	return entity.Ref{
		ProviderID:  row.ProviderID,
		DisplayName: row.DisplayName,
		Kind:        entity.Kind(row.Kind),
	}, true, nil
}

func (r *MappingRepository) Put(ctx context.Context, kind entity.Kind, normalizedName string, leagueID int64, ref entity.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	insertModel := entityMappingInsertModel{
		Kind:           string(kind),
		NormalizedName: normalizedName,
		LeagueID:       leagueID,
		ProviderID:     ref.ProviderID,
		DisplayName:    ref.DisplayName,
	}

	query, args, err := qb.InsertModel("entity_mappings", insertModel, `ON CONFLICT (kind, normalized_name, league_id) WHERE deleted_at IS NULL
DO UPDATE SET
    provider_id = EXCLUDED.provider_id,
    display_name = EXCLUDED.display_name,
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert entity mapping query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert entity mapping kind=%s name=%s: %w", kind, normalizedName, err)
	}

	return nil
}
