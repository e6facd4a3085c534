package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("provider_id", "display_name").
		From("entity_mappings").
		Where(Eq("kind", "team"), Eq("normalized_name", "benfica"), IsNull("deleted_at")).
		OrderBy("provider_id").
		Limit(1).
		ToSQL()
	require.NoError(t, err)

	require.Equal(t,
		"SELECT provider_id, display_name FROM entity_mappings WHERE kind = $1 AND normalized_name = $2 AND deleted_at IS NULL ORDER BY provider_id LIMIT 1",
		query)
	require.Equal(t, []any{"team", "benfica"}, args)
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("entity_mappings").
		Columns("kind", "normalized_name", "provider_id").
		Values("team", "benfica", int64(211)).
		Suffix("RETURNING id").
		ToSQL()
	require.NoError(t, err)

	require.Equal(t,
		"INSERT INTO entity_mappings (kind, normalized_name, provider_id) VALUES ($1, $2, $3) RETURNING id",
		query)
	require.Equal(t, []any{"team", "benfica", int64(211)}, args)
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("entity_mappings").
		Set("display_name", "SL Benfica").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "m1")).
		ToSQL()
	require.NoError(t, err)

	require.Equal(t, "UPDATE entity_mappings SET display_name = $1, updated_at = NOW() WHERE id = $2", query)
	require.Equal(t, []any{"SL Benfica", "m1"}, args)
}

func TestInsertModel(t *testing.T) {
	type row struct {
		Kind       string `db:"kind"`
		Name       string `db:"normalized_name"`
		ProviderID int64  `db:"provider_id"`
		Ignored    string `db:"-"`
		Untagged   string
	}

	query, args, err := InsertModel("entity_mappings", row{Kind: "team", Name: "porto", ProviderID: 212}, "")
	require.NoError(t, err)

	require.Equal(t, "INSERT INTO entity_mappings (kind, normalized_name, provider_id) VALUES ($1, $2, $3)", query)
	require.Equal(t, []any{"team", "porto", int64(212)}, args)
}

func TestInsertModel_RejectsNonStruct(t *testing.T) {
	_, _, err := InsertModel("entity_mappings", "not a struct", "")
	require.Error(t, err)

	var nilRow *struct {
		ID string `db:"id"`
	}
	_, _, err = InsertModel("entity_mappings", nilRow, "")
	require.Error(t, err)
}
