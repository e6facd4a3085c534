package postgres

import "time"

type entityMappingTableModel struct {
	ID             int64      `db:"id"`
	Kind           string     `db:"kind"`
	NormalizedName string     `db:"normalized_name"`
	LeagueID       int64      `db:"league_id"`
	ProviderID     int64      `db:"provider_id"`
	DisplayName    string     `db:"display_name"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type entityMappingInsertModel struct {
	Kind           string `db:"kind"`
	NormalizedName string `db:"normalized_name"`
	LeagueID       int64  `db:"league_id"`
	ProviderID     int64  `db:"provider_id"`
	DisplayName    string `db:"display_name"`
}
