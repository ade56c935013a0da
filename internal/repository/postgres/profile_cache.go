package postgres

import (
	"database/sql"
)

// ProfileCacheRepo implements repository.ProfileCacheRepository
type ProfileCacheRepo struct {
	db *sql.DB
}

// NewProfileCacheRepo creates a new profile cache repository
func NewProfileCacheRepo(db *sql.DB) *ProfileCacheRepo {
	return &ProfileCacheRepo{db: db}
}

// Load returns the cached payload of the chat
func (r *ProfileCacheRepo) Load(chatID int64) ([]byte, error) {
	var payload []byte
	query := `SELECT payload FROM profile_cache WHERE chat_id = $1`
	err := r.db.QueryRow(query, chatID).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return payload, nil
}

// Store replaces the chat's cached payload
func (r *ProfileCacheRepo) Store(chatID int64, payload []byte) error {
	query := `
		INSERT INTO profile_cache (chat_id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	_, err := r.db.Exec(query, chatID, payload)
	return err
}

// Clear removes the chat's cached payload
func (r *ProfileCacheRepo) Clear(chatID int64) error {
	query := `DELETE FROM profile_cache WHERE chat_id = $1`
	_, err := r.db.Exec(query, chatID)
	return err
}

// CleanStale deletes entries older than specified days
func (r *ProfileCacheRepo) CleanStale(days int) (int64, error) {
	query := `
		DELETE FROM profile_cache
		WHERE updated_at < NOW() - INTERVAL '1 day' * $1
	`
	res, err := r.db.Exec(query, days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
