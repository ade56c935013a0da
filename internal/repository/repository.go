package repository

// ProfileCacheRepository keeps the last successful login/registration response per chat
type ProfileCacheRepository interface {
	// Load returns the cached payload, or nil when the chat has no entry
	Load(chatID int64) ([]byte, error)
	Store(chatID int64, payload []byte) error
	Clear(chatID int64) error
	// CleanStale deletes entries not updated in the last days days
	CleanStale(days int) (int64, error)
}
