package database

import "time"

// CacheEntry is one persisted resolution-cache row: a disambiguation key
// mapped to the canonical ID it resolved to, plus how and when.
type CacheEntry struct {
	// Key is the disambiguation key (canonical ID or title|year|type tuple).
	Key string `gorm:"primaryKey;column:key"`
	// IMDBID is the resolved canonical identifier.
	IMDBID string `gorm:"column:imdb_id"`
	// Method records which resolution path produced the entry
	// (fast or authoritative).
	Method string `gorm:"column:method"`
	// ResolvedAt is when the resolution happened.
	ResolvedAt time.Time `gorm:"column:resolved_at"`
}

// TableName overrides the GORM default.
func (CacheEntry) TableName() string {
	return "resolution_cache"
}

// OperationRecord is one executed operation outcome, kept for diagnostics.
type OperationRecord struct {
	ID uint `gorm:"primaryKey;autoIncrement"`
	// RunID groups records belonging to one sync run.
	RunID string `gorm:"column:run_id;index"`
	// Category is the list category the operation targeted.
	Category string `gorm:"column:category"`
	// Direction is the destination service (to_trakt, to_imdb).
	Direction string `gorm:"column:direction"`
	// Action is add, remove or update.
	Action string `gorm:"column:action"`
	// IMDBID identifies the target item.
	IMDBID string `gorm:"column:imdb_id"`
	// Title is the display title, for readable diagnostics.
	Title string `gorm:"column:title"`
	// Outcome is the terminal state (succeeded, failed, skipped).
	Outcome string `gorm:"column:outcome"`
	// Attempts is how many tries the operation took.
	Attempts int `gorm:"column:attempts"`
	// Error holds the failure reason, if any.
	Error string `gorm:"column:error"`
	// ExecutedAt is when the terminal state was reached.
	ExecutedAt time.Time `gorm:"column:executed_at"`
}

// TableName overrides the GORM default.
func (OperationRecord) TableName() string {
	return "operation_log"
}
