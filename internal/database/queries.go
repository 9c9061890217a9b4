package database

const schemaSessionSlots = `
	CREATE TABLE IF NOT EXISTS session_slots (
		slot TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
`

const (
	queryGetSlot = `SELECT value FROM session_slots WHERE slot = ?`

	queryUpsertSlot = `
		INSERT INTO session_slots (slot, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	queryDeleteSlot = `DELETE FROM session_slots WHERE slot = ?`
)
