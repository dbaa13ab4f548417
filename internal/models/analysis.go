package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one persisted ticket analysis. TicketInfo and Result are
// stored as raw JSON so the history endpoint can replay exactly what the
// analyzer produced.
type AnalysisRecord struct {
	ID             uuid.UUID `db:"id"`
	Username       string    `db:"username"`
	TicketFilename string    `db:"ticket_filename"`
	Question       string    `db:"question"`
	TicketInfo     []byte    `db:"ticket_info"`
	Result         []byte    `db:"result"`
	CreatedAt      time.Time `db:"created_at"`
}
