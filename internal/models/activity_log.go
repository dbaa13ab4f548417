package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is one audit trail entry (login, chat message, ticket
// analysis...). Details holds a short free-text description.
type ActivityLog struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	Action    string    `db:"action"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// Actions recorded in the activity log.
const (
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionChatMessage    = "CHAT_MESSAGE"
	ActionTicketAnalysis = "TICKET_ANALYSIS"
	ActionTicketPreview  = "TICKET_PREVIEW"
	ActionDocumentsLoad  = "DOCUMENTS_LOAD"
	ActionFeedback       = "FEEDBACK"
)
