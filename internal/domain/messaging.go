package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign identifies a one-off message. Each user receives a campaign at most once.
type Campaign string

const (
	CampaignNoEventIngestionFollowUp Campaign = "no_event_ingestion_follow_up"
)

// UserMessagingRecord is an entry in the append-only messaging ledger.
type UserMessagingRecord struct {
	ID       int64
	UserID   uuid.UUID
	Campaign Campaign
	SentAt   *time.Time
}
