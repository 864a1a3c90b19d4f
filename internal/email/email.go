// Package email sends the transactional messages of the signup messaging flow.
//
// This package defines a Sender interface with implementations for:
// - SMTP (for development with Mailhog and production with any SMTP relay)
// - mock (records messages in memory for tests)
package email

import (
	"context"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Sender defines the interface for sending campaign emails.
//
// All methods are context-aware for timeout and cancellation support.
type Sender interface {
	// SendNoEventIngestionFollowUp reminds a new user that their team has not
	// sent any events yet.
	// Parameters:
	// - to: Recipient email address
	// - name: Recipient's name for personalization
	SendNoEventIngestionFollowUp(ctx context.Context, to, name string) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for campaign emails.
	DefaultFromEmail = "hey@posthog.com"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "PostHog"
)
