package metrics

// SignupRecorded counts a completed signup. planApplied reports whether a
// valid plan seeded the team's billing record.
func SignupRecorded(planApplied bool) {
	label := "none"
	if planApplied {
		label = "applied"
	}
	SignupsTotal.WithLabelValues(label).Inc()
}

// CheckoutSessionRequested counts a checkout session request by outcome.
func CheckoutSessionRequested(err error) {
	status := "created"
	if err != nil {
		status = "error"
	}
	CheckoutSessionsTotal.WithLabelValues(status).Inc()
}

// WebhookProcessed counts a webhook event by Stripe type and local outcome.
func WebhookProcessed(eventType, outcome string) {
	WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// MessageRecorded counts a campaign message by status.
func MessageRecorded(campaign, status string) {
	MessagesSentTotal.WithLabelValues(campaign, status).Inc()
}

// AnalyticsDelivered counts analytics events flushed to the capture endpoint.
func AnalyticsDelivered(n int, err error) {
	status := "delivered"
	if err != nil {
		status = "error"
	}
	AnalyticsEventsTotal.WithLabelValues(status).Add(float64(n))
}
