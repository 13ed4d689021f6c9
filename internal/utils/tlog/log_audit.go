package tlog

// Audit events for asynchronous authorization requests. State conflicts and
// replay attempts are security relevant and always land on the audit stream.

func AuditRequestCreated(flow, requestID, clientID, deliveryMode string) {
	Audit.Info().
		Str("event", "request_created").
		Str("flow", flow).
		Str("request_id", requestID).
		Str("client_id", clientID).
		Str("delivery_mode", deliveryMode).
		Send()
}

func AuditDecision(requestID, result, userID string) {
	Audit.Info().
		Str("event", "decision").
		Str("result", result).
		Str("request_id", requestID).
		Str("user_id", userID).
		Send()
}

func AuditStateConflict(requestID, operation string) {
	Audit.Warn().
		Str("event", "state_conflict").
		Str("operation", operation).
		Str("request_id", requestID).
		Send()
}

func AuditTokenIssued(requestID, clientID, subject string) {
	Audit.Info().
		Str("event", "token_issued").
		Str("request_id", requestID).
		Str("client_id", clientID).
		Str("subject", subject).
		Send()
}

func AuditReplayAttempt(requestID, clientID string) {
	Audit.Warn().
		Str("event", "replay_attempt").
		Str("request_id", requestID).
		Str("client_id", clientID).
		Send()
}

func AuditDeliveryFailure(requestID, endpoint string, attempts int) {
	Audit.Error().
		Str("event", "notification_delivery_failure").
		Str("request_id", requestID).
		Str("endpoint", endpoint).
		Int("attempts", attempts).
		Send()
}
