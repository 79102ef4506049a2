package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers identity checks with regulatory significance
	// (KYC evidence for the exchange). Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to abuse monitoring, such as
	// repeated mismatches on one identity number.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from services to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Subject is always the SHA-256 hash of the identity number, never the number.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Subject   string        `json:"subject"`
	Action    string        `json:"action"`
	Decision  string        `json:"decision,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"` // anonymized
	Device    string        `json:"device,omitempty"`
}

type AuditEvent string

const (
	EventNICValidated        AuditEvent = "nic_validated"
	EventNICValidationFailed AuditEvent = "nic_validation_failed"
	EventNICDecoded          AuditEvent = "nic_decoded"
	EventNICAttemptsLocked   AuditEvent = "nic_attempts_locked"
	EventNICAttemptsCleared  AuditEvent = "nic_attempts_cleared"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventNICValidated:        CategoryCompliance,
	EventNICValidationFailed: CategoryCompliance,

	EventNICAttemptsLocked:  CategorySecurity,
	EventNICAttemptsCleared: CategorySecurity,

	EventNICDecoded: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// String returns the action name.
func (e AuditEvent) String() string {
	return string(e)
}
