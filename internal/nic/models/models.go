// Package models holds the persisted shapes of the NIC service: validation
// records and failed-attempt counters. Neither ever carries a raw identity
// number; both are keyed by its SHA-256 hash.
package models

import (
	"strings"
	"time"

	"nicgate/internal/nic/domain"
	"nicgate/pkg/platform/privacy"

	"github.com/google/uuid"
)

// ValidationRecord is the evidence row written for every validation.
type ValidationRecord struct {
	ID         uuid.UUID          `json:"id"`
	NumberHash string             `json:"number_hash"`
	Format     domain.Format      `json:"format"`
	Outcome    domain.Outcome     `json:"outcome"`
	Failure    domain.FailureKind `json:"failure,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	ClientIP   string             `json:"client_ip,omitempty"` // anonymized
	Device     string             `json:"device,omitempty"`
	CheckedAt  time.Time          `json:"checked_at"`
}

// NewValidationRecord builds a record from a validation result, reducing the
// identity number and client metadata to what may be stored.
func NewValidationRecord(identityNumber string, result domain.Result, clientIP, userAgent string, now time.Time) *ValidationRecord {
	return &ValidationRecord{
		ID:         uuid.New(),
		NumberHash: NumberKey(identityNumber),
		Format:     result.Format,
		Outcome:    result.Outcome,
		Failure:    result.Failure,
		Reason:     result.Reason,
		ClientIP:   privacy.AnonymizeIP(clientIP),
		Device:     privacy.DeviceName(userAgent),
		CheckedAt:  now.UTC(),
	}
}

// NumberKey is the storage key for an identity number. Legacy letters are
// case-insensitive, so "923455123v" and "923455123V" share a key.
func NumberKey(identityNumber string) string {
	return privacy.HashIdentifier(strings.ToUpper(identityNumber))
}

// AttemptRecord counts mismatched validations of one identity number inside
// a window.
type AttemptRecord struct {
	Key            string     `json:"key"`
	Failures       int        `json:"failures"`
	FirstFailureAt time.Time  `json:"first_failure_at"`
	LastFailureAt  time.Time  `json:"last_failure_at"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// IsLockedAt reports whether the record refuses validations at now.
func (r *AttemptRecord) IsLockedAt(now time.Time) bool {
	if r == nil || r.LockedUntil == nil {
		return false
	}
	return now.Before(*r.LockedUntil)
}

// IsWindowExpiredAt reports whether the counting window that started at the
// first failure has elapsed.
func (r *AttemptRecord) IsWindowExpiredAt(now time.Time, window time.Duration) bool {
	if r == nil || r.Failures == 0 {
		return true
	}
	return !now.Before(r.FirstFailureAt.Add(window))
}

// RegisterFailure counts one more failure at now, restarting the window when
// it has expired and no lock is active.
func (r *AttemptRecord) RegisterFailure(now time.Time, window time.Duration) {
	if !r.IsLockedAt(now) && r.IsWindowExpiredAt(now, window) {
		r.Failures = 0
		r.FirstFailureAt = now
		r.LockedUntil = nil
	}
	r.Failures++
	r.LastFailureAt = now
}

// IsLimitReached reports whether failures have reached maxFailures.
func (r *AttemptRecord) IsLimitReached(maxFailures int) bool {
	return r != nil && maxFailures > 0 && r.Failures >= maxFailures
}

// ApplyLock locks the record for duration starting at now.
func (r *AttemptRecord) ApplyLock(duration time.Duration, now time.Time) {
	until := now.Add(duration)
	r.LockedUntil = &until
}

// RetryAfter is the remaining lock time at now, zero when unlocked.
func (r *AttemptRecord) RetryAfter(now time.Time) time.Duration {
	if !r.IsLockedAt(now) {
		return 0
	}
	return r.LockedUntil.Sub(now)
}

// ExpiresAt is the point after which the record carries no state worth
// keeping: the later of window end and lock end.
func (r *AttemptRecord) ExpiresAt(window time.Duration) time.Time {
	end := r.FirstFailureAt.Add(window)
	if r.LockedUntil != nil && r.LockedUntil.After(end) {
		end = *r.LockedUntil
	}
	return end
}
