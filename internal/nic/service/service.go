package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/metrics"
	"nicgate/internal/nic/models"
	dErrors "nicgate/pkg/domain-errors"
	"nicgate/pkg/platform/audit"
	"nicgate/pkg/platform/privacy"
	"nicgate/pkg/platform/sentinel"
	"nicgate/pkg/requestcontext"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxFailures   = 5
	DefaultAttemptWindow = 15 * time.Minute
	DefaultLockDuration  = 15 * time.Minute

	DefaultRecordLimit = 50
	MaxRecordLimit     = 500

	tracerName = "nicgate/nic"
)

type RecordStore interface {
	Save(ctx context.Context, record *models.ValidationRecord) error
	ListRecent(ctx context.Context, limit int) ([]*models.ValidationRecord, error)
	FindByHash(ctx context.Context, numberHash string) ([]*models.ValidationRecord, error)
}

// AttemptStore counts mismatches per number hash. The counting window is the
// store's concern; lock decisions are the service's.
type AttemptStore interface {
	Get(ctx context.Context, key string) (*models.AttemptRecord, error)
	RecordFailure(ctx context.Context, key string, now time.Time) (*models.AttemptRecord, error)
	Update(ctx context.Context, record *models.AttemptRecord) error
	// Clear drops the record unless it is locked at now, reporting whether it
	// was dropped. The check and the delete are atomic.
	Clear(ctx context.Context, key string, now time.Time) (bool, error)
}

// LockedError is the cause of a too_many_requests error: the number stays
// locked for RetryAfter.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("identity number locked for %s", e.RetryAfter)
}

// RetryAfterSeconds is the lock time left in whole seconds, rounded up and
// never below 1.
func (e *LockedError) RetryAfterSeconds() int {
	return max(int(math.Ceil(e.RetryAfter.Seconds())), 1)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AttemptPolicy decides when repeated mismatches lock a number.
type AttemptPolicy struct {
	MaxFailures  int
	LockDuration time.Duration
}

func DefaultAttemptPolicy() AttemptPolicy {
	return AttemptPolicy{
		MaxFailures:  DefaultMaxFailures,
		LockDuration: DefaultLockDuration,
	}
}

// Service wraps the pure NIC engine with persistence, abuse protection,
// audit and telemetry. Every collaborator is optional.
type Service struct {
	validator      *domain.Validator
	records        RecordStore
	attempts       AttemptStore
	policy         AttemptPolicy
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithRecordStore(store RecordStore) Option {
	return func(s *Service) {
		s.records = store
	}
}

func WithAttemptStore(store AttemptStore) Option {
	return func(s *Service) {
		s.attempts = store
	}
}

func WithAttemptPolicy(policy AttemptPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

func WithValidator(v *domain.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(opts ...Option) *Service {
	svc := &Service{
		validator: domain.NewValidator(),
		policy:    DefaultAttemptPolicy(),
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Validate cross-checks a claim. A mismatch is reported in the Result, never
// as an error; errors mean the number is locked or a store failed.
func (s *Service) Validate(ctx context.Context, claim domain.Claim) (*domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, "nic.validate")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveValidateDuration(time.Since(start))
	}()

	now := requestcontext.Now(ctx)
	key := models.NumberKey(claim.IdentityNumber)

	var prior *models.AttemptRecord
	if s.attempts != nil {
		record, err := s.attempts.Get(ctx, key)
		if err != nil {
			return nil, s.spanError(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read attempt record"))
		}
		if record.IsLockedAt(now) {
			span.SetAttributes(attribute.Bool("nic.locked", true))
			locked := &LockedError{RetryAfter: record.RetryAfter(now)}
			s.logger.WarnContext(ctx, "nic validation refused while locked",
				"request_id", requestcontext.RequestID(ctx),
				"retry_after_seconds", locked.RetryAfterSeconds(),
			)
			return nil, dErrors.Wrap(locked, dErrors.CodeTooManyRequests, "too many failed validations for this identity number, retry later")
		}
		prior = record
	}

	result := s.validator.Validate(claim)
	span.SetAttributes(
		attribute.String("nic.format", result.Format.String()),
		attribute.String("nic.outcome", string(result.Outcome)),
	)
	if result.Failure != domain.FailureNone {
		span.SetAttributes(attribute.String("nic.failure", string(result.Failure)))
	}

	if err := s.trackAttempts(ctx, key, result, prior, now); err != nil {
		return nil, s.spanError(span, err)
	}

	if s.records != nil {
		record := models.NewValidationRecord(
			claim.IdentityNumber,
			result,
			requestcontext.ClientIP(ctx),
			requestcontext.UserAgent(ctx),
			now,
		)
		if err := s.records.Save(ctx, record); err != nil {
			return nil, s.spanError(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save validation record"))
		}
	}

	action := audit.EventNICValidated
	if !result.Valid() {
		action = audit.EventNICValidationFailed
	}
	s.emit(ctx, action, key, string(result.Outcome), string(result.Failure))
	s.metrics.IncrementValidation(string(result.Outcome), string(result.Failure), result.Format.String())

	s.logger.InfoContext(ctx, "nic validated",
		"request_id", requestcontext.RequestID(ctx),
		"outcome", result.Outcome,
		"failure", result.Failure,
		"format", result.Format,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &result, nil
}

// trackAttempts counts mismatches and locks the number once the policy limit
// is reached. A valid outcome clears earlier failures; format errors leave
// the counter alone.
func (s *Service) trackAttempts(ctx context.Context, key string, result domain.Result, prior *models.AttemptRecord, now time.Time) error {
	if s.attempts == nil {
		return nil
	}

	switch {
	case result.Failure.IsMismatch():
		current, err := s.attempts.RecordFailure(ctx, key, now)
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent validations for this identity number, retry")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record validation failure")
		}
		if !current.IsLimitReached(s.policy.MaxFailures) || current.IsLockedAt(now) {
			return nil
		}
		current.ApplyLock(s.policy.LockDuration, now)
		if err := s.attempts.Update(ctx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock identity number")
		}
		s.metrics.IncrementLockouts()
		s.emit(ctx, audit.EventNICAttemptsLocked, key, "locked", string(result.Failure))
		s.logger.WarnContext(ctx, "nic locked after repeated mismatches",
			"request_id", requestcontext.RequestID(ctx),
			"failures", current.Failures,
			"locked_until", current.LockedUntil,
		)
	case result.Valid() && prior != nil:
		cleared, err := s.attempts.Clear(ctx, key, now)
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent validations for this identity number, retry")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear validation failures")
		}
		if !cleared {
			s.logger.WarnContext(ctx, "nic locked concurrently, failures kept",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil
		}
		s.emit(ctx, audit.EventNICAttemptsCleared, key, "cleared", "")
	}
	return nil
}

// Decode derives gender and date of birth from a number without a claim.
func (s *Service) Decode(ctx context.Context, raw string) (domain.DerivedIdentity, error) {
	ctx, span := s.tracer.Start(ctx, "nic.decode")
	defer span.End()

	derived := domain.Decode(raw)
	span.SetAttributes(attribute.String("nic.format", derived.Format().String()))
	if !derived.Valid {
		return domain.DerivedIdentity{}, dErrors.New(dErrors.CodeValidation, domain.ReasonInvalidFormat)
	}

	s.metrics.IncrementDecode(derived.Format().String())
	s.emit(ctx, audit.EventNICDecoded, models.NumberKey(raw), "", "")
	return derived, nil
}

// Records returns the most recent validation records, newest first.
func (s *Service) Records(ctx context.Context, limit int) ([]*models.ValidationRecord, error) {
	if s.records == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "validation records are not configured")
	}
	if limit <= 0 {
		limit = DefaultRecordLimit
	}
	limit = min(limit, MaxRecordLimit)

	records, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list validation records")
	}
	return records, nil
}

// History returns every validation record for one identity number.
func (s *Service) History(ctx context.Context, identityNumber string) ([]*models.ValidationRecord, error) {
	if s.records == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "validation records are not configured")
	}
	if domain.Classify(identityNumber) == domain.FormatInvalid {
		return nil, dErrors.New(dErrors.CodeValidation, domain.ReasonInvalidFormat)
	}
	records, err := s.records.FindByHash(ctx, models.NumberKey(identityNumber))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load validation history")
	}
	return records, nil
}

// emit publishes an audit event. Publish failures are logged, not returned.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, decision, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		Subject:   subject,
		Action:    action.String(),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
	}
	if ua := requestcontext.UserAgent(ctx); ua != "" {
		event.Device = privacy.DeviceName(ua)
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

func (s *Service) spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
