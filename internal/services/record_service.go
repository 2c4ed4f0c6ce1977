package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"worklog/internal/amqp"
	"worklog/internal/core"
	"worklog/internal/records"
)

// CreateRecordInput is a validated work-log submission.
type CreateRecordInput struct {
	WorkDay   core.Date
	WorkCode  string // digits or empty
	WorkName  string
	BookName  string
	Process   string
	UnitPrice core.Money
	Output    int64
}

// Validate checks the submission against the form contract.
func (in CreateRecordInput) Validate() error {
	if in.WorkDay.IsMissing() {
		return core.ErrInvalidWorkDay
	}
	if strings.TrimSpace(in.Process) == "" {
		return core.ErrEmptyProcess
	}
	if in.WorkCode != "" {
		if _, err := strconv.Atoi(in.WorkCode); err != nil {
			return core.ErrInvalidWorkCode
		}
		if strings.TrimSpace(in.WorkName) == "" {
			return core.ErrMissingWorkName
		}
	}
	if in.Output < 0 {
		return core.ErrInvalidQuantity
	}
	return nil
}

// EventPublisher is the optional broker port for record mutation events.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, action string, personID int, recordID string) error
}

// RecordService orchestrates record mutations against the store and
// announces them to the event publisher when one is configured.
type RecordService struct {
	store  records.Store
	events EventPublisher
}

func NewRecordService(store records.Store, events EventPublisher) *RecordService {
	return &RecordService{store: store, events: events}
}

// Create writes a new record to the person's partition. An empty work code
// is stored as zero, matching the historical table shape.
func (s *RecordService) Create(ctx context.Context, personID int, in CreateRecordInput) (string, error) {
	if personID <= 0 {
		return "", core.ErrNoPersonSelected
	}
	if err := in.Validate(); err != nil {
		return "", err
	}

	code := int64(0)
	if in.WorkCode != "" {
		code, _ = strconv.ParseInt(in.WorkCode, 10, 64)
	}

	fields := map[string]any{
		records.FieldWorkDay:   in.WorkDay.String(),
		records.FieldWorkCode:  code,
		records.FieldWorkName:  in.WorkName,
		records.FieldBookName:  in.BookName,
		records.FieldProcess:   in.Process,
		records.FieldUnitPrice: in.UnitPrice.Float(),
		records.FieldOutput:    in.Output,
	}

	id, err := s.store.Create(ctx, personID, fields)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, personID, id)
	return id, nil
}

// Get fetches one raw record for the edit form.
func (s *RecordService) Get(ctx context.Context, personID int, recordID string) (records.Raw, error) {
	return s.store.Get(ctx, personID, recordID)
}

// Update patches work day and output quantity, the only fields the edit
// contract allows to change.
func (s *RecordService) Update(ctx context.Context, personID int, recordID string, workDay core.Date, output int64) error {
	if workDay.IsMissing() {
		return core.ErrInvalidWorkDay
	}
	fields := map[string]any{
		records.FieldWorkDay: workDay.String(),
		records.FieldOutput:  output,
	}
	if err := s.store.Update(ctx, personID, recordID, fields); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	s.publish(ctx, amqp.ActionUpdated, personID, recordID)
	return nil
}

// Delete removes a record from the person's partition.
func (s *RecordService) Delete(ctx context.Context, personID int, recordID string) error {
	if err := s.store.Delete(ctx, personID, recordID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.publish(ctx, amqp.ActionDeleted, personID, recordID)
	return nil
}

// publish is best-effort: the record mutation already succeeded, so a
// broker failure only gets logged.
func (s *RecordService) publish(ctx context.Context, action string, personID int, recordID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecordEvent(ctx, action, personID, recordID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"action", action, "person_id", personID, "record_id", recordID, "error", err)
	}
}
