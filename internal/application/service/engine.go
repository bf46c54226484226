package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edbgroup/paperflow/internal/application/dispatcher"
	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/domain/event"
	"github.com/edbgroup/paperflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Payload carries the optional inputs of an action
type Payload struct {
	Reason   string `json:"reason,omitempty"`
	OptionID int64  `json:"option_id,omitempty"`
}

// CreateInput describes a record to be created
type CreateInput struct {
	WorkflowType string `json:"workflow_type"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency,omitempty"`
}

// Engine applies workflow actions to records. Each call is a single
// atomic unit: either the status change and its audit entry are both
// committed, or nothing is. Notification dispatch happens after the
// commit and is best effort.
type Engine interface {
	Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.Record, error)
	Apply(ctx context.Context, recordID int64, actor entity.Actor, action workflow.Action, payload Payload) (*entity.Record, error)

	Submit(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error)
	Approve(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error)
	Reject(ctx context.Context, recordID int64, actor entity.Actor, reason string) (*entity.Record, error)
	Escalate(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error)
	ChooseFinalOption(ctx context.Context, recordID int64, actor entity.Actor, optionID int64) (*entity.Record, error)
	Finalize(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error)
	MarkComplete(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error)
	Delete(ctx context.Context, recordID int64, actor entity.Actor) error

	Get(ctx context.Context, recordID int64) (*entity.Record, error)
	List(ctx context.Context, workflowType string, limit, offset int) ([]*entity.Record, error)
	RecordAttachment(ctx context.Context, recordID int64, actor entity.Actor, fileName string) error
}

type engineImpl struct {
	recordRepo port.RecordRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewEngine creates the workflow engine
func NewEngine(
	recordRepo port.RecordRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	logger Logger,
) Engine {
	return &engineImpl{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		dispatcher: d,
		logger:     logger,
	}
}

// Create generates the record code, stores the record in its initial
// status and writes the creation audit entry.
func (e *engineImpl) Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.Record, error) {
	wt := workflow.Type(in.WorkflowType)
	if _, ok := workflow.TableFor(wt); !ok {
		return nil, fmt.Errorf("%w: unknown workflow type %q", workflow.ErrValidation, in.WorkflowType)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", workflow.ErrValidation)
	}

	now := time.Now()
	currency := in.Currency
	if currency == "" {
		currency = "XOF"
	}

	rec := &entity.Record{
		Code:         entity.GenerateCode(in.WorkflowType, now),
		WorkflowType: in.WorkflowType,
		Status:       workflow.InitialStatus(wt).String(),
		Category:     in.Category,
		DepartmentID: actor.DepartmentID,
		CreatorID:    actor.ID,
		Title:        in.Title,
		Description:  in.Description,
		AmountCents:  in.AmountCents,
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Vouchers are submitted by the act of creation.
	if rec.Status == entity.StatusSubmitted {
		rec.SubmittedAt = &now
	}

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.recordRepo.Create(txCtx, rec); err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		entry := &entity.AuditEntry{
			RecordID:  rec.ID,
			ActorID:   actor.ID,
			EventType: entity.EventCreated,
			NewStatus: rec.Status,
			Timestamp: now,
		}
		if err := e.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to create record", "error", err, "workflow_type", in.WorkflowType)
		return nil, err
	}

	e.logger.Info("Record created", "id", rec.ID, "code", rec.Code, "status", rec.Status)
	e.emit(ctx, event.TypeRecordCreated, rec, actor, map[string]interface{}{
		"new_status": rec.Status,
	})
	return rec, nil
}

// Apply runs one workflow action end to end: load, authorize, validate
// the payload, apply side effects, commit status plus audit entry under
// the optimistic status check, then hand off notification.
func (e *engineImpl) Apply(ctx context.Context, recordID int64, actor entity.Actor, action workflow.Action, payload Payload) (*entity.Record, error) {
	rec, err := e.load(ctx, recordID)
	if err != nil {
		return nil, err
	}

	decision := workflow.Evaluate(actor, rec, action)
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", decision.Denial, decision.Reason)
	}
	t := decision.Transition

	if err := validatePayload(rec, t, payload); err != nil {
		return nil, err
	}

	if action == workflow.ActionDelete {
		return nil, e.deleteRecord(ctx, rec, actor)
	}

	prevStatus := rec.Status
	now := time.Now()
	if err := e.applyEffects(rec, t, actor, payload, now); err != nil {
		return nil, err
	}
	if next := t.NextFor(rec.Category); next != "" {
		rec.Status = next.String()
	}
	rec.UpdatedAt = now

	entry := &entity.AuditEntry{
		RecordID:       rec.ID,
		ActorID:        actor.ID,
		EventType:      auditEventType(action, rec.Status, prevStatus),
		PreviousStatus: prevStatus,
		NewStatus:      rec.Status,
		Details:        auditDetails(action, payload),
		Timestamp:      now,
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.recordRepo.UpdateWhereStatus(txCtx, rec, prevStatus); err != nil {
			return err
		}
		if err := e.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to apply action",
			"error", err, "record_id", recordID, "action", action.String(), "actor_id", actor.ID)
		return nil, err
	}

	e.logger.Info("Action applied",
		"record_id", rec.ID, "code", rec.Code, "action", action.String(),
		"previous_status", prevStatus, "new_status", rec.Status, "actor_id", actor.ID)

	e.emit(ctx, eventTypeFor(action), rec, actor, map[string]interface{}{
		"action":          action.String(),
		"previous_status": prevStatus,
		"new_status":      rec.Status,
		"reason":          payload.Reason,
	})
	return rec, nil
}

func (e *engineImpl) Submit(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionSubmit, Payload{})
}

func (e *engineImpl) Approve(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionApprove, Payload{})
}

func (e *engineImpl) Reject(ctx context.Context, recordID int64, actor entity.Actor, reason string) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionReject, Payload{Reason: reason})
}

func (e *engineImpl) Escalate(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionEscalate, Payload{})
}

func (e *engineImpl) ChooseFinalOption(ctx context.Context, recordID int64, actor entity.Actor, optionID int64) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionChooseOption, Payload{OptionID: optionID})
}

func (e *engineImpl) Finalize(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionFinalize, Payload{})
}

func (e *engineImpl) MarkComplete(ctx context.Context, recordID int64, actor entity.Actor) (*entity.Record, error) {
	return e.Apply(ctx, recordID, actor, workflow.ActionComplete, Payload{})
}

func (e *engineImpl) Delete(ctx context.Context, recordID int64, actor entity.Actor) error {
	_, err := e.Apply(ctx, recordID, actor, workflow.ActionDelete, Payload{})
	return err
}

func (e *engineImpl) Get(ctx context.Context, recordID int64) (*entity.Record, error) {
	return e.load(ctx, recordID)
}

func (e *engineImpl) List(ctx context.Context, workflowType string, limit, offset int) ([]*entity.Record, error) {
	records, err := e.recordRepo.List(ctx, workflowType, limit, offset)
	if err != nil {
		e.logger.Error("Failed to list records", "error", err, "workflow_type", workflowType)
		return nil, err
	}
	return records, nil
}

// RecordAttachment writes the attachment audit marker. Storage of the
// file itself is an external collaborator's concern.
func (e *engineImpl) RecordAttachment(ctx context.Context, recordID int64, actor entity.Actor, fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("%w: file name is required", workflow.ErrValidation)
	}

	rec, err := e.load(ctx, recordID)
	if err != nil {
		return err
	}
	if workflow.Status(rec.Status).IsTerminal() {
		return fmt.Errorf("%w: record %s is %s and accepts no further actions", workflow.ErrInvalidTransition, rec.Code, rec.Status)
	}

	entry := &entity.AuditEntry{
		RecordID:       rec.ID,
		ActorID:        actor.ID,
		EventType:      entity.EventAttachmentAdded,
		PreviousStatus: rec.Status,
		NewStatus:      rec.Status,
		Details:        fileName,
		Timestamp:      time.Now(),
	}
	if err := e.auditRepo.Append(ctx, entry); err != nil {
		e.logger.Error("Failed to record attachment", "error", err, "record_id", recordID)
		return err
	}

	e.emit(ctx, event.TypeAttachmentAdded, rec, actor, map[string]interface{}{
		"file_name": fileName,
	})
	return nil
}

func (e *engineImpl) load(ctx context.Context, recordID int64) (*entity.Record, error) {
	rec, err := e.recordRepo.GetByID(ctx, recordID)
	if err != nil {
		e.logger.Error("Failed to load record", "error", err, "record_id", recordID)
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: record %d", workflow.ErrNotFound, recordID)
	}
	return rec, nil
}

// deleteRecord removes the record and writes the deletion audit entry in
// one transaction, still under the optimistic status check.
func (e *engineImpl) deleteRecord(ctx context.Context, rec *entity.Record, actor entity.Actor) error {
	now := time.Now()
	entry := &entity.AuditEntry{
		RecordID:       rec.ID,
		ActorID:        actor.ID,
		EventType:      entity.EventDeleted,
		PreviousStatus: rec.Status,
		NewStatus:      rec.Status,
		Timestamp:      now,
	}

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.recordRepo.DeleteWhereStatus(txCtx, rec.ID, rec.Status); err != nil {
			return err
		}
		return e.auditRepo.Append(txCtx, entry)
	})
	if err != nil {
		e.logger.Error("Failed to delete record", "error", err, "record_id", rec.ID)
		return err
	}

	e.logger.Info("Record deleted", "record_id", rec.ID, "code", rec.Code, "actor_id", actor.ID)
	e.emit(ctx, event.TypeRecordDeleted, rec, actor, map[string]interface{}{
		"previous_status": rec.Status,
	})
	return nil
}

// validatePayload enforces the transition's payload requirements before
// any mutation happens.
func validatePayload(rec *entity.Record, t *workflow.Transition, payload Payload) error {
	if t.HasEffect(workflow.EffectRequireReason) && strings.TrimSpace(payload.Reason) == "" {
		return fmt.Errorf("%w: a rejection reason is required", workflow.ErrValidation)
	}
	if t.HasEffect(workflow.EffectRequireOption) && payload.OptionID == 0 {
		return fmt.Errorf("%w: an option id is required", workflow.ErrValidation)
	}
	if t.HasEffect(workflow.EffectRequireSelectedOption) && rec.SelectedOptionID == 0 {
		return fmt.Errorf("%w: no supplier option has been chosen yet", workflow.ErrInvalidTransition)
	}
	return nil
}

// applyEffects mutates the in-memory record. Role stamps are write-once:
// a second attempt fails instead of overwriting the first attribution.
func (e *engineImpl) applyEffects(rec *entity.Record, t *workflow.Transition, actor entity.Actor, payload Payload, now time.Time) error {
	for _, eff := range t.Effects {
		switch eff {
		case workflow.EffectSetSubmittedAt:
			ts := now
			rec.SubmittedAt = &ts
		case workflow.EffectStampApprover:
			if err := stamp(&rec.ApproverID, actor.ID, "approver"); err != nil {
				return err
			}
		case workflow.EffectStampDirecteur:
			if err := stamp(&rec.DirecteurID, actor.ID, "directeur approver"); err != nil {
				return err
			}
		case workflow.EffectStampITApprover:
			if err := stamp(&rec.ITApproverID, actor.ID, "IT approver"); err != nil {
				return err
			}
		case workflow.EffectStampFinalApprover:
			if err := stamp(&rec.FinalApproverID, actor.ID, "final approver"); err != nil {
				return err
			}
		case workflow.EffectStampPrintedBy:
			if err := stamp(&rec.PrintedByID, actor.ID, "printer"); err != nil {
				return err
			}
		case workflow.EffectStampSelectedOption:
			if rec.SelectedOptionID != 0 {
				return fmt.Errorf("%w: a supplier option is already recorded", workflow.ErrConflict)
			}
			rec.SelectedOptionID = payload.OptionID
		case workflow.EffectSetEscalated:
			rec.IsEscalated = true
		case workflow.EffectSetRejectionReason:
			rec.RejectionReason = payload.Reason
		case workflow.EffectRequireReason, workflow.EffectRequireOption, workflow.EffectRequireSelectedOption:
			// Validated before mutation.
		}
	}
	return nil
}

func stamp(field *string, actorID, label string) error {
	if *field != "" {
		return fmt.Errorf("%w: %s already recorded", workflow.ErrConflict, label)
	}
	*field = actorID
	return nil
}

// auditEventType names the audit entry. Status transitions use the
// resulting status; flag-only actions use their marker.
func auditEventType(action workflow.Action, newStatus, prevStatus string) string {
	if newStatus != prevStatus {
		return newStatus
	}
	switch action {
	case workflow.ActionEscalate:
		return entity.EventEscalated
	case workflow.ActionChooseOption:
		return entity.EventOptionSelected
	default:
		return newStatus
	}
}

func auditDetails(action workflow.Action, payload Payload) string {
	switch action {
	case workflow.ActionReject:
		return payload.Reason
	case workflow.ActionChooseOption:
		return fmt.Sprintf("option %d selected", payload.OptionID)
	default:
		return ""
	}
}

func eventTypeFor(action workflow.Action) event.Type {
	switch action {
	case workflow.ActionReject:
		return event.TypeRecordRejected
	case workflow.ActionEscalate:
		return event.TypeRecordEscalated
	case workflow.ActionChooseOption:
		return event.TypeOptionSelected
	default:
		return event.TypeStatusChanged
	}
}

// emit hands the event to the dispatcher detached from the request
// context so in-flight notifications survive the caller returning.
func (e *engineImpl) emit(ctx context.Context, evtType event.Type, rec *entity.Record, actor entity.Actor, payload map[string]interface{}) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), event.New(evtType, rec.ID, rec.Code, actor.ID, payload))
}
