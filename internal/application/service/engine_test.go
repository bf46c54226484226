package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/edbgroup/paperflow/internal/application/dispatcher"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/domain/event"
	"github.com/edbgroup/paperflow/internal/domain/workflow"
)

// Mock repositories

type mockRecordRepo struct {
	createFunc            func(ctx context.Context, rec *entity.Record) error
	getByIDFunc           func(ctx context.Context, id int64) (*entity.Record, error)
	getByCodeFunc         func(ctx context.Context, code string) (*entity.Record, error)
	listFunc              func(ctx context.Context, workflowType string, limit, offset int) ([]*entity.Record, error)
	updateWhereStatusFunc func(ctx context.Context, rec *entity.Record, expectedStatus string) error
	deleteWhereStatusFunc func(ctx context.Context, id int64, expectedStatus string) error

	updates int
	deletes int
}

func (m *mockRecordRepo) Create(ctx context.Context, rec *entity.Record) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rec)
	}
	rec.ID = 1
	return nil
}

func (m *mockRecordRepo) GetByID(ctx context.Context, id int64) (*entity.Record, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRecordRepo) GetByCode(ctx context.Context, code string) (*entity.Record, error) {
	if m.getByCodeFunc != nil {
		return m.getByCodeFunc(ctx, code)
	}
	return nil, nil
}

func (m *mockRecordRepo) List(ctx context.Context, workflowType string, limit, offset int) ([]*entity.Record, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, workflowType, limit, offset)
	}
	return []*entity.Record{}, nil
}

func (m *mockRecordRepo) UpdateWhereStatus(ctx context.Context, rec *entity.Record, expectedStatus string) error {
	m.updates++
	if m.updateWhereStatusFunc != nil {
		return m.updateWhereStatusFunc(ctx, rec, expectedStatus)
	}
	return nil
}

func (m *mockRecordRepo) DeleteWhereStatus(ctx context.Context, id int64, expectedStatus string) error {
	m.deletes++
	if m.deleteWhereStatusFunc != nil {
		return m.deleteWhereStatusFunc(ctx, id, expectedStatus)
	}
	return nil
}

type mockAuditRepo struct {
	appendFunc func(ctx context.Context, entry *entity.AuditEntry) error

	mu      sync.Mutex
	entries []*entity.AuditEntry
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *entity.AuditEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByRecordID(ctx context.Context, recordID int64, ascending bool) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) Close() error { return nil }

func (m *mockDispatcher) dispatched() []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func testEngine(recordRepo *mockRecordRepo, auditRepo *mockAuditRepo, d *mockDispatcher) Engine {
	return NewEngine(recordRepo, auditRepo, &mockTxManager{}, d, &mockLogger{})
}

func requisition(status string) *entity.Record {
	return &entity.Record{
		ID:           7,
		Code:         "EDB202601010001",
		WorkflowType: entity.TypeRequisition,
		Status:       status,
		DepartmentID: 10,
		CreatorID:    "emp-001",
		Title:        "Laptops for the support team",
		Currency:     "XOF",
	}
}

func TestEngine_Create(t *testing.T) {
	recordRepo := &mockRecordRepo{}
	auditRepo := &mockAuditRepo{}
	d := &mockDispatcher{}
	engine := testEngine(recordRepo, auditRepo, d)

	actor := entity.Actor{ID: "emp-001", Role: entity.RoleEmploye, DepartmentID: 10}

	t.Run("requisition starts as draft", func(t *testing.T) {
		rec, err := engine.Create(context.Background(), actor, CreateInput{
			WorkflowType: entity.TypeRequisition,
			Title:        "Office chairs",
			AmountCents:  250000,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if rec.Status != entity.StatusDraft {
			t.Errorf("status = %s, want %s", rec.Status, entity.StatusDraft)
		}
		if rec.SubmittedAt != nil {
			t.Error("draft must not carry a submission time")
		}
		if rec.Code == "" {
			t.Error("record code was not generated")
		}
		if rec.Currency != "XOF" {
			t.Errorf("currency = %s, want default XOF", rec.Currency)
		}
	})

	t.Run("voucher is submitted on creation", func(t *testing.T) {
		rec, err := engine.Create(context.Background(), actor, CreateInput{
			WorkflowType: entity.TypeVoucher,
			Title:        "Fuel advance",
			AmountCents:  80000,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if rec.Status != entity.StatusSubmitted {
			t.Errorf("status = %s, want %s", rec.Status, entity.StatusSubmitted)
		}
		if rec.SubmittedAt == nil {
			t.Error("voucher creation must set the submission time")
		}
	})

	t.Run("unknown workflow type", func(t *testing.T) {
		_, err := engine.Create(context.Background(), actor, CreateInput{WorkflowType: "EXPENSE", Title: "x"})
		if !errors.Is(err, workflow.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := engine.Create(context.Background(), actor, CreateInput{WorkflowType: entity.TypeRequisition, Title: "  "})
		if !errors.Is(err, workflow.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestEngine_Apply_HappyTransition(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	d := &mockDispatcher{}
	engine := testEngine(recordRepo, auditRepo, d)

	responsable := entity.Actor{ID: "resp-001", Role: entity.RoleResponsable, DepartmentID: 10}
	got, err := engine.Approve(context.Background(), rec.ID, responsable)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if got.Status != entity.StatusApprovedResponsable {
		t.Errorf("status = %s, want %s", got.Status, entity.StatusApprovedResponsable)
	}
	if got.ApproverID != "resp-001" {
		t.Errorf("approver stamp = %s, want resp-001", got.ApproverID)
	}
	if recordRepo.updates != 1 {
		t.Errorf("updates = %d, want 1", recordRepo.updates)
	}
	if len(auditRepo.entries) != 1 {
		t.Fatalf("audit entries = %d, want exactly 1", len(auditRepo.entries))
	}

	entry := auditRepo.entries[0]
	if entry.EventType != entity.StatusApprovedResponsable {
		t.Errorf("audit event type = %s, want resulting status", entry.EventType)
	}
	if entry.PreviousStatus != entity.StatusSubmitted || entry.NewStatus != entity.StatusApprovedResponsable {
		t.Errorf("audit statuses = %s -> %s", entry.PreviousStatus, entry.NewStatus)
	}

	if len(d.dispatched()) != 1 {
		t.Errorf("events dispatched = %d, want 1", len(d.dispatched()))
	}
}

func TestEngine_Apply_DeniedActionMutatesNothing(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	d := &mockDispatcher{}
	engine := testEngine(recordRepo, auditRepo, d)

	outsider := entity.Actor{ID: "resp-009", Role: entity.RoleResponsable, DepartmentID: 99}
	_, err := engine.Approve(context.Background(), rec.ID, outsider)
	if !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}

	if recordRepo.updates != 0 || recordRepo.deletes != 0 {
		t.Error("denied action must not touch the record")
	}
	if len(auditRepo.entries) != 0 {
		t.Error("denied action must not write audit entries")
	}
	if len(d.dispatched()) != 0 {
		t.Error("denied action must not emit events")
	}
	if rec.Status != entity.StatusSubmitted {
		t.Errorf("record status mutated to %s", rec.Status)
	}
}

func TestEngine_Apply_ConcurrentConflictSurfaces(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
		updateWhereStatusFunc: func(ctx context.Context, r *entity.Record, expectedStatus string) error {
			return fmt.Errorf("%w: record %d no longer in status %s", workflow.ErrConflict, r.ID, expectedStatus)
		},
	}
	auditRepo := &mockAuditRepo{
		appendFunc: func(ctx context.Context, entry *entity.AuditEntry) error {
			t.Error("audit entry written despite failed status update")
			return nil
		},
	}
	d := &mockDispatcher{}
	engine := testEngine(recordRepo, auditRepo, d)

	responsable := entity.Actor{ID: "resp-001", Role: entity.RoleResponsable, DepartmentID: 10}
	_, err := engine.Approve(context.Background(), rec.ID, responsable)
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if len(d.dispatched()) != 0 {
		t.Error("conflicted action must not emit events")
	}
}

func TestEngine_Reject_RequiresReason(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	engine := testEngine(recordRepo, auditRepo, &mockDispatcher{})

	responsable := entity.Actor{ID: "resp-001", Role: entity.RoleResponsable, DepartmentID: 10}

	_, err := engine.Reject(context.Background(), rec.ID, responsable, "   ")
	if !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("empty reason: error = %v, want ErrValidation", err)
	}
	if len(auditRepo.entries) != 0 {
		t.Error("failed rejection must not write audit entries")
	}

	got, err := engine.Reject(context.Background(), rec.ID, responsable, "duplicate request")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if got.Status != entity.StatusRejected {
		t.Errorf("status = %s, want %s", got.Status, entity.StatusRejected)
	}
	if got.RejectionReason != "duplicate request" {
		t.Errorf("rejection reason = %q", got.RejectionReason)
	}
	if auditRepo.entries[0].Details != "duplicate request" {
		t.Errorf("audit details = %q, want the reason", auditRepo.entries[0].Details)
	}
}

func TestEngine_Escalate_FlagOnly(t *testing.T) {
	rec := requisition(entity.StatusApprovedResponsable)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	engine := testEngine(recordRepo, auditRepo, &mockDispatcher{})

	directeur := entity.Actor{ID: "dir-001", Role: entity.RoleDirecteur, DepartmentID: 10}
	got, err := engine.Escalate(context.Background(), rec.ID, directeur)
	if err != nil {
		t.Fatalf("Escalate() error = %v", err)
	}

	if got.Status != entity.StatusApprovedResponsable {
		t.Errorf("escalation changed status to %s", got.Status)
	}
	if !got.IsEscalated {
		t.Error("escalation flag not set")
	}
	if auditRepo.entries[0].EventType != entity.EventEscalated {
		t.Errorf("audit event type = %s, want %s", auditRepo.entries[0].EventType, entity.EventEscalated)
	}
}

func TestEngine_FinalizeRequiresChosenOption(t *testing.T) {
	rec := requisition(entity.StatusApprovedDirecteur)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	engine := testEngine(recordRepo, auditRepo, &mockDispatcher{})

	daf := entity.Actor{ID: "daf-001", Role: entity.RoleDAF, DepartmentID: 30}
	creator := entity.Actor{ID: "emp-001", Role: entity.RoleEmploye, DepartmentID: 10}

	// No option chosen yet.
	_, err := engine.Finalize(context.Background(), rec.ID, daf)
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("finalize without option: error = %v, want ErrInvalidTransition", err)
	}

	// Choosing an option requires an option id.
	_, err = engine.ChooseFinalOption(context.Background(), rec.ID, creator, 0)
	if !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("choose without id: error = %v, want ErrValidation", err)
	}

	got, err := engine.ChooseFinalOption(context.Background(), rec.ID, creator, 3)
	if err != nil {
		t.Fatalf("ChooseFinalOption() error = %v", err)
	}
	if got.SelectedOptionID != 3 {
		t.Errorf("selected option = %d, want 3", got.SelectedOptionID)
	}
	if got.Status != entity.StatusApprovedDirecteur {
		t.Errorf("option choice changed status to %s", got.Status)
	}

	// A second choice must not overwrite the first.
	_, err = engine.ChooseFinalOption(context.Background(), rec.ID, creator, 5)
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("second choice: error = %v, want ErrConflict", err)
	}
	if rec.SelectedOptionID != 3 {
		t.Errorf("selected option overwritten to %d", rec.SelectedOptionID)
	}

	got, err = engine.Finalize(context.Background(), rec.ID, daf)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if got.Status != entity.StatusApprovedDAF {
		t.Errorf("status = %s, want %s", got.Status, entity.StatusApprovedDAF)
	}
	if got.FinalApproverID != "daf-001" {
		t.Errorf("final approver stamp = %s", got.FinalApproverID)
	}
}

func TestEngine_VoucherFinanceApproval(t *testing.T) {
	rec := &entity.Record{
		ID:           9,
		Code:         "CDV202601010001",
		WorkflowType: entity.TypeVoucher,
		Status:       entity.StatusApprovedDirecteur,
		DepartmentID: 10,
		CreatorID:    "emp-001",
		Currency:     "XOF",
	}
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	engine := testEngine(recordRepo, &mockAuditRepo{}, &mockDispatcher{})

	daf := entity.Actor{ID: "daf-001", Role: entity.RoleDAF, DepartmentID: 30}
	got, err := engine.Approve(context.Background(), rec.ID, daf)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if got.Status != entity.StatusApprovedDAF {
		t.Errorf("status = %s, want %s", got.Status, entity.StatusApprovedDAF)
	}
	if got.FinalApproverID != "daf-001" {
		t.Errorf("final approver stamp = %s, want daf-001", got.FinalApproverID)
	}
}

func TestEngine_StampsAreWriteOnce(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	rec.ApproverID = "resp-000" // already stamped by an earlier pass
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	engine := testEngine(recordRepo, &mockAuditRepo{}, &mockDispatcher{})

	responsable := entity.Actor{ID: "resp-001", Role: entity.RoleResponsable, DepartmentID: 10}
	_, err := engine.Approve(context.Background(), rec.ID, responsable)
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if rec.ApproverID != "resp-000" {
		t.Errorf("approver stamp overwritten to %s", rec.ApproverID)
	}
}

func TestEngine_Delete(t *testing.T) {
	rec := requisition(entity.StatusDraft)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	engine := testEngine(recordRepo, auditRepo, &mockDispatcher{})

	creator := entity.Actor{ID: "emp-001", Role: entity.RoleEmploye, DepartmentID: 10}
	if err := engine.Delete(context.Background(), rec.ID, creator); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if recordRepo.deletes != 1 {
		t.Errorf("deletes = %d, want 1", recordRepo.deletes)
	}
	if len(auditRepo.entries) != 1 || auditRepo.entries[0].EventType != entity.EventDeleted {
		t.Error("deletion must leave a DELETED audit entry")
	}
}

func TestEngine_NotFound(t *testing.T) {
	engine := testEngine(&mockRecordRepo{}, &mockAuditRepo{}, &mockDispatcher{})

	actor := entity.Actor{ID: "emp-001", Role: entity.RoleEmploye, DepartmentID: 10}
	_, err := engine.Get(context.Background(), 404)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("Get: error = %v, want ErrNotFound", err)
	}
	_, err = engine.Approve(context.Background(), 404, actor)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("Approve: error = %v, want ErrNotFound", err)
	}
}

func TestEngine_RecordAttachment(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	d := &mockDispatcher{}
	engine := testEngine(recordRepo, auditRepo, d)

	actor := entity.Actor{ID: "emp-001", Role: entity.RoleEmploye, DepartmentID: 10}

	if err := engine.RecordAttachment(context.Background(), rec.ID, actor, "quote.pdf"); err != nil {
		t.Fatalf("RecordAttachment() error = %v", err)
	}
	entry := auditRepo.entries[0]
	if entry.EventType != entity.EventAttachmentAdded || entry.Details != "quote.pdf" {
		t.Errorf("audit entry = %s/%q", entry.EventType, entry.Details)
	}

	rec.Status = entity.StatusCompleted
	err := engine.RecordAttachment(context.Background(), rec.ID, actor, "late.pdf")
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Errorf("attachment on terminal record: error = %v, want ErrInvalidTransition", err)
	}
}

func TestEngine_AuditTimestampsAdvance(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)
	recordRepo := &mockRecordRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
	}
	auditRepo := &mockAuditRepo{}
	engine := testEngine(recordRepo, auditRepo, &mockDispatcher{})

	responsable := entity.Actor{ID: "resp-001", Role: entity.RoleResponsable, DepartmentID: 10}
	if _, err := engine.Approve(context.Background(), rec.ID, responsable); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	directeur := entity.Actor{ID: "dir-001", Role: entity.RoleDirecteur, DepartmentID: 10}
	if _, err := engine.Approve(context.Background(), rec.ID, directeur); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if len(auditRepo.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(auditRepo.entries))
	}
	first, second := auditRepo.entries[0], auditRepo.entries[1]
	if second.Timestamp.Before(first.Timestamp) {
		t.Error("audit timestamps must not regress")
	}
	if first.NewStatus != second.PreviousStatus {
		t.Errorf("audit chain broken: %s then %s", first.NewStatus, second.PreviousStatus)
	}
	var zero time.Time
	if first.Timestamp == zero {
		t.Error("audit timestamp not set")
	}
}
