package service

import (
	"context"
	"fmt"

	"github.com/edbgroup/paperflow/internal/application/dispatcher"
	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/domain/event"
	"github.com/edbgroup/paperflow/internal/domain/workflow"
)

// NotificationService decides who gets told about a workflow event and
// what the message says. Delivery itself goes through the injected
// channel; a failed send is logged and never undoes committed state.
type NotificationService interface {
	ResolveRecipients(ctx context.Context, rec *entity.Record, evtType event.Type, actorID string) ([]string, error)
	BuildMessage(evtType event.Type, rec *entity.Record, payload map[string]interface{}) string

	// HandleEvent is the dispatcher handler entry point
	HandleEvent(ctx context.Context, evt *event.Event) error

	// Register subscribes the service to the workflow event types
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	recordRepo port.RecordRepository
	userRepo   port.UserRepository
	delivery   port.DeliveryChannel
	logger     Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	recordRepo port.RecordRepository,
	userRepo port.UserRepository,
	delivery port.DeliveryChannel,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		recordRepo: recordRepo,
		userRepo:   userRepo,
		delivery:   delivery,
		logger:     logger,
	}
}

// deptScopedRoles are looked up within the record's department; the
// other roles are organization-wide cohorts.
var deptScopedRoles = map[string]bool{
	entity.RoleResponsable: true,
	entity.RoleDirecteur:   true,
}

// Register wires the service into the dispatcher.
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeRecordCreated,
		event.TypeStatusChanged,
		event.TypeRecordRejected,
		event.TypeRecordEscalated,
	} {
		d.Subscribe(t, "notifications", s.HandleEvent)
	}
}

// HandleEvent resolves recipients and message for a committed workflow
// event and hands them to the delivery channel.
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	rec, err := s.recordRepo.GetByID(ctx, evt.RecordID)
	if err != nil {
		return fmt.Errorf("load record for notification: %w", err)
	}
	if rec == nil {
		// Deleted between commit and dispatch; nothing to tell anyone.
		return nil
	}

	recipients, err := s.ResolveRecipients(ctx, rec, evt.Type, evt.ActorID)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	message := s.BuildMessage(evt.Type, rec, evt.Payload)

	if err := s.delivery.Send(ctx, recipients, message, rec.Code); err != nil {
		s.logger.Error("Notification delivery failed",
			"error", err, "record_id", rec.ID, "code", rec.Code, "recipients", len(recipients))
		return fmt.Errorf("deliver notification: %w", err)
	}

	s.logger.Info("Notification sent",
		"record_id", rec.ID, "code", rec.Code, "event_type", evt.Type.String(), "recipients", len(recipients))
	return nil
}

// ResolveRecipients implements the recipient rules: the creator is
// always included unless the creator is the actor; the next-in-chain
// role cohort is added when the chain advances; on rejection only the
// creator is told.
func (s *notificationServiceImpl) ResolveRecipients(ctx context.Context, rec *entity.Record, evtType event.Type, actorID string) ([]string, error) {
	seen := make(map[string]bool)
	var recipients []string

	add := func(id string) {
		if id == "" || id == actorID || seen[id] {
			return
		}
		seen[id] = true
		recipients = append(recipients, id)
	}

	add(rec.CreatorID)

	if evtType == event.TypeRecordRejected {
		return recipients, nil
	}

	roles := workflow.NextActorRoles(workflow.Type(rec.WorkflowType), workflow.Status(rec.Status))
	for _, role := range roles {
		deptID := int64(0)
		if deptScopedRoles[role] {
			deptID = rec.DepartmentID
		}
		users, err := s.userRepo.FindByRole(ctx, role, deptID)
		if err != nil {
			return nil, fmt.Errorf("resolve %s cohort: %w", role, err)
		}
		for _, u := range users {
			add(u.ID)
		}
	}

	return recipients, nil
}

// BuildMessage renders the human-readable notification text.
func (s *notificationServiceImpl) BuildMessage(evtType event.Type, rec *entity.Record, payload map[string]interface{}) string {
	label := typeLabel(rec.WorkflowType)

	switch evtType {
	case event.TypeRecordCreated:
		return fmt.Sprintf("New %s %s (%s) awaits processing.", label, rec.Code, rec.Title)
	case event.TypeRecordRejected:
		reason, _ := payload["reason"].(string)
		return fmt.Sprintf("%s %s was rejected: %s", label, rec.Code, reason)
	case event.TypeRecordEscalated:
		return fmt.Sprintf("%s %s was escalated; expect director-level sign-off.", label, rec.Code)
	default:
		return fmt.Sprintf("%s %s moved to %s.", label, rec.Code, rec.Status)
	}
}

func typeLabel(workflowType string) string {
	switch workflowType {
	case entity.TypeRequisition:
		return "Purchase requisition"
	case entity.TypeVoucher:
		return "Cash voucher"
	case entity.TypeMissionOrder:
		return "Mission order"
	default:
		return "Record"
	}
}
