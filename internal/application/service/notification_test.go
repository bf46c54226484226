package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/domain/event"
)

type mockUserRepo struct {
	findByRoleFunc func(ctx context.Context, role string, departmentID int64) ([]*entity.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return nil
}

func (m *mockUserRepo) FindByRole(ctx context.Context, role string, departmentID int64) ([]*entity.User, error) {
	if m.findByRoleFunc != nil {
		return m.findByRoleFunc(ctx, role, departmentID)
	}
	return nil, nil
}

type mockDelivery struct {
	sendFunc func(ctx context.Context, recipientIDs []string, message, recordCode string) error

	sent [][]string
}

func (m *mockDelivery) Send(ctx context.Context, recipientIDs []string, message, recordCode string) error {
	m.sent = append(m.sent, recipientIDs)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, recipientIDs, message, recordCode)
	}
	return nil
}

func directory(users map[string][]*entity.User) *mockUserRepo {
	return &mockUserRepo{
		findByRoleFunc: func(ctx context.Context, role string, departmentID int64) ([]*entity.User, error) {
			var out []*entity.User
			for _, u := range users[role] {
				if departmentID == 0 || u.DepartmentID == departmentID {
					out = append(out, u)
				}
			}
			return out, nil
		},
	}
}

func TestNotification_ResolveRecipients(t *testing.T) {
	users := map[string][]*entity.User{
		entity.RoleResponsable: {
			{ID: "resp-001", Role: entity.RoleResponsable, DepartmentID: 10},
			{ID: "resp-002", Role: entity.RoleResponsable, DepartmentID: 20},
		},
		entity.RoleDAF: {
			{ID: "daf-001", Role: entity.RoleDAF, DepartmentID: 30},
		},
	}

	svc := NewNotificationService(&mockRecordRepo{}, directory(users), &mockDelivery{}, &mockLogger{})

	rec := requisition(entity.StatusSubmitted)

	t.Run("next cohort is department scoped", func(t *testing.T) {
		got, err := svc.ResolveRecipients(context.Background(), rec, event.TypeRecordCreated, rec.CreatorID)
		if err != nil {
			t.Fatalf("ResolveRecipients() error = %v", err)
		}
		// The creator is the actor, so only the same-department responsable remains.
		if len(got) != 1 || got[0] != "resp-001" {
			t.Errorf("recipients = %v, want [resp-001]", got)
		}
	})

	t.Run("creator included when someone else acts", func(t *testing.T) {
		got, err := svc.ResolveRecipients(context.Background(), rec, event.TypeStatusChanged, "resp-001")
		if err != nil {
			t.Fatalf("ResolveRecipients() error = %v", err)
		}
		if len(got) == 0 || got[0] != rec.CreatorID {
			t.Errorf("recipients = %v, creator missing or not first", got)
		}
	})

	t.Run("rejection informs the creator only", func(t *testing.T) {
		rejected := requisition(entity.StatusRejected)
		got, err := svc.ResolveRecipients(context.Background(), rejected, event.TypeRecordRejected, "resp-001")
		if err != nil {
			t.Fatalf("ResolveRecipients() error = %v", err)
		}
		if len(got) != 1 || got[0] != rejected.CreatorID {
			t.Errorf("recipients = %v, want creator only", got)
		}
	})

	t.Run("DAF cohort is organization wide", func(t *testing.T) {
		awaiting := requisition(entity.StatusApprovedDirecteur)
		got, err := svc.ResolveRecipients(context.Background(), awaiting, event.TypeStatusChanged, "dir-001")
		if err != nil {
			t.Fatalf("ResolveRecipients() error = %v", err)
		}
		found := false
		for _, id := range got {
			if id == "daf-001" {
				found = true
			}
		}
		if !found {
			t.Errorf("recipients = %v, DAF missing", got)
		}
	})
}

func TestNotification_BuildMessage(t *testing.T) {
	svc := NewNotificationService(&mockRecordRepo{}, &mockUserRepo{}, &mockDelivery{}, &mockLogger{})
	rec := requisition(entity.StatusSubmitted)

	msg := svc.BuildMessage(event.TypeRecordRejected, rec, map[string]interface{}{"reason": "over budget"})
	if !strings.Contains(msg, "over budget") || !strings.Contains(msg, rec.Code) {
		t.Errorf("rejection message = %q", msg)
	}

	msg = svc.BuildMessage(event.TypeRecordCreated, rec, nil)
	if !strings.Contains(msg, "Purchase requisition") {
		t.Errorf("creation message = %q", msg)
	}

	voucher := &entity.Record{Code: "CDV202601010001", WorkflowType: entity.TypeVoucher, Status: entity.StatusApprovedDAF}
	msg = svc.BuildMessage(event.TypeStatusChanged, voucher, nil)
	if !strings.Contains(msg, "Cash voucher") || !strings.Contains(msg, entity.StatusApprovedDAF) {
		t.Errorf("status message = %q", msg)
	}
}

func TestNotification_HandleEvent(t *testing.T) {
	rec := requisition(entity.StatusSubmitted)

	t.Run("deleted record is skipped", func(t *testing.T) {
		delivery := &mockDelivery{}
		svc := NewNotificationService(&mockRecordRepo{}, &mockUserRepo{}, delivery, &mockLogger{})

		evt := event.New(event.TypeStatusChanged, 404, "EDB-gone", "emp-001", nil)
		if err := svc.HandleEvent(context.Background(), evt); err != nil {
			t.Fatalf("HandleEvent() error = %v", err)
		}
		if len(delivery.sent) != 0 {
			t.Error("delivery attempted for a deleted record")
		}
	})

	t.Run("delivery failure is wrapped", func(t *testing.T) {
		recordRepo := &mockRecordRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
		}
		delivery := &mockDelivery{
			sendFunc: func(ctx context.Context, recipientIDs []string, message, recordCode string) error {
				return errors.New("lark unreachable")
			},
		}
		svc := NewNotificationService(recordRepo, &mockUserRepo{}, delivery, &mockLogger{})

		evt := event.New(event.TypeStatusChanged, rec.ID, rec.Code, "resp-001", nil)
		err := svc.HandleEvent(context.Background(), evt)
		if err == nil || !strings.Contains(err.Error(), "lark unreachable") {
			t.Errorf("HandleEvent() error = %v, want wrapped delivery failure", err)
		}
	})

	t.Run("no recipients means no delivery", func(t *testing.T) {
		recordRepo := &mockRecordRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.Record, error) { return rec, nil },
		}
		delivery := &mockDelivery{}
		svc := NewNotificationService(recordRepo, &mockUserRepo{}, delivery, &mockLogger{})

		// The creator is the actor and the directory is empty.
		evt := event.New(event.TypeStatusChanged, rec.ID, rec.Code, rec.CreatorID, nil)
		if err := svc.HandleEvent(context.Background(), evt); err != nil {
			t.Fatalf("HandleEvent() error = %v", err)
		}
		if len(delivery.sent) != 0 {
			t.Error("delivery attempted with no recipients")
		}
	})
}
