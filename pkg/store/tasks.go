package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/task"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreateTask inserts a new Task row in its own transaction.
func (s *Store) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*ent.Task, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("title", req.Title); err != nil {
		return nil, err
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	builder := tx.Task.Create().
		SetID(newID("tsk")).
		SetTenantID(req.TenantID).
		SetTitle(req.Title).
		SetRefs(req.Refs)

	if req.Details != "" {
		builder = builder.SetDetails(req.Details)
	}
	if req.OwnerAgentID != "" {
		builder = builder.SetOwnerAgentID(req.OwnerAgentID)
	}

	t, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return t, nil
}

// CreateTaskInTx inserts one Task row within the recorder's open
// transaction, for a record_event of kind=task_update that introduces a
// new task rather than updating one that already exists.
func CreateTaskInTx(ctx context.Context, tx *ent.Tx, req models.CreateTaskRequest) (*ent.Task, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("title", req.Title); err != nil {
		return nil, err
	}

	builder := tx.Task.Create().
		SetID(newID("tsk")).
		SetTenantID(req.TenantID).
		SetTitle(req.Title).
		SetRefs(req.Refs)

	if req.Details != "" {
		builder = builder.SetDetails(req.Details)
	}
	if req.OwnerAgentID != "" {
		builder = builder.SetOwnerAgentID(req.OwnerAgentID)
	}

	t, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create task: %w", err)
	}
	return t, nil
}

// UpdateTaskInTx applies a task_update record_event's status/details
// change within the recorder's open transaction.
func UpdateTaskInTx(ctx context.Context, tx *ent.Tx, tenantID, id, status, details string) (*ent.Task, error) {
	update := tx.Task.UpdateOneID(id).
		Where(task.TenantID(tenantID))

	if status != "" {
		update = update.SetStatus(task.Status(status))
		if status == string(task.StatusDone) {
			update = update.SetClosedAt(time.Now())
		}
	}
	if details != "" {
		update = update.SetDetails(details)
	}

	t, err := update.Save(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return t, nil
}

// UpdateTaskStatus transitions a task's status, closing it (setting
// closed_at) when moving to done.
func (s *Store) UpdateTaskStatus(ctx context.Context, tenantID, id, status string) error {
	update := s.client.Task.Update().
		Where(task.IDEQ(id), task.TenantID(tenantID)).
		SetStatus(task.Status(status))

	if status == string(task.StatusDone) {
		update = update.SetClosedAt(time.Now())
	}

	n, err := update.Save(ctx)
	if err != nil {
		return fmt.Errorf("store: update task status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTask fetches a single task by id, scoped to tenant.
func (s *Store) GetTask(ctx context.Context, tenantID, id string) (*ent.Task, error) {
	t, err := s.client.Task.Query().
		Where(task.IDEQ(id), task.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return t, nil
}

// ListTasks returns tasks matching filters, most recently updated first.
func (s *Store) ListTasks(ctx context.Context, filters models.TaskFilters) ([]*ent.Task, error) {
	if err := requireField("tenant_id", filters.TenantID); err != nil {
		return nil, err
	}

	q := s.client.Task.Query().Where(task.TenantID(filters.TenantID))
	if filters.Status != "" {
		q = q.Where(task.StatusEQ(task.Status(filters.Status)))
	}
	if filters.OwnerAgentID != "" {
		q = q.Where(task.OwnerAgentID(filters.OwnerAgentID))
	}

	ts, err := q.Order(ent.Desc(task.FieldUpdatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	return ts, nil
}

// ActiveTasks returns every open or in-progress task for a tenant, for
// get_wake_up's continuity context.
func (s *Store) ActiveTasks(ctx context.Context, tenantID string) ([]*ent.Task, error) {
	ts, err := s.client.Task.Query().
		Where(task.TenantID(tenantID), task.StatusNEQ(task.StatusDone)).
		Order(ent.Desc(task.FieldUpdatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list active tasks: %w", err)
	}
	return ts, nil
}
