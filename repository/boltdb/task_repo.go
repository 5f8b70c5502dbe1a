package boltdb

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

// taskRecord is the persisted form of a task; user references are stored as
// bare ids and expanded on read.
type taskRecord struct {
	ID          string          `json:"id"`
	Seq         uint64          `json:"seq"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     time.Time       `json:"due_date"`
	Status      domain.Status   `json:"status"`
	Priority    domain.Priority `json:"priority"`
	AssignedTo  string          `json:"assigned_to"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r taskRecord) task() domain.Task {
	return domain.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Status:      r.Status,
		Priority:    r.Priority,
		AssignedTo:  domain.UserRef{ID: r.AssignedTo},
		CreatedBy:   domain.UserRef{ID: r.CreatedBy},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type taskRepository struct {
	store *Store
	now   func() time.Time
}

// NewTaskRepository returns a BoltDB-backed implementation of TaskRepository.
func NewTaskRepository(store *Store) repository.TaskRepository {
	return &taskRepository{store: store, now: time.Now}
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.store.db.View(func(tx *bolt.Tx) error {
		rec, err := getTaskRecord(tx, id)
		if err != nil {
			return err
		}
		t := rec.task()
		expand(tx, &t)
		task = &t
		return nil
	})
	return task, err
}

func (r *taskRepository) Find(_ context.Context, query repository.TaskQuery) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	err := r.store.db.View(func(tx *bolt.Tx) error {
		records, err := matchingRecords(tx, query)
		if err != nil {
			return err
		}
		sortRecords(records, query.Sort)

		offset := max(query.Offset, 0)
		if offset >= len(records) {
			return nil
		}
		records = records[offset:]
		if query.Limit > 0 && query.Limit < len(records) {
			records = records[:query.Limit]
		}

		for _, rec := range records {
			t := rec.task()
			expand(tx, &t)
			tasks = append(tasks, t)
		}
		return nil
	})
	return tasks, err
}

func (r *taskRepository) Count(_ context.Context, query repository.TaskQuery) (int, error) {
	var total int
	err := r.store.db.View(func(tx *bolt.Tx) error {
		records, err := matchingRecords(tx, query)
		total = len(records)
		return err
	})
	return total, err
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.now()
	}
	if task.UpdatedAt.Before(task.CreatedAt) {
		task.UpdatedAt = task.CreatedAt
	}

	err := r.store.db.Update(func(tx *bolt.Tx) error {
		if !userExists(tx, task.AssignedTo.ID) || !userExists(tx, task.CreatedBy.ID) {
			return domain.ErrUnknownAssignee
		}
		bucket := tx.Bucket(tasksBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return putTaskRecord(tx, taskRecord{
			ID:          task.ID,
			Seq:         seq,
			Title:       task.Title,
			Description: task.Description,
			DueDate:     task.DueDate,
			Status:      task.Status,
			Priority:    task.Priority,
			AssignedTo:  task.AssignedTo.ID,
			CreatedBy:   task.CreatedBy.ID,
			CreatedAt:   task.CreatedAt,
			UpdatedAt:   task.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, task.ID)
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = r.now()
	}

	err := r.store.db.Update(func(tx *bolt.Tx) error {
		rec, err := getTaskRecord(tx, id)
		if err != nil {
			return err
		}
		if patch.AssignedTo != nil && !userExists(tx, *patch.AssignedTo) {
			return domain.ErrUnknownAssignee
		}

		t := rec.task()
		patch.Apply(&t)

		rec.Title = t.Title
		rec.Description = t.Description
		rec.DueDate = t.DueDate
		rec.Status = t.Status
		rec.Priority = t.Priority
		rec.AssignedTo = t.AssignedTo.ID
		rec.UpdatedAt = t.UpdatedAt
		return putTaskRecord(tx, *rec)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *taskRepository) Delete(_ context.Context, id string) error {
	return r.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tasksBucket)
		if bucket.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

func getTaskRecord(tx *bolt.Tx, id string) (*taskRecord, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	raw := tx.Bucket(tasksBucket).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrTaskNotFound
	}
	var rec taskRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func putTaskRecord(tx *bolt.Tx, rec taskRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket(tasksBucket).Put([]byte(rec.ID), payload)
}

func matchingRecords(tx *bolt.Tx, query repository.TaskQuery) ([]taskRecord, error) {
	var records []taskRecord
	err := tx.Bucket(tasksBucket).ForEach(func(_, v []byte) error {
		var rec taskRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		t := rec.task()
		if query.Matches(&t) {
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

func sortRecords(records []taskRecord, sort repository.TaskSort) {
	switch sort {
	case repository.SortDueSoonest:
		slices.SortFunc(records, func(a, b taskRecord) int {
			if c := a.DueDate.Compare(b.DueDate); c != 0 {
				return c
			}
			return cmpSeq(a.Seq, b.Seq)
		})
	default:
		slices.SortFunc(records, func(a, b taskRecord) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmpSeq(b.Seq, a.Seq)
		})
	}
}

func cmpSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// expand resolves user references into name/email projections.
func expand(tx *bolt.Tx, task *domain.Task) {
	if user, err := getUser(tx, task.AssignedTo.ID); err == nil {
		task.AssignedTo = user.Ref()
	}
	if user, err := getUser(tx, task.CreatedBy.ID); err == nil {
		task.CreatedBy = user.Ref()
	}
}
