package task

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastygo/taskdesk/domain"
	"github.com/fastygo/taskdesk/repository"
)

type storedTask struct {
	seq  int
	task domain.Task
}

type fakeRepo struct {
	mu sync.RWMutex

	nextSeq int
	tasks   map[string]storedTask
	users   map[string]domain.User

	finds   []repository.TaskQuery
	counts  []repository.TaskQuery
	updates int
	failGet error
}

func newFakeRepo(users ...domain.User) *fakeRepo {
	repo := &fakeRepo{
		nextSeq: 1,
		tasks:   make(map[string]storedTask),
		users:   make(map[string]domain.User),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeRepo) expand(t domain.Task) domain.Task {
	if u, ok := r.users[t.AssignedTo.ID]; ok {
		t.AssignedTo = u.Ref()
	}
	if u, ok := r.users[t.CreatedBy.ID]; ok {
		t.CreatedBy = u.Ref()
	}
	return t
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failGet != nil {
		return nil, r.failGet
	}
	st, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t := r.expand(st.task)
	return &t, nil
}

func (r *fakeRepo) matching(q repository.TaskQuery) []storedTask {
	var out []storedTask
	for _, st := range r.tasks {
		st := st
		if q.Matches(&st.task) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Sort == repository.SortDueSoonest {
			if !a.task.DueDate.Equal(b.task.DueDate) {
				return a.task.DueDate.Before(b.task.DueDate)
			}
			return a.seq < b.seq
		}
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})
	return out
}

func (r *fakeRepo) Find(_ context.Context, q repository.TaskQuery) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds = append(r.finds, q)

	matched := r.matching(q)
	if q.Offset >= len(matched) {
		return []domain.Task{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	out := make([]domain.Task, 0, len(matched))
	for _, st := range matched {
		out = append(out, r.expand(st.task))
	}
	return out, nil
}

func (r *fakeRepo) Count(_ context.Context, q repository.TaskQuery) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, q)
	return len(r.matching(q)), nil
}

func (r *fakeRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[task.AssignedTo.ID]; !ok {
		return nil, domain.ErrUnknownAssignee
	}
	if task.ID == "" {
		task.ID = fmt.Sprintf("task-%d", r.nextSeq)
	}
	r.tasks[task.ID] = storedTask{seq: r.nextSeq, task: *task}
	r.nextSeq++

	t := r.expand(*task)
	return &t, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.AssignedTo != nil {
		if _, ok := r.users[*patch.AssignedTo]; !ok {
			return nil, domain.ErrUnknownAssignee
		}
	}
	patch.Apply(&st.task)
	r.tasks[id] = st
	r.updates++

	t := r.expand(st.task)
	return &t, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

var _ repository.TaskRepository = (*fakeRepo)(nil)
