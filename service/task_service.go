package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task_app_backend/db"
	"task_app_backend/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type TaskStore interface {
	FindAll(ctx context.Context) ([]models.Task, error)
	FindByID(ctx context.Context, id int64) (models.Task, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
	Save(ctx context.Context, task models.Task) (models.Task, error)
	QueryOpen(ctx context.Context) ([]models.Task, error)
	QueryClosed(ctx context.Context) ([]models.Task, error)
	DescriptionExists(ctx context.Context, description string) (bool, error)
}

// EventPublisher receives a TaskEvent after each committed write.
type EventPublisher interface {
	Publish(ctx context.Context, event models.TaskEvent) error
}

type Option func(*TaskService)

func WithPublisher(p EventPublisher) Option {
	return func(s *TaskService) { s.publisher = p }
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *TaskService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

type TaskService struct {
	store     TaskStore
	publisher EventPublisher
	log       log.FieldLogger
	now       func() time.Time
}

func New(store TaskStore, opts ...Option) (*TaskService, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	s := &TaskService{
		store: store,
		log:   log.StandardLogger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.TaskDto, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.ToDtos(tasks), nil
}

func (s *TaskService) GetAllOpenTasks(ctx context.Context) ([]models.TaskDto, error) {
	tasks, err := s.store.QueryOpen(ctx)
	if err != nil {
		return nil, err
	}
	return models.ToDtos(tasks), nil
}

func (s *TaskService) GetAllClosedTasks(ctx context.Context) ([]models.TaskDto, error) {
	tasks, err := s.store.QueryClosed(ctx)
	if err != nil {
		return nil, err
	}
	return models.ToDtos(tasks), nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (models.TaskDto, error) {
	if err := s.checkTaskForID(ctx, id); err != nil {
		return models.TaskDto{}, err
	}
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.TaskDto{}, s.storeErr(id, err)
	}
	return models.ToDto(task), nil
}

// CreateTask persists a new task. The request's createdOn is kept when
// present, otherwise the task is stamped with the service clock.
func (s *TaskService) CreateTask(ctx context.Context, req models.TaskCreateRequest) (models.TaskDto, error) {
	exists, err := s.store.DescriptionExists(ctx, req.Description)
	if err != nil {
		return models.TaskDto{}, err
	}
	if exists {
		return models.TaskDto{}, duplicateDescription(req.Description)
	}

	task := models.Task{CreatedOn: s.now()}
	models.ApplyCreate(&task, req)

	saved, err := s.store.Save(ctx, task)
	if err != nil {
		return models.TaskDto{}, err
	}
	s.publish(ctx, models.EventTaskCreated, saved.ID, saved.Priority)
	return models.ToDto(saved), nil
}

// UpdateTask merges the present fields of req into the stored task.
// Description uniqueness is not re-checked here.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req models.TaskUpdateRequest) (models.TaskDto, error) {
	if err := s.checkTaskForID(ctx, id); err != nil {
		return models.TaskDto{}, err
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.TaskDto{}, s.storeErr(id, err)
	}

	models.ApplyUpdate(&existing, req)

	saved, err := s.store.Save(ctx, existing)
	if err != nil {
		return models.TaskDto{}, s.storeErr(id, err)
	}
	s.publish(ctx, models.EventTaskUpdated, saved.ID, saved.Priority)
	return models.ToDto(saved), nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) (string, error) {
	if err := s.checkTaskForID(ctx, id); err != nil {
		return "", err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return "", s.storeErr(id, err)
	}
	s.publish(ctx, models.EventTaskDeleted, id, "")
	return fmt.Sprintf("Task with the ID: %d has been deleted.", id), nil
}

func (s *TaskService) checkTaskForID(ctx context.Context, id int64) error {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return taskNotFound(id)
	}
	return nil
}

// storeErr maps a row that vanished after the existence check onto the
// same NotFound error the check would have produced.
func (s *TaskService) storeErr(id int64, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return taskNotFound(id)
	}
	return err
}

func (s *TaskService) publish(ctx context.Context, typ models.EventType, taskID int64, priority models.Priority) {
	if s.publisher == nil {
		return
	}
	event := models.TaskEvent{
		ID:         uuid.New().String(),
		Type:       typ,
		TaskID:     taskID,
		Priority:   priority,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithFields(log.Fields{
			"task":  taskID,
			"event": typ,
		}).WithError(err).Warn("Failed to publish task event")
	}
}
