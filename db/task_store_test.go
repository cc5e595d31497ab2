package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"task_app_backend/config"
	"task_app_backend/models"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()

	sqlDB, err := OpenDB(config.DB{Driver: "sqlite", SQLiteDSN: ":memory:"})
	if err != nil {
		t.Fatalf("open db err=%v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := EnsureSchema(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("ensure schema err=%v", err)
	}
	return NewTaskStore(sqlDB, "sqlite")
}

func mustSave(t *testing.T, s *TaskStore, task models.Task) models.Task {
	t.Helper()

	saved, err := s.Save(context.Background(), task)
	if err != nil {
		t.Fatalf("save err=%v", err)
	}
	return saved
}

var createdOn = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestSave_InsertGeneratesID(t *testing.T) {
	s := newTestStore(t)

	a := mustSave(t, s, models.Task{Description: "buy Hummus", CreatedOn: createdOn, Priority: models.PriorityMedium})
	b := mustSave(t, s, models.Task{Description: "finish video series", IsTaskOpen: true, CreatedOn: createdOn, Priority: models.PriorityLow})

	if a.ID <= 0 || b.ID <= a.ID {
		t.Fatalf("ids=%d,%d, want increasing positive ids", a.ID, b.ID)
	}

	got, err := s.FindByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("find err=%v", err)
	}
	if got.Description != "finish video series" || !got.IsTaskOpen || got.Priority != models.PriorityLow {
		t.Fatalf("got=%+v", got)
	}
	if !got.CreatedOn.Equal(createdOn) {
		t.Fatalf("createdOn=%v, want %v", got.CreatedOn, createdOn)
	}
}

func TestSave_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := mustSave(t, s, models.Task{Description: "draft", CreatedOn: createdOn, Priority: models.PriorityLow})
	task.Description = "final"
	task.IsReminderSet = true
	task.Priority = models.PriorityHigh
	mustSave(t, s, task)

	got, err := s.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("find err=%v", err)
	}
	if got.Description != "final" || !got.IsReminderSet || got.Priority != models.PriorityHigh {
		t.Fatalf("got=%+v", got)
	}

	all, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all err=%v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len=%d, want 1", len(all))
	}
}

func TestSave_MissingIDIsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(context.Background(), models.Task{ID: 999, Description: "ghost", CreatedOn: createdOn, Priority: models.PriorityLow})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestSave_FixedZoneCreatedOnReadsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	zoned := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("", 2*60*60))

	task := mustSave(t, s, models.Task{Description: "call the plumber", CreatedOn: zoned, Priority: models.PriorityLow})

	got, err := s.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("find err=%v", err)
	}
	if !got.CreatedOn.Equal(zoned) {
		t.Fatalf("createdOn=%v, want instant %v", got.CreatedOn, zoned)
	}

	all, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all err=%v", err)
	}
	if len(all) != 1 || !all[0].CreatedOn.Equal(zoned) {
		t.Fatalf("all=%+v", all)
	}
}

func TestQueryOpenAndClosed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	closed := mustSave(t, s, models.Task{Description: "buy Hummus", IsTaskOpen: false, CreatedOn: createdOn, Priority: models.PriorityMedium})
	open := mustSave(t, s, models.Task{Description: "finish video series", IsTaskOpen: true, CreatedOn: createdOn, Priority: models.PriorityLow})
	closed2 := mustSave(t, s, models.Task{Description: "call mom", IsTaskOpen: false, CreatedOn: createdOn, Priority: models.PriorityHigh})

	openTasks, err := s.QueryOpen(ctx)
	if err != nil {
		t.Fatalf("query open err=%v", err)
	}
	if len(openTasks) != 1 || openTasks[0].ID != open.ID {
		t.Fatalf("open=%+v, want only id %d", openTasks, open.ID)
	}

	closedTasks, err := s.QueryClosed(ctx)
	if err != nil {
		t.Fatalf("query closed err=%v", err)
	}
	if len(closedTasks) != 2 || closedTasks[0].ID != closed.ID || closedTasks[1].ID != closed2.ID {
		t.Fatalf("closed=%+v", closedTasks)
	}
}

func TestFindAll_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)

	all, err := s.FindAll(context.Background())
	if err != nil {
		t.Fatalf("find all err=%v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("all=%v, want empty slice", all)
	}
}

func TestExistsAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := mustSave(t, s, models.Task{Description: "buy milk", CreatedOn: createdOn, Priority: models.PriorityLow})

	ok, err := s.ExistsByID(ctx, task.ID)
	if err != nil || !ok {
		t.Fatalf("exists=%v err=%v, want true", ok, err)
	}

	if err := s.DeleteByID(ctx, task.ID); err != nil {
		t.Fatalf("delete err=%v", err)
	}

	ok, err = s.ExistsByID(ctx, task.ID)
	if err != nil || ok {
		t.Fatalf("exists=%v err=%v, want false", ok, err)
	}

	if err := s.DeleteByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err=%v, want ErrNotFound", err)
	}
	if _, err := s.FindByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find err=%v, want ErrNotFound", err)
	}
}

func TestDescriptionExists_CaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustSave(t, s, models.Task{Description: "Buy Milk", CreatedOn: createdOn, Priority: models.PriorityLow})

	ok, err := s.DescriptionExists(ctx, "Buy Milk")
	if err != nil || !ok {
		t.Fatalf("exact: exists=%v err=%v", ok, err)
	}
	ok, err = s.DescriptionExists(ctx, "buy milk")
	if err != nil || ok {
		t.Fatalf("lowercase: exists=%v err=%v, want false", ok, err)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := newTestStore(t)

	if err := EnsureSchema(context.Background(), s.db, "sqlite"); err != nil {
		t.Fatalf("second ensure err=%v", err)
	}
}

func TestRebind(t *testing.T) {
	got := rebind("postgres", "UPDATE tasks SET a = ?, b = ? WHERE id = ?")
	if got != "UPDATE tasks SET a = $1, b = $2 WHERE id = $3" {
		t.Fatalf("got=%q", got)
	}
	if q := "SELECT ?"; rebind("sqlite", q) != q {
		t.Fatal("sqlite query should be unchanged")
	}
}

func TestOpenDB_UnsupportedDriver(t *testing.T) {
	if _, err := OpenDB(config.DB{Driver: "mysql"}); err == nil {
		t.Fatal("expected error")
	}
}
