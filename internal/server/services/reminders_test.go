package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newTestReminderService(t *testing.T) (*ReminderService, *fakeStore) {
	t.Helper()
	db, _ := newMockDB(t)
	store := newFakeStore()
	return NewReminderService(db, store, logging.Nop{}), store
}

func seedPlant(t *testing.T, store *fakeStore, userID, name string) int64 {
	t.Helper()
	p, err := store.Plants(nil).Create(context.Background(), &models.Plant{UserID: userID, Name: name})
	require.NoError(t, err)
	return p.ID
}

func TestReminderService_Create(t *testing.T) {
	svc, store := newTestReminderService(t)
	ctx := context.Background()
	plantID := seedPlant(t, store, "u1", "Fern")

	r, err := svc.Create(ctx, "u1", NewReminder{PlantID: plantID, DueDate: mustDate(t, "2024-06-20")})
	require.NoError(t, err)
	assert.Equal(t, models.TaskWater, r.TaskType)
	assert.Equal(t, "2024-06-20", r.DueDate.String())

	r, err = svc.Create(ctx, "u1", NewReminder{PlantID: plantID, TaskType: "repot", DueDate: mustDate(t, "2024-07-01")})
	require.NoError(t, err)
	assert.Equal(t, models.TaskRepot, r.TaskType)
}

func TestReminderService_Create_Rejects(t *testing.T) {
	svc, store := newTestReminderService(t)
	ctx := context.Background()
	plantID := seedPlant(t, store, "u1", "Fern")
	due := mustDate(t, "2024-06-20")

	tests := []struct {
		name    string
		userID  string
		in      NewReminder
		wantErr error
	}{
		{"unknown task", "u1", NewReminder{PlantID: plantID, TaskType: "prune", DueDate: due}, common.ErrorValidation},
		{"no due date", "u1", NewReminder{PlantID: plantID}, common.ErrorValidation},
		{"no plant", "u1", NewReminder{DueDate: due}, common.ErrorValidation},
		{"missing plant", "u1", NewReminder{PlantID: 999, DueDate: due}, common.ErrorNotFound},
		{"someone else's plant", "u2", NewReminder{PlantID: plantID, DueDate: due}, common.ErrorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.userID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, store.reminders)
}

func TestReminderService_List(t *testing.T) {
	svc, store := newTestReminderService(t)
	ctx := context.Background()
	fern := seedPlant(t, store, "u1", "Fern")
	ficus := seedPlant(t, store, "u1", "Ficus")
	other := seedPlant(t, store, "u2", "Cactus")

	for _, in := range []NewReminder{
		{PlantID: fern, DueDate: mustDate(t, "2024-06-20")},
		{PlantID: ficus, DueDate: mustDate(t, "2024-06-10")},
	} {
		_, err := svc.Create(ctx, "u1", in)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "u2", NewReminder{PlantID: other, DueDate: mustDate(t, "2024-06-01")})
	require.NoError(t, err)

	all, err := svc.List(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ficus, all[0].PlantID)

	one, err := svc.List(ctx, "u1", &fern)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, fern, one[0].PlantID)

	_, err = svc.List(ctx, "u1", &other)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestReminderService_View(t *testing.T) {
	db, mock := newMockDB(t)
	store := newFakeStore()
	svc := NewReminderService(db, store, logging.Nop{})
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	fern := seedPlant(t, store, "u1", "Fern")

	var ids []int64
	for _, d := range []string{"2024-06-20", "2024-06-10", "2024-06-12"} {
		r, err := svc.Create(ctx, "u1", NewReminder{PlantID: fern, DueDate: mustDate(t, d)})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := svc.SetCompleted(ctx, "u1", ids[2], true)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	view, err := svc.View(ctx, "u1", reminderview.All, now)
	require.NoError(t, err)
	require.Len(t, view.Items, 3)
	assert.Equal(t, []int64{ids[1], ids[0], ids[2]}, []int64{
		view.Items[0].Reminder.ID, view.Items[1].Reminder.ID, view.Items[2].Reminder.ID,
	})
	assert.Equal(t, "Fern", view.Items[0].Plant.Name)
	assert.Equal(t, map[reminderview.Filter]int{
		reminderview.All:       3,
		reminderview.Upcoming:  1,
		reminderview.Overdue:   1,
		reminderview.Completed: 1,
	}, view.Counts)

	mock.ExpectBegin()
	mock.ExpectCommit()
	view, err = svc.View(ctx, "u1", reminderview.Overdue, now)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, ids[1], view.Items[0].Reminder.ID)
	assert.Equal(t, reminderview.Overdue, view.Filter)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderService_View_InvalidFilter(t *testing.T) {
	db, mock := newMockDB(t)
	store := newFakeStore()
	svc := NewReminderService(db, store, logging.Nop{})
	seedPlant(t, store, "u1", "Fern")

	// the filter is checked once, after the snapshot read
	mock.ExpectBegin()
	mock.ExpectCommit()
	view, err := svc.View(context.Background(), "u1", "soon", time.Now())
	assert.ErrorIs(t, err, reminderview.ErrInvalidFilter)
	assert.Nil(t, view)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderService_View_ReadFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	store := newFakeStore()
	store.remindersErr = errors.New("connection reset")
	svc := NewReminderService(db, store, logging.Nop{})

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.View(context.Background(), "u1", reminderview.All, time.Now())
	assert.ErrorIs(t, err, store.remindersErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderService_CompletionAndDelete(t *testing.T) {
	svc, store := newTestReminderService(t)
	ctx := context.Background()
	fern := seedPlant(t, store, "u1", "Fern")
	r, err := svc.Create(ctx, "u1", NewReminder{PlantID: fern, DueDate: mustDate(t, "2024-06-20")})
	require.NoError(t, err)

	for range 2 {
		got, err := svc.SetCompleted(ctx, "u1", r.ID, true)
		require.NoError(t, err)
		assert.True(t, got.IsCompleted)
	}

	got, err := svc.Toggle(ctx, "u1", r.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)

	_, err = svc.Toggle(ctx, "u2", r.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = svc.SetCompleted(ctx, "u2", r.ID, true)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", r.ID), common.ErrorNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", r.ID))
	assert.Empty(t, store.reminders)
}
