package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/dbx"
	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/repomanager"
)

// ReminderView is the reminders screen: the filtered list plus how many
// reminders every filter would show.
type ReminderView struct {
	Filter reminderview.Filter         `json:"filter"`
	Items  []reminderview.Item         `json:"items"`
	Counts map[reminderview.Filter]int `json:"counts"`
}

// NewReminder is the input of ReminderService.Create.
type NewReminder struct {
	PlantID  int64       `json:"plantId"`
	TaskType string      `json:"taskType"`
	DueDate  models.Date `json:"dueDate"`
}

type ReminderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewReminderService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ReminderService {
	return &ReminderService{db: db, repomanager: m, logger: logger.With("module", "reminders")}
}

// List returns the user's reminders, or only one plant's when plantID is
// set, earliest due first.
func (s *ReminderService) List(ctx context.Context, userID string, plantID *int64) ([]models.Reminder, error) {
	repo := s.repomanager.Reminders(s.db)
	if plantID == nil {
		return repo.List(ctx, userID)
	}
	if _, err := s.repomanager.Plants(s.db).Get(ctx, userID, *plantID); err != nil {
		return nil, err
	}
	return repo.ListByPlant(ctx, userID, *plantID)
}

// View builds the reminder list for filter as of now. An unknown filter
// fails with reminderview.ErrInvalidFilter.
func (s *ReminderService) View(ctx context.Context, userID string, filter reminderview.Filter, now time.Time) (*ReminderView, error) {
	var (
		reminders []models.Reminder
		plants    []models.Plant
	)
	// both lists come from one snapshot so every reminder finds its plant
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if reminders, err = s.repomanager.Reminders(tx).List(ctx, userID); err != nil {
			return err
		}
		plants, err = s.repomanager.Plants(tx).List(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	items, err := reminderview.Build(reminders, plants, filter, now)
	if err != nil {
		return nil, err
	}
	return &ReminderView{
		Filter: filter,
		Items:  items,
		Counts: reminderview.Counts(reminders, now),
	}, nil
}

// Create schedules a reminder. The plant must exist and belong to userID;
// the task type defaults to water.
func (s *ReminderService) Create(ctx context.Context, userID string, in NewReminder) (*models.Reminder, error) {
	taskType, err := models.ParseTaskType(in.TaskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", common.ErrorValidation)
	}
	if in.PlantID <= 0 {
		return nil, fmt.Errorf("%w: plant is required", common.ErrorValidation)
	}

	r, err := s.repomanager.Reminders(s.db).Create(ctx, &models.Reminder{
		UserID:   userID,
		PlantID:  in.PlantID,
		TaskType: taskType,
		DueDate:  in.DueDate,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "reminder created", "user_id", userID, "reminder_id", r.ID, "plant_id", r.PlantID)
	return r, nil
}

// SetCompleted stores completed as the reminder's state. Repeating a call
// is harmless.
func (s *ReminderService) SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*models.Reminder, error) {
	return s.repomanager.Reminders(s.db).SetCompleted(ctx, userID, id, completed)
}

// Toggle flips the completion state.
func (s *ReminderService) Toggle(ctx context.Context, userID string, id int64) (*models.Reminder, error) {
	return s.repomanager.Reminders(s.db).Toggle(ctx, userID, id)
}

func (s *ReminderService) Delete(ctx context.Context, userID string, id int64) error {
	return s.repomanager.Reminders(s.db).Delete(ctx, userID, id)
}
