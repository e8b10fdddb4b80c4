package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/care"
	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/dbx"
	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bloombuddy/internal/server/storage"
)

const (
	unknownPlantName   = "Unknown"
	defaultTemperature = "Medium"
)

// ImageStore is the part of the object store the plant service needs.
type ImageStore interface {
	Put(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*storage.Object, error)
	PresignPut(ctx context.Context, userID, contentType string) (*storage.PresignedUpload, error)
	PublicURL(key string) string
}

// NewPlant is the input of PlantService.Create.
type NewPlant struct {
	Name              string `json:"name"`
	ImageURL          string `json:"imageUrl"`
	WateringFrequency string `json:"wateringFrequency"`
	LightLevel        string `json:"lightLevel"`
	Temperature       string `json:"temperature"`
	Humidity          string `json:"humidity"`
	Description       string `json:"description"`
	// DefaultReminders adds a water reminder due today.
	DefaultReminders bool `json:"defaultReminders"`
}

type PlantService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageStore
	logger      logging.Logger
	now         func() time.Time
}

// NewPlantService wires the service. images may be nil, in which case the
// photo operations fail with common.ErrorUpstream.
func NewPlantService(db *sql.DB, m repomanager.RepositoryManager, images ImageStore, logger logging.Logger) *PlantService {
	return &PlantService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "plants"),
		now:         time.Now,
	}
}

func (s *PlantService) List(ctx context.Context, userID string) ([]models.Plant, error) {
	return s.repomanager.Plants(s.db).List(ctx, userID)
}

func (s *PlantService) Get(ctx context.Context, userID string, id int64) (*models.Plant, error) {
	return s.repomanager.Plants(s.db).Get(ctx, userID, id)
}

// Create stores a plant and, if asked, its default reminders in one
// transaction.
func (s *PlantService) Create(ctx context.Context, userID string, in NewPlant) (*models.Plant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: plant name is required", common.ErrorValidation)
	}

	plant := &models.Plant{
		UserID:            userID,
		Name:              name,
		ImageURL:          in.ImageURL,
		WateringFrequency: in.WateringFrequency,
		LightLevel:        in.LightLevel,
		Temperature:       in.Temperature,
		Humidity:          in.Humidity,
		Description:       in.Description,
	}

	var created *models.Plant
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.Plants(tx).Create(ctx, plant)
		if err != nil {
			return err
		}
		if !in.DefaultReminders {
			return nil
		}
		_, err = s.repomanager.Reminders(tx).Create(ctx, &models.Reminder{
			UserID:   userID,
			PlantID:  created.ID,
			TaskType: models.TaskWater,
			DueDate:  models.NewDate(s.now()),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "plant created", "user_id", userID, "plant_id", created.ID)
	return created, nil
}

// Update applies patch to the stored plant. The name may change but not
// become blank.
func (s *PlantService) Update(ctx context.Context, userID string, id int64, patch models.PlantPatch) (*models.Plant, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: plant name cannot be empty", common.ErrorValidation)
		}
		patch.Name = &trimmed
	}

	var plant *models.Plant
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Plants(tx)
		var err error
		plant, err = repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		patch.Apply(plant)
		return repo.Update(ctx, plant)
	})
	if err != nil {
		return nil, err
	}
	return plant, nil
}

// Delete removes the plant; its reminders go with it.
func (s *PlantService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.repomanager.Plants(s.db).Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "plant deleted", "user_id", userID, "plant_id", id)
	return nil
}

// UploadImage stores a photo for the plant and points the plant at it.
func (s *PlantService) UploadImage(ctx context.Context, userID string, id int64, filename, contentType string, body io.Reader, size int64) (*models.Plant, error) {
	if s.images == nil {
		return nil, errStorageDisabled
	}
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	obj, err := s.images.Put(ctx, userID, filename, contentType, body, size)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, userID, id, models.PlantPatch{ImageURL: &obj.URL})
}

// UploadPhoto stores a photo that is not yet attached to any plant, as
// done before identification.
func (s *PlantService) UploadPhoto(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*storage.Object, error) {
	if s.images == nil {
		return nil, errStorageDisabled
	}
	return s.images.Put(ctx, userID, filename, contentType, body, size)
}

// PresignUpload returns a URL the client can PUT a photo to directly.
func (s *PlantService) PresignUpload(ctx context.Context, userID, contentType string) (*storage.PresignedUpload, error) {
	if s.images == nil {
		return nil, errStorageDisabled
	}
	return s.images.PresignPut(ctx, userID, contentType)
}

// SetImage attaches a previously presigned upload to the plant. Only keys
// issued to userID are accepted.
func (s *PlantService) SetImage(ctx context.Context, userID string, id int64, key string) (*models.Plant, error) {
	if s.images == nil {
		return nil, errStorageDisabled
	}
	if !storage.OwnsKey(userID, key) {
		return nil, fmt.Errorf("%w: unknown image key", common.ErrorValidation)
	}
	url := s.images.PublicURL(key)
	return s.Update(ctx, userID, id, models.PlantPatch{ImageURL: &url})
}

// AddIdentified saves the top suggestion of an identification as a new
// plant. uploadedImageURL is used when the suggestion has no reference
// image.
func (s *PlantService) AddIdentified(ctx context.Context, userID string, res *IdentifyResult, uploadedImageURL string) (*models.Plant, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no identification", common.ErrorValidation)
	}
	return s.Create(ctx, userID, PlantFromIdentification(res, uploadedImageURL))
}

// PlantFromIdentification maps an identification onto plant fields.
func PlantFromIdentification(res *IdentifyResult, uploadedImageURL string) NewPlant {
	p := NewPlant{
		Name:              unknownPlantName,
		ImageURL:          uploadedImageURL,
		WateringFrequency: common.NotAvailable,
		LightLevel:        common.NotAvailable,
		Humidity:          common.NotAvailable,
		Temperature:       defaultTemperature,
	}

	if top := res.Top; top != nil {
		if top.Name != "" {
			p.Name = top.Name
		}
		if top.WikiImageURL != "" {
			p.ImageURL = top.WikiImageURL
		}
	}

	if f := res.Care; f != nil {
		p.WateringFrequency = care.Normalize(f.Watering, care.Watering)
		p.LightLevel = care.Normalize(f.Sunlight, care.Sunlight)
		p.Humidity = care.Normalize(f.Humidity, care.Humidity)
		p.Description = f.Description.String()
	}
	return p
}

var errStorageDisabled = fmt.Errorf("%w: photo storage is not configured", common.ErrorUpstream)
