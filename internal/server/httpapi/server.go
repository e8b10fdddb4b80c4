// Package httpapi is the JSON-over-HTTP transport of the server, built on
// echo. Handlers only decode requests, call a service and encode the
// answer; errors are mapped to status codes in one place (errorHandler).
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/metrics"
	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
	"github.com/dmitrijs2005/bloombuddy/internal/server/storage"
)

const (
	apiPrefix    = "/api/v1"
	maxBodyBytes = "10M"
	// maxImageBytes bounds a single uploaded photo.
	maxImageBytes = 8 << 20
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, token string) (*services.TokenPair, error)
	UserIDFromAccessToken(token string) (string, error)
}

type PlantService interface {
	List(ctx context.Context, userID string) ([]models.Plant, error)
	Get(ctx context.Context, userID string, id int64) (*models.Plant, error)
	Create(ctx context.Context, userID string, in services.NewPlant) (*models.Plant, error)
	Update(ctx context.Context, userID string, id int64, patch models.PlantPatch) (*models.Plant, error)
	Delete(ctx context.Context, userID string, id int64) error
	UploadImage(ctx context.Context, userID string, id int64, filename, contentType string, body io.Reader, size int64) (*models.Plant, error)
	UploadPhoto(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*storage.Object, error)
	PresignUpload(ctx context.Context, userID, contentType string) (*storage.PresignedUpload, error)
	SetImage(ctx context.Context, userID string, id int64, key string) (*models.Plant, error)
	AddIdentified(ctx context.Context, userID string, res *services.IdentifyResult, uploadedImageURL string) (*models.Plant, error)
}

type ReminderService interface {
	List(ctx context.Context, userID string, plantID *int64) ([]models.Reminder, error)
	View(ctx context.Context, userID string, filter reminderview.Filter, now time.Time) (*services.ReminderView, error)
	Create(ctx context.Context, userID string, in services.NewReminder) (*models.Reminder, error)
	SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*models.Reminder, error)
	Toggle(ctx context.Context, userID string, id int64) (*models.Reminder, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type IdentifyService interface {
	Identify(ctx context.Context, imageBase64 string) (*services.IdentifyResult, error)
	IdentifyBytes(ctx context.Context, image []byte) (*services.IdentifyResult, error)
}

// Deps are the collaborators of the HTTP server. Metrics may be nil.
type Deps struct {
	Users     UserService
	Plants    PlantService
	Reminders ReminderService
	Identify  IdentifyService
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

type Server struct {
	addr   string
	echo   *echo.Echo
	deps   Deps
	logger logging.Logger
	now    func() time.Time
}

func New(addr string, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		addr:   addr,
		echo:   e,
		deps:   deps,
		logger: deps.Logger.With("module", "http"),
		now:    time.Now,
	}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestID())
	e.Use(s.observe)
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodyBytes))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))

	api := s.echo.Group(apiPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)

	private := api.Group("", s.requireAuth)

	private.GET("/plants", s.listPlants)
	private.POST("/plants", s.createPlant)
	private.POST("/plants/identified", s.addIdentified)
	private.GET("/plants/:id", s.getPlant)
	private.PATCH("/plants/:id", s.updatePlant)
	private.DELETE("/plants/:id", s.deletePlant)
	private.POST("/plants/:id/image", s.uploadPlantImage)
	private.PUT("/plants/:id/image", s.setPlantImage)
	private.GET("/plants/:id/reminders", s.listPlantReminders)

	private.GET("/reminders", s.viewReminders)
	private.POST("/reminders", s.createReminder)
	private.PUT("/reminders/:id/completed", s.setReminderCompleted)
	private.POST("/reminders/:id/toggle", s.toggleReminder)
	private.DELETE("/reminders/:id", s.deleteReminder)

	private.POST("/identify", s.identify)
	private.POST("/uploads/presign", s.presignUpload)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info(ctx, "http server shutting down")
	return s.echo.Shutdown(shutdownCtx)
}
