package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/logging"
	"github.com/dmitrijs2005/bloombuddy/internal/metrics"
	"github.com/dmitrijs2005/bloombuddy/internal/plantid"
	"github.com/dmitrijs2005/bloombuddy/internal/reminderview"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/services"
	"github.com/dmitrijs2005/bloombuddy/internal/server/storage"
)

const goodToken = "good-token"

type fakeUsers struct {
	registerErr error
	loginErr    error
	refreshErr  error
}

func (f *fakeUsers) Register(_ context.Context, username, _ string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "u1", UserName: username}, nil
}

func (f *fakeUsers) Login(context.Context, string, string) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "a2", RefreshToken: token + "2"}, nil
}

func (f *fakeUsers) UserIDFromAccessToken(token string) (string, error) {
	switch token {
	case goodToken:
		return "u1", nil
	case "expired":
		return "", common.ErrTokenExpired
	}
	return "", common.ErrInvalidToken
}

type fakePlants struct {
	plants    map[int64]models.Plant
	gotPatch  models.PlantPatch
	gotUpload string
	uploadErr error
	gotRes    *services.IdentifyResult
}

func (f *fakePlants) List(context.Context, string) ([]models.Plant, error) {
	out := []models.Plant{}
	for _, p := range f.plants {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePlants) Get(_ context.Context, _ string, id int64) (*models.Plant, error) {
	p, ok := f.plants[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (f *fakePlants) Create(_ context.Context, userID string, in services.NewPlant) (*models.Plant, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: plant name is required", common.ErrorValidation)
	}
	return &models.Plant{ID: 7, UserID: userID, Name: in.Name}, nil
}

func (f *fakePlants) Update(ctx context.Context, userID string, id int64, patch models.PlantPatch) (*models.Plant, error) {
	f.gotPatch = patch
	p, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	return p, nil
}

func (f *fakePlants) Delete(ctx context.Context, userID string, id int64) error {
	_, err := f.Get(ctx, userID, id)
	return err
}

func (f *fakePlants) UploadImage(ctx context.Context, userID string, id int64, filename, _ string, body io.Reader, _ int64) (*models.Plant, error) {
	b, _ := io.ReadAll(body)
	f.gotUpload = string(b)
	url := "https://cdn.test/" + filename
	return f.Update(ctx, userID, id, models.PlantPatch{ImageURL: &url})
}

func (f *fakePlants) UploadPhoto(_ context.Context, _ string, filename, _ string, body io.Reader, _ int64) (*storage.Object, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	b, _ := io.ReadAll(body)
	f.gotUpload = string(b)
	return &storage.Object{Key: "k", URL: "https://cdn.test/" + filename}, nil
}

func (f *fakePlants) PresignUpload(_ context.Context, _ string, contentType string) (*storage.PresignedUpload, error) {
	return &storage.PresignedUpload{Key: "k", UploadURL: "https://s3.test/put", ContentType: contentType}, nil
}

func (f *fakePlants) SetImage(ctx context.Context, userID string, id int64, key string) (*models.Plant, error) {
	url := "https://cdn.test/" + key
	return f.Update(ctx, userID, id, models.PlantPatch{ImageURL: &url})
}

func (f *fakePlants) AddIdentified(_ context.Context, _ string, res *services.IdentifyResult, _ string) (*models.Plant, error) {
	f.gotRes = res
	if res == nil {
		return nil, common.ErrorValidation
	}
	return &models.Plant{ID: 9, Name: res.Top.Name}, nil
}

type fakeReminders struct {
	gotFilter    reminderview.Filter
	gotCompleted *bool
}

func (f *fakeReminders) List(_ context.Context, _ string, plantID *int64) ([]models.Reminder, error) {
	return []models.Reminder{{ID: 1, PlantID: *plantID}}, nil
}

func (f *fakeReminders) View(_ context.Context, _ string, filter reminderview.Filter, _ time.Time) (*services.ReminderView, error) {
	f.gotFilter = filter
	return &services.ReminderView{Filter: filter, Items: []reminderview.Item{}, Counts: map[reminderview.Filter]int{}}, nil
}

func (f *fakeReminders) Create(_ context.Context, _ string, in services.NewReminder) (*models.Reminder, error) {
	return &models.Reminder{ID: 3, PlantID: in.PlantID, TaskType: models.TaskWater, DueDate: in.DueDate}, nil
}

func (f *fakeReminders) SetCompleted(_ context.Context, _ string, id int64, completed bool) (*models.Reminder, error) {
	f.gotCompleted = &completed
	return &models.Reminder{ID: id, IsCompleted: completed}, nil
}

func (f *fakeReminders) Toggle(_ context.Context, _ string, id int64) (*models.Reminder, error) {
	if id == 404 {
		return nil, common.ErrorNotFound
	}
	return &models.Reminder{ID: id, IsCompleted: true}, nil
}

func (f *fakeReminders) Delete(context.Context, string, int64) error { return nil }

type fakeIdentify struct {
	got string
	err error
}

func (f *fakeIdentify) Identify(_ context.Context, image string) (*services.IdentifyResult, error) {
	f.got = image
	if f.err != nil {
		return nil, f.err
	}
	return &services.IdentifyResult{Top: &plantid.Suggestion{Name: "Ficus"}}, nil
}

func (f *fakeIdentify) IdentifyBytes(ctx context.Context, image []byte) (*services.IdentifyResult, error) {
	return f.Identify(ctx, string(image))
}

type testEnv struct {
	srv       *Server
	plants    *fakePlants
	reminders *fakeReminders
	identify  *fakeIdentify
	users     *fakeUsers
	metrics   *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		plants:    &fakePlants{plants: map[int64]models.Plant{1: {ID: 1, Name: "Fern"}}},
		reminders: &fakeReminders{},
		identify:  &fakeIdentify{},
		users:     &fakeUsers{},
		metrics:   metrics.New(),
	}
	env.srv = New(":0", Deps{
		Users:     env.users,
		Plants:    env.plants,
		Reminders: env.reminders,
		Identify:  env.identify,
		Metrics:   env.metrics,
		Logger:    logging.Nop{},
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+goodToken)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", "Authorization", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing", "", "missing bearer token"},
		{"wrong scheme", "Basic abc", "missing bearer token"},
		{"invalid", "Bearer nope", "invalid token"},
		{"expired", "Bearer expired", "token expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/plants", "", "Authorization", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantMsg, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", `{"username":"rosalind","password":"password1"}`, "Authorization", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"u1","username":"rosalind"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"rosalind","password":"password1"}`, "Authorization", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accessToken":"a","refreshToken":"r"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"r"}`, "Authorization", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r2", decode[services.TokenPair](t, rec).RefreshToken)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", `{}`, "Authorization", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.users.loginErr = common.ErrorUnauthorized
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"rosalind","password":"x"}`, "Authorization", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.users.registerErr = fmt.Errorf("error creating user: %w", common.ErrorAlreadyExists)
	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", `{"username":"rosalind","password":"password1"}`, "Authorization", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", `{not json`, "Authorization", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlantEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/plants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Plant](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/v1/plants/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fern", decode[models.Plant](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/api/v1/plants/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/api/v1/plants/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/plants", `{"name":"Ficus","defaultReminders":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/plants", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/plants/1", `{"humidity":"High"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.plants.gotPatch.Name)
	require.NotNil(t, env.plants.gotPatch.Humidity)
	assert.Equal(t, "High", decode[models.Plant](t, rec).Humidity)

	rec = env.do(t, http.MethodDelete, "/api/v1/plants/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/plants/1/image", `{"key":"plant_images/u1/x.jpg"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.test/plant_images/u1/x.jpg", decode[models.Plant](t, rec).ImageURL)

	rec = env.do(t, http.MethodPost, "/api/v1/uploads/presign", `{"contentType":"image/png"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", decode[storage.PresignedUpload](t, rec).ContentType)

	rec = env.do(t, http.MethodPost, "/api/v1/plants/identified", `{"identification":{"top":{"name":"Ficus"},"summary":{}},"uploadedImageUrl":"u"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.plants.gotRes)
	assert.Equal(t, "Ficus", env.plants.gotRes.Top.Name)
}

func multipartBody(t *testing.T, field, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (e *testEnv) doMultipart(t *testing.T, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+goodToken)
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestUploadPlantImage(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "image", "fern.jpg", "image/jpeg", "jpegdata")
	rec := env.doMultipart(t, "/api/v1/plants/1/image", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn.test/fern.jpg", decode[models.Plant](t, rec).ImageURL)
	assert.Equal(t, "jpegdata", env.plants.gotUpload)

	body, ct = multipartBody(t, "photo", "fern.jpg", "image/jpeg", "jpegdata")
	rec = env.doMultipart(t, "/api/v1/plants/1/image", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReminderEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/reminders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reminderview.All, env.reminders.gotFilter)

	rec = env.do(t, http.MethodGet, "/api/v1/reminders?filter=overdue", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reminderview.Overdue, env.reminders.gotFilter)

	rec = env.do(t, http.MethodGet, "/api/v1/reminders?filter=soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/plants/1/reminders", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/reminders", `{"plantId":1,"dueDate":"2024-06-20"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-06-20", decode[models.Reminder](t, rec).DueDate.String())

	rec = env.do(t, http.MethodPost, "/api/v1/reminders", `{"plantId":1,"dueDate":"20/06/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/reminders/5/completed", `{"completed":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.reminders.gotCompleted)
	assert.False(t, *env.reminders.gotCompleted)

	rec = env.do(t, http.MethodPut, "/api/v1/reminders/5/completed", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/reminders/5/toggle", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/reminders/404/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/reminders/5", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIdentifyEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/identify", `{"image":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aGVsbG8=", env.identify.got)
	resp := decode[identifyResponse](t, rec)
	assert.Equal(t, "Ficus", resp.Result.Top.Name)
	assert.Empty(t, resp.ImageURL)

	body, ct := multipartBody(t, "image", "leaf.png", "image/png", "pngdata")
	rec = env.doMultipart(t, "/api/v1/identify", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pngdata", env.identify.got)
	assert.Equal(t, "https://cdn.test/leaf.png", decode[identifyResponse](t, rec).ImageURL)

	env.plants.uploadErr = errors.New("bucket down")
	body, ct = multipartBody(t, "image", "leaf.png", "image/png", "pngdata")
	rec = env.doMultipart(t, "/api/v1/identify", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[identifyResponse](t, rec).ImageURL)

	env.identify.err = fmt.Errorf("%w: plant.id status 500", common.ErrorUpstream)
	rec = env.do(t, http.MethodPost, "/api/v1/identify", `{"image":"aGVsbG8="}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream service unavailable", decode[errorResponse](t, rec).Error)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrorValidation, http.StatusBadRequest},
		{reminderview.ErrInvalidFilter, http.StatusBadRequest},
		{common.ErrorUnauthorized, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusUnauthorized},
		{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
		{fmt.Errorf("plant 3: %w", common.ErrorNotFound), http.StatusNotFound},
		{common.ErrorAlreadyExists, http.StatusConflict},
		{common.ErrorUpstream, http.StatusBadGateway},
		{errors.New("db error: boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, msg := statusFor(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, msg, "boom")
		})
	}
}

func TestMetricsRecorded(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/plants", "")
	env.do(t, http.MethodGet, "/api/v1/plants/2", "")

	n, err := testutil.GatherAndCount(env.metrics.Registry(), "bloombuddy_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec := env.do(t, http.MethodGet, "/metrics", "", "Authorization", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bloombuddy_http_request_duration_seconds")
}
