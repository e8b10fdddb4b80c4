// Package rpcapi is the contract between the BloomBuddy gRPC server and its
// clients: method names and the request and response messages.
//
// Messages are plain structs. They travel as JSON through the codec
// registered by this package, so both sides must import it.
package rpcapi

import "time"

const ServiceName = "bloombuddy.v1.BloomBuddy"

// Full method names.
const (
	MethodPing                 = "/" + ServiceName + "/Ping"
	MethodLogin                = "/" + ServiceName + "/Login"
	MethodRefreshToken         = "/" + ServiceName + "/RefreshToken"
	MethodListReminders        = "/" + ServiceName + "/ListReminders"
	MethodSetReminderCompleted = "/" + ServiceName + "/SetReminderCompleted"
	MethodListPlants           = "/" + ServiceName + "/ListPlants"
	MethodPresignPlantImage    = "/" + ServiceName + "/PresignPlantImage"
	MethodSetPlantImage        = "/" + ServiceName + "/SetPlantImage"
)

// Public reports whether method may be called without an access token.
func Public(method string) bool {
	switch method {
	case MethodPing, MethodLogin, MethodRefreshToken:
		return true
	}
	return false
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Plant struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	ImageURL          string `json:"imageUrl,omitempty"`
	WateringFrequency string `json:"wateringFrequency"`
	LightLevel        string `json:"lightLevel"`
	Temperature       string `json:"temperature"`
	Humidity          string `json:"humidity"`
}

type ListPlantsRequest struct{}

type ListPlantsResponse struct {
	Plants []Plant `json:"plants"`
}

// Reminder is one row of the reminders view, already joined with its plant.
type Reminder struct {
	ID          int64  `json:"id"`
	PlantID     int64  `json:"plantId"`
	PlantName   string `json:"plantName"`
	TaskType    string `json:"taskType"`
	TaskLabel   string `json:"taskLabel"`
	DueDate     string `json:"dueDate"`
	IsCompleted bool   `json:"isCompleted"`
	Overdue     bool   `json:"overdue"`
}

type ListRemindersRequest struct {
	// Filter is one of all, upcoming, overdue, completed. Empty means all.
	Filter string `json:"filter"`
}

type ListRemindersResponse struct {
	Filter    string         `json:"filter"`
	Reminders []Reminder     `json:"reminders"`
	Counts    map[string]int `json:"counts"`
}

type SetReminderCompletedRequest struct {
	ID        int64 `json:"id"`
	Completed bool  `json:"completed"`
}

type SetReminderCompletedResponse struct {
	ID          int64 `json:"id"`
	IsCompleted bool  `json:"isCompleted"`
}

type PresignPlantImageRequest struct {
	ContentType string `json:"contentType"`
}

type PresignPlantImageResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SetPlantImageRequest struct {
	PlantID int64  `json:"plantId"`
	Key     string `json:"key"`
}

type SetPlantImageResponse struct {
	Plant Plant `json:"plant"`
}
