package models

import "time"

// Plant is a user's plant with its care guidelines as free text.
type Plant struct {
	ID                int64     `json:"id"`
	UserID            string    `json:"-"`
	Name              string    `json:"name"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	WateringFrequency string    `json:"wateringFrequency"`
	LightLevel        string    `json:"lightLevel"`
	Temperature       string    `json:"temperature"`
	Humidity          string    `json:"humidity"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PlantPatch carries the fields of a partial plant update. Nil fields are
// left untouched.
type PlantPatch struct {
	Name              *string `json:"name,omitempty"`
	ImageURL          *string `json:"imageUrl,omitempty"`
	WateringFrequency *string `json:"wateringFrequency,omitempty"`
	LightLevel        *string `json:"lightLevel,omitempty"`
	Temperature       *string `json:"temperature,omitempty"`
	Humidity          *string `json:"humidity,omitempty"`
	Description       *string `json:"description,omitempty"`
}

// Apply copies the set fields of p onto plant.
func (p PlantPatch) Apply(plant *Plant) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&plant.Name, p.Name)
	set(&plant.ImageURL, p.ImageURL)
	set(&plant.WateringFrequency, p.WateringFrequency)
	set(&plant.LightLevel, p.LightLevel)
	set(&plant.Temperature, p.Temperature)
	set(&plant.Humidity, p.Humidity)
	set(&plant.Description, p.Description)
}
