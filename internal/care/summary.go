package care

import "github.com/dmitrijs2005/bloombuddy/internal/common"

// Facts holds the raw care attributes of one looked-up species.
type Facts struct {
	Sunlight    Value `json:"sunlight"`
	Watering    Value `json:"watering"`
	Humidity    Value `json:"humidity"`
	Description Value `json:"description"`
}

// Summary is the display form of Facts.
type Summary struct {
	Sunlight    string `json:"sunlight"`
	Watering    string `json:"watering"`
	Humidity    string `json:"humidity"`
	Description string `json:"description"`
}

// Summarize normalizes every attribute of f. A nil f means no species
// matched; every field then reads "N/A".
func Summarize(f *Facts) Summary {
	if f == nil {
		return Summary{
			Sunlight:    common.NotAvailable,
			Watering:    common.NotAvailable,
			Humidity:    common.NotAvailable,
			Description: common.NotAvailable,
		}
	}
	return Summary{
		Sunlight:    Normalize(f.Sunlight, Sunlight),
		Watering:    Normalize(f.Watering, Watering),
		Humidity:    Normalize(f.Humidity, Humidity),
		Description: OrNA(f.Description),
	}
}
