// Package history records served predictions. The log is the raw material
// for future retraining rounds, so records keep both the request and the
// ranked outcome.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Record is one served prediction.
type Record struct {
	ID          uuid.UUID
	RequestedAt time.Time

	// Request.
	Lat        float64
	Lon        float64
	LeadHours  int
	HourBucket int

	// Ranked outcome.
	Class1 string
	Prob1  float64
	Class2 string
	Prob2  float64

	// Conditions at the matched hour.
	Temperature         float64
	ApparentTemperature float64
	PrecipitationProb   float64
	Precipitation       float64

	// AdviceCategory is the rain-advice tier served with the prediction.
	AdviceCategory string
}
