package models

import (
	"time"

	"github.com/abrigobot/abrigobot/internal/history"
	"github.com/abrigobot/abrigobot/internal/recommend"
)

// PredictRequest is the prediction request body sent by the front-end.
type PredictRequest struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Lead int     `json:"lead"`
}

// PredictResponse is the flat prediction payload. Key names are the
// long-standing contract with the bot front-end; wind speed is m/s (the
// front-end converts to km/h).
type PredictResponse struct {
	Prob1        float64 `json:"prob_1st"`
	Class1       string  `json:"class_1st"`
	Prob2        float64 `json:"prob_2nd"`
	Class2       string  `json:"class_2nd"`
	SecondOption bool    `json:"second_option"`

	Temperature         float64 `json:"temperature"`
	Humidity            float64 `json:"humidity"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	WindSpeed10m        float64 `json:"weather_wind_speed_10m"`

	HourInteger int     `json:"hour_integer"`
	Minute      int     `json:"minute"`
	HourGeo     int     `json:"hour_geo"`
	Alt         float64 `json:"alt"`

	// PrecipitationProb is a fraction in [0,1]; Precipitation is the raw
	// measured intensity.
	PrecipitationProb float64 `json:"precipitation_prob"`
	Precipitation     float64 `json:"precipitation"`

	RainAdvice recommend.RainAdvice `json:"rain_advice"`
}

// PredictError is the generic failure shape. No internal error detail
// crosses this boundary.
type PredictError struct {
	Error string `json:"error"`
}

// NewPredictResponse maps a recommendation to the wire payload.
func NewPredictResponse(rec *recommend.Recommendation) PredictResponse {
	return PredictResponse{
		Prob1:               rec.Primary.Probability,
		Class1:              rec.Primary.Class,
		Prob2:               rec.Secondary.Probability,
		Class2:              rec.Secondary.Class,
		SecondOption:        rec.ShowSecondary,
		Temperature:         rec.Temperature,
		Humidity:            rec.Humidity,
		ApparentTemperature: rec.ApparentTemperature,
		WindSpeed10m:        rec.WindSpeed10m,
		HourInteger:         rec.HourBucket,
		Minute:              rec.Minute,
		HourGeo:             rec.LocalHour,
		Alt:                 rec.Altitude,
		PrecipitationProb:   rec.PrecipitationProb,
		Precipitation:       rec.Precipitation,
		RainAdvice:          rec.Advice,
	}
}

// HistoryEntry is one served prediction in the recent-history listing.
type HistoryEntry struct {
	ID          string    `json:"id"`
	RequestedAt time.Time `json:"requestedAt"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	LeadHours   int       `json:"leadHours"`
	Class1      string    `json:"class_1st"`
	Prob1       float64   `json:"prob_1st"`
	Class2      string    `json:"class_2nd"`
	Prob2       float64   `json:"prob_2nd"`
	Advice      string    `json:"adviceCategory"`
}

// HistoryResponse is the recent-history listing.
type HistoryResponse struct {
	Predictions []HistoryEntry `json:"predictions"`
}

// NewHistoryResponse maps history records to the wire payload.
func NewHistoryResponse(records []*history.Record) HistoryResponse {
	entries := make([]HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, HistoryEntry{
			ID:          r.ID.String(),
			RequestedAt: r.RequestedAt,
			Lat:         r.Lat,
			Lon:         r.Lon,
			LeadHours:   r.LeadHours,
			Class1:      r.Class1,
			Prob1:       r.Prob1,
			Class2:      r.Class2,
			Prob2:       r.Prob2,
			Advice:      r.AdviceCategory,
		})
	}
	return HistoryResponse{Predictions: entries}
}
