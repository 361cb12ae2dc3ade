package recommend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abrigobot/abrigobot/internal/recommend"
)

func TestShowSecondOption(t *testing.T) {
	tests := []struct {
		name  string
		prob1 float64
		prob2 float64
		want  bool
	}{
		{"plausible runner-up", 0.55, 0.30, true},
		{"dominant top pick", 0.80, 0.10, false},
		{"thin margin", 0.58, 0.50, true},
		{"boundary top probability", 0.60, 0.30, true},
		{"just over the top threshold", 0.61, 0.30, false},
		{"weak runner-up with wide margin", 0.55, 0.20, false},
		{"weak runner-up but thin margin", 0.30, 0.22, true},
		{"runner-up boundary excluded", 0.50, 0.25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommend.ShowSecondOption(tt.prob1, tt.prob2))
		})
	}
}

func TestRainAdviceFor(t *testing.T) {
	tests := []struct {
		name        string
		probPercent float64
		intensity   float64
		want        recommend.AdviceCategory
	}{
		{"low probability", 20, 0, recommend.AdviceNotNecessary},
		{"optional band", 45, 0, recommend.AdviceOptional},
		{"recommended band", 65, 0, recommend.AdviceRecommended},
		{"high probability", 90, 0, recommend.AdviceEssential},
		{"intense rain overrides low probability", 10, 3, recommend.AdviceEssentialIntense},
		{"intensity boundary", 50, 2, recommend.AdviceEssentialIntense},
		{"lower optional boundary", 30, 0, recommend.AdviceOptional},
		{"lower recommended boundary", 50, 0, recommend.AdviceRecommended},
		{"lower essential boundary", 70, 0, recommend.AdviceEssential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advice := recommend.RainAdviceFor(tt.probPercent, tt.intensity)
			assert.Equal(t, tt.want, advice.Category)
			assert.NotEmpty(t, advice.Message)
		})
	}
}

func TestRainAdviceMessages(t *testing.T) {
	assert.Equal(t,
		"Salir con ☔️ no es necesario hoy",
		recommend.RainAdviceFor(0, 0).Message)
	assert.Equal(t,
		"Salir con ☔️ es imprenscindible hoy, hay lluvia intensa",
		recommend.RainAdviceFor(0, 5).Message)
}
