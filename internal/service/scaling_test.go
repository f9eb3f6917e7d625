package service_test

import (
	"testing"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int) int
		raw  int
		want int
	}{
		{"listening max", service.ScaleListening, 50, 68},
		{"listening zero", service.ScaleListening, 0, 31},
		{"listening half rounds up", service.ScaleListening, 25, 50},
		{"structure max", service.ScaleStructure, 40, 68},
		{"structure zero", service.ScaleStructure, 0, 31},
		{"structure three", service.ScaleStructure, 3, 34},
		{"reading max", service.ScaleReading, 50, 67},
		{"reading zero", service.ScaleReading, 0, 31},
		{"reading mid", service.ScaleReading, 30, 53},
		{"clamped above", service.ScaleStructure, 45, 68},
		{"clamped below", service.ScaleReading, -4, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.raw))
		})
	}
}

func TestScaleForMode(t *testing.T) {
	raw := model.SectionScore{Listening: 50, Structure: 40, Reading: 50, Total: 140}

	full := service.ScaleForMode(model.ModeFull, raw)
	require.NotNil(t, full.Listening)
	require.NotNil(t, full.Structure)
	require.NotNil(t, full.Reading)
	assert.Equal(t, 68+68+67, full.Total)

	structure := service.ScaleForMode(model.ModeStructure, model.SectionScore{Structure: 3, Total: 3})
	assert.Nil(t, structure.Listening)
	assert.Nil(t, structure.Reading)
	require.NotNil(t, structure.Structure)
	assert.Equal(t, 34, *structure.Structure)
	assert.Equal(t, 34, structure.Total)

	reading := service.ScaleForMode(model.ModeReading, model.SectionScore{})
	assert.Equal(t, 31, reading.Total)
}
