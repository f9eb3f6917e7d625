package service

import (
	"math"
	"toefl_sim_backend/internal/model"
)

// Raw maxima per section on the paper-based test.
const (
	ListeningRawMax = 50
	StructureRawMax = 40
	ReadingRawMax   = 50
)

// scale maps raw in [0, rawMax] linearly onto [31, 31+span].
func scale(raw, rawMax int, span float64) int {
	if raw < 0 {
		raw = 0
	}
	if raw > rawMax {
		raw = rawMax
	}
	return int(math.Round(float64(raw)/float64(rawMax)*span + 31))
}

func ScaleListening(raw int) int {
	return scale(raw, ListeningRawMax, 37)
}

func ScaleStructure(raw int) int {
	return scale(raw, StructureRawMax, 37)
}

func ScaleReading(raw int) int {
	return scale(raw, ReadingRawMax, 36)
}

// ScaledScore holds the converted section scores. Sections outside the attempt's mode are nil.
type ScaledScore struct {
	Listening *int `json:"listening,omitempty"`
	Structure *int `json:"structure,omitempty"`
	Reading   *int `json:"reading,omitempty"`
	Total     int  `json:"total"`
}

// ScaleForMode converts raw scores of the sections the mode covers and sums them.
func ScaleForMode(mode model.SimulationMode, raw model.SectionScore) ScaledScore {
	var out ScaledScore
	for _, section := range mode.Sections() {
		var v int
		switch section {
		case model.SectionListening:
			v = ScaleListening(raw.Listening)
			out.Listening = &v
		case model.SectionStructure:
			v = ScaleStructure(raw.Structure)
			out.Structure = &v
		case model.SectionReading:
			v = ScaleReading(raw.Reading)
			out.Reading = &v
		}
		out.Total += v
	}
	return out
}
