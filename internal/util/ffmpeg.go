package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// AudioInfo is the subset of ffprobe output the prompt importer keeps.
type AudioInfo struct {
	Duration float64 `json:"duration"`
	Format   string  `json:"format"`
	Size     int64   `json:"size"`
}

func IsAudioFile(path string) bool {
	return slices.Contains(AllowedAudioExtensions, strings.ToLower(filepath.Ext(path)))
}

// GetAudioInfo inspects a local audio file with ffprobe.
func GetAudioInfo(audioPath string) (*AudioInfo, error) {
	fileInfo, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	jsonOutput, err := ffmpeg.Probe(audioPath)
	if err != nil {
		return nil, fmt.Errorf("inspect audio: %w", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
			Size     string `json:"size"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		duration = 0
	}

	size, err := strconv.ParseInt(result.Format.Size, 10, 64)
	if err != nil {
		size = fileInfo.Size()
	}

	format := "unknown"
	if result.Format.Format != "" {
		format = strings.Split(result.Format.Format, ",")[0]
	}

	return &AudioInfo{
		Duration: duration,
		Format:   format,
		Size:     size,
	}, nil
}
