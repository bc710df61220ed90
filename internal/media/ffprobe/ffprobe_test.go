package ffprobe

import (
	"math"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"},
    {"index": 2, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {
    "filename": "rec.mp4",
    "nb_streams": 3,
    "duration": "1800.50",
    "size": "1000",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2"
  }
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 1800.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if !result.IsMP4() {
		t.Fatal("expected mp4 container")
	}
	if err := result.ValidatePlayable(); err != nil {
		t.Fatalf("ValidatePlayable: %v", err)
	}
}

func TestValidatePlayableRejects(t *testing.T) {
	tests := []struct {
		name   string
		result Result
	}{
		{"wrong container", Result{Format: Format{FormatName: "mpegts"}, Streams: []Stream{{CodecType: "video"}}}},
		{"no streams", Result{Format: Format{FormatName: "mov,mp4,m4a"}}},
		{"data only", Result{Format: Format{FormatName: "mov,mp4"}, Streams: []Stream{{CodecType: "data"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.result.ValidatePlayable(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	if got := (Result{}).DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for missing duration, got %v", got)
	}
	if got := (Result{Format: Format{Duration: "bad"}}).DurationSeconds(); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
