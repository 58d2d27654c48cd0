package v1alpha1

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestTime_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		time     Time
		expected string
	}{
		{
			name:     "zero time returns null",
			time:     Time{},
			expected: "null",
		},
		{
			name:     "valid time returns RFC3339",
			time:     Time{Time: time.Date(2025, 11, 3, 10, 30, 0, 0, time.UTC)},
			expected: `"2025-11-03T10:30:00Z"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.time.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("MarshalJSON() = %s, want %s", string(got), tt.expected)
			}
		})
	}
}

func TestTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantZero  bool
		wantError bool
	}{
		{name: "null returns zero time", input: "null", wantZero: true},
		{name: "empty string returns zero time", input: `""`, wantZero: true},
		{name: "valid RFC3339 time", input: `"2025-11-03T10:30:00Z"`},
		{name: "invalid format", input: `"yesterday"`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Time
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if got.IsZero() != tt.wantZero {
				t.Errorf("IsZero() = %v, want %v", got.IsZero(), tt.wantZero)
			}
		})
	}
}

func TestTime_YAML(t *testing.T) {
	type wrapper struct {
		At Time `yaml:"at,omitempty"`
	}

	in := wrapper{At: Time{Time: time.Date(2025, 11, 3, 10, 30, 0, 0, time.UTC)}}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "2025-11-03T10:30:00Z") {
		t.Errorf("unexpected YAML: %q", string(data))
	}

	var out wrapper
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if !out.At.Equal(in.At.Time) {
		t.Errorf("round trip = %v, want %v", out.At, in.At)
	}
}

func TestDuration_YAML(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      time.Duration
		wantError bool
	}{
		{name: "seconds", input: "wait: 15s\n", want: 15 * time.Second},
		{name: "minutes", input: "wait: 10m\n", want: 10 * time.Minute},
		{name: "empty", input: "wait: \"\"\n", want: 0},
		{name: "bare number is rejected", input: "wait: 15\n", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Wait Duration `yaml:"wait"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &got)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("yaml.Unmarshal() error = %v", err)
			}
			if got.Wait.Duration != tt.want {
				t.Errorf("Duration = %v, want %v", got.Wait.Duration, tt.want)
			}
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	d := NewDuration(90 * time.Second)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `"1m30s"` {
		t.Errorf("json.Marshal() = %s, want \"1m30s\"", data)
	}

	var back Duration
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if back.Duration != d.Duration {
		t.Errorf("round trip = %v, want %v", back.Duration, d.Duration)
	}

	if err := json.Unmarshal([]byte(`"soon"`), &back); err == nil {
		t.Error("expected error for invalid duration")
	}
}
