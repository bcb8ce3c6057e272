package utils

import (
	"testing"
	"time"
)

func TestParseDateFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNil bool
		wantErr bool
	}{
		{
			name:    "empty string means no bound",
			input:   "",
			wantNil: true,
		},
		{
			name:  "valid ISO date",
			input: "2026-01-15",
		},
		{
			name:    "wrong separator",
			input:   "15/01/2026",
			wantErr: true,
		},
		{
			name:    "month out of range",
			input:   "2026-13-01",
			wantErr: true,
		},
		{
			name:    "not a date",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseDateFlag(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDateFlag(%q) = nil, want a date", tt.input)
			}
			if got.Year() != 2026 || got.Month() != time.January || got.Day() != 15 {
				t.Errorf("ParseDateFlag(%q) = %v", tt.input, got)
			}
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		since   *time.Time
		until   *time.Time
		wantErr bool
	}{
		{
			name:  "both nil",
			since: nil,
			until: nil,
		},
		{
			name:  "since only",
			since: &jan,
		},
		{
			name:  "valid range",
			since: &jan,
			until: &feb,
		},
		{
			name:  "equal bounds",
			since: &jan,
			until: &jan,
		},
		{
			name:    "inverted range",
			since:   &feb,
			until:   &jan,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.since, tt.until)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
