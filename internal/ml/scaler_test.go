// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"math"
	"testing"
)

func TestStandardScalerTransform(t *testing.T) {
	tests := []struct {
		name     string
		scaler   StandardScaler
		features []float64
		want     []float64
		wantErr  bool
	}{
		{
			name:     "centers and scales",
			scaler:   StandardScaler{Mean: []float64{10, 20}, Std: []float64{2, 5}},
			features: []float64{14, 10},
			want:     []float64{2, -2},
		},
		{
			name:     "zero std centers only",
			scaler:   StandardScaler{Mean: []float64{10}, Std: []float64{0}},
			features: []float64{13},
			want:     []float64{3},
		},
		{
			name:     "length mismatch",
			scaler:   StandardScaler{Mean: []float64{10, 20}, Std: []float64{2, 5}},
			features: []float64{14},
			wantErr:  true,
		},
		{
			name:     "mean/std mismatch",
			scaler:   StandardScaler{Mean: []float64{10, 20}, Std: []float64{2}},
			features: []float64{14, 10},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.scaler.Transform(tt.features)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Transform() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("Transform()[%d] = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLabelEncoderDecode(t *testing.T) {
	enc := LabelEncoder{Classes: []string{"chickpea", "maize", "rice"}}

	tests := []struct {
		name    string
		idx     int
		want    string
		wantErr bool
	}{
		{name: "first class", idx: 0, want: "chickpea"},
		{name: "last class", idx: 2, want: "rice"},
		{name: "negative index", idx: -1, wantErr: true},
		{name: "past end", idx: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc.Decode(tt.idx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode(%d) error = %v, wantErr %v", tt.idx, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Decode(%d) = %q, want %q", tt.idx, got, tt.want)
			}
		})
	}

	if got := enc.NumClasses(); got != 3 {
		t.Errorf("NumClasses() = %d, want 3", got)
	}
}
