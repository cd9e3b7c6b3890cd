package tools

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/apperr"
)

func TestGetInt(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		want    int
		wantErr bool
	}{
		{"missing uses default", map[string]interface{}{}, 50, false},
		{"null uses default", map[string]interface{}{"n": nil}, 50, false},
		{"whole float", map[string]interface{}{"n": float64(10)}, 10, false},
		{"fraction", map[string]interface{}{"n": 2.5}, 0, true},
		{"string", map[string]interface{}{"n": "10"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getInt(tt.args, "n", 50)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrInvalidInput) {
					t.Errorf("expected invalid input, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("getInt() = %d, %v, want %d", got, err, tt.want)
			}
		})
	}
}

func TestGetPeriod(t *testing.T) {
	p, err := getPeriod(map[string]interface{}{"start_date": "2024-01-01", "end_date": " 2024-01-31 "})
	if err != nil {
		t.Fatalf("getPeriod: %v", err)
	}
	if p.Start != (civil.Date{Year: 2024, Month: 1, Day: 1}) || p.End != (civil.Date{Year: 2024, Month: 1, Day: 31}) {
		t.Errorf("period = %+v", p)
	}

	bad := []map[string]interface{}{
		{"start_date": "01/02/2024"},
		{"end_date": "2024-02-30"},
		{"start_date": "2024-02-01", "end_date": "2024-01-01"},
	}
	for _, args := range bad {
		if _, err := getPeriod(args); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("getPeriod(%v) = %v, want invalid input", args, err)
		}
	}
}

func TestGetTargets(t *testing.T) {
	got, err := getTargets(map[string]interface{}{
		"budgets": map[string]interface{}{"Food/Dining": 400.5, "Shopping": "120"},
	}, "budgets")
	if err != nil {
		t.Fatalf("getTargets: %v", err)
	}
	if got["Food/Dining"].String() != "400.5" || got["Shopping"].String() != "120" {
		t.Errorf("targets = %v", got)
	}

	for _, args := range []map[string]interface{}{
		{},
		{"budgets": "400"},
		{"budgets": map[string]interface{}{"Food/Dining": true}},
	} {
		if _, err := getTargets(args, "budgets"); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("getTargets(%v) = %v, want invalid input", args, err)
		}
	}
}
