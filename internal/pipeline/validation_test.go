package pipeline

import (
	"testing"

	"github.com/dvloznov/budgetrak/internal/domain"
)

func TestCategoryValidator_ValidateCategory(t *testing.T) {
	validator := NewDefaultCategoryValidator()

	tests := []struct {
		name     string
		category string
		wantErr  bool
	}{
		{name: "exact", category: "Food/Dining", wantErr: false},
		{name: "different case", category: "food/dining", wantErr: false},
		{name: "extra spaces", category: "  Food / Dining  ", wantErr: false},
		{name: "single word", category: "TRAVEL", wantErr: false},
		{name: "unknown", category: "Groceries", wantErr: true},
		{name: "empty", category: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateCategory(tt.category)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCategory() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryValidator_Canonical(t *testing.T) {
	validator := NewDefaultCategoryValidator()

	tests := []struct {
		input string
		want  string
	}{
		{"bills/utilities", domain.CategoryBills},
		{"Rent / Housing", domain.CategoryHousing},
		{"income", domain.CategoryIncome},
		{"Crypto", domain.CategoryOther},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := validator.Canonical(tt.input); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"HOUSING", "HOUSING"},
		{"housing", "HOUSING"},
		{"  Housing  ", "HOUSING"},
		{"Food /  Dining", "FOOD/DINING"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := normalizeCategory(tt.input)
			if got != tt.want {
				t.Errorf("normalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
