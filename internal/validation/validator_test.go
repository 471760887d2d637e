// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package validation

import (
	"strings"
	"testing"
)

type recommendRequest struct {
	UserID          string  `validate:"required"`
	Limit           int     `validate:"gte=0,lte=100"`
	DiversityFactor float64 `validate:"gte=0,lte=1"`
	SortOrder       string  `validate:"omitempty,oneof=score popularity"`
}

func TestValidateStructPasses(t *testing.T) {
	req := recommendRequest{
		UserID:          "alice",
		Limit:           20,
		DiversityFactor: 0.3,
		SortOrder:       "score",
	}

	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("ValidateStruct() = %v, want nil", verr)
	}
}

func TestValidateStructSingleError(t *testing.T) {
	req := recommendRequest{Limit: 20}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() should fail for missing UserID")
	}
	if len(verr.Errors()) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(verr.Errors()), verr)
	}

	fieldErr := verr.Errors()[0]
	if fieldErr.Field() != "UserID" || fieldErr.Tag() != "required" {
		t.Errorf("error = %s/%s, want UserID/required", fieldErr.Field(), fieldErr.Tag())
	}
	if fieldErr.Error() != "UserID is required" {
		t.Errorf("message = %q, want %q", fieldErr.Error(), "UserID is required")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "UserID" {
		t.Errorf("Details.field = %v, want UserID", apiErr.Details["field"])
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	req := recommendRequest{
		Limit:           500,
		DiversityFactor: 2,
		SortOrder:       "alphabetical",
	}

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("ValidateStruct() should fail")
	}
	if len(verr.Errors()) != 4 {
		t.Fatalf("got %d errors, want 4: %v", len(verr.Errors()), verr)
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details.fields has unexpected type %T", apiErr.Details["fields"])
	}
	if len(fields) != 4 {
		t.Errorf("Details.fields has %d entries, want 4", len(fields))
	}
	if !strings.Contains(apiErr.Message, "Limit") || !strings.Contains(apiErr.Message, "SortOrder") {
		t.Errorf("combined message %q should name every failed field", apiErr.Message)
	}
}

func TestTranslateErrorMessages(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name: "lte with param",
			input: &struct {
				Lambda float64 `validate:"lte=1"`
			}{Lambda: 1.5},
			want: "Lambda must be less than or equal to 1",
		},
		{
			name: "oneof lists values",
			input: &struct {
				Mode string `validate:"oneof=fast full"`
			}{Mode: "other"},
			want: "Mode must be one of: fast full",
		},
		{
			name: "min on string counts characters",
			input: &struct {
				Name string `validate:"min=3"`
			}{Name: "ab"},
			want: "Name must be at least 3 characters",
		},
		{
			name: "max on number",
			input: &struct {
				Count int `validate:"max=10"`
			}{Count: 11},
			want: "Count must be at most 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("expected validation failure")
			}
			if got := verr.Errors()[0].Error(); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}
