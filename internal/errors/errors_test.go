package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSchemaError_Error(t *testing.T) {
	err := New(ErrCategoryValidation, CodeUnknownIndexType, "unknown index type: BOGUS")
	expected := "[VALIDATION:UNKNOWN_INDEX_TYPE] unknown index type: BOGUS"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestSchemaError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("XML syntax error on line 3")
	err := Wrap(ErrCategoryParse, CodeMalformedDump, "dump.xml is not a valid XML file", cause)
	expected := "[PARSE:MALFORMED_DUMP] dump.xml is not a valid XML file: XML syntax error on line 3"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestSchemaError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewParseError(CodeForeignKeyLookup, "foreign key lookup failed", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestSchemaError_Is(t *testing.T) {
	err1 := NewGenerationError(CodeUnresolvedForeignKey, "first")
	err2 := NewGenerationError(CodeUnresolvedForeignKey, "second")
	err3 := NewValidationError(CodeUnknownIndexType, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestCategoryHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		parse      bool
		validation bool
		generation bool
	}{
		{"parse", NewParseError(CodeUnexpectedRoot, "bad root", nil), true, false, false},
		{"validation", NewValidationError(CodeDuplicateName, "dup"), false, true, false},
		{"generation", NewGenerationError(CodeUnresolvedForeignKey, "fk"), false, false, true},
		{"wrapped generation", fmt.Errorf("failed to render: %w", NewGenerationError(CodeUnresolvedForeignKey, "fk")), false, false, true},
		{"plain", fmt.Errorf("plain error"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsParse(tt.err); got != tt.parse {
				t.Errorf("IsParse() = %v, want %v", got, tt.parse)
			}
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
			if got := IsGeneration(tt.err); got != tt.generation {
				t.Errorf("IsGeneration() = %v, want %v", got, tt.generation)
			}
		})
	}
}

func TestGetCategoryAndCode(t *testing.T) {
	err := fmt.Errorf("failed to parse source: %w", NewParseError(CodeUnknownColumn, "no column", nil))
	if GetCategory(err) != ErrCategoryParse {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryParse)
	}
	if GetCode(err) != CodeUnknownColumn {
		t.Errorf("got %q, want %q", GetCode(err), CodeUnknownColumn)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-SchemaError should return empty category")
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-SchemaError should return empty code")
	}
}
