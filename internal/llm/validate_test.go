package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-verdict",
		Description: "A test verdict object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"feedback":   map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "integer", "minimum": 0},
				"verdict":    map[string]any{"type": "string", "enum": []any{"correct", "partial", "wrong"}},
			},
			"required": []any{"feedback", "confidence"},
		},
	}
}

func TestValidateResponseValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"well reasoned","confidence":4,"verdict":"correct"}`)
	if err := validateResponse(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponseValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"close","confidence":2}`)
	if err := validateResponse(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponseMissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"incomplete"}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponseWrongType(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok","confidence":"high"}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponseInvalidEnum(t *testing.T) {
	raw := json.RawMessage(`{"feedback":"ok","confidence":3,"verdict":"maybe"}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for invalid enum value")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponseMalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponseNilSchemaSkipsValidation(t *testing.T) {
	raw := json.RawMessage(`plain text, not even JSON`)
	if err := validateResponse(nil, raw); err != nil {
		t.Fatalf("expected nil schema to skip validation, got: %v", err)
	}
}

func TestPurposeContextRoundTrip(t *testing.T) {
	ctx := WithPurpose(t.Context(), "evaluation")
	if got := PurposeFrom(ctx); got != "evaluation" {
		t.Fatalf("expected 'evaluation', got %q", got)
	}
	if got := PurposeFrom(t.Context()); got != "unknown" {
		t.Fatalf("expected 'unknown' for bare context, got %q", got)
	}
}
