package validator

import (
	"errors"
	"strings"
	"testing"

	"anoa.com/photoshare/pkg/apperror"
)

type commentInput struct {
	Text string `validate:"required,max=10"`
}

func TestStructReportsReadableMessage(t *testing.T) {
	err := Struct(commentInput{})
	if err == nil {
		t.Fatal("expected validation error for empty text")
	}
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err.Error() != "Text is required" {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = Struct(commentInput{Text: strings.Repeat("a", 11)})
	if err == nil || err.Error() != "Text must be at most 10 characters" {
		t.Errorf("unexpected max error %v", err)
	}

	if err := Struct(commentInput{Text: "ok"}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}
