package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kallebelins/mvp24hours-go/errors"
)

func TestValidate_Struct(t *testing.T) {
	type settings struct {
		Workers  int    `mapstructure:"workers" validate:"min=1,max=256"`
		Format   string `mapstructure:"format" validate:"oneof=json console"`
		Capacity int    `mapstructure:"capacity" validate:"gte=0"`
	}

	ok := settings{Workers: 4, Format: "json", Capacity: 0}
	if err := Validate(&ok); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}

	bad := settings{Workers: 0, Format: "xml", Capacity: -1}
	err := Validate(&bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("wrong code: %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"workers", "format", "capacity"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing field %q: %s", want, msg)
		}
	}
}

func TestValidate_MapstructureTagNames(t *testing.T) {
	type cfg struct {
		MaxParallel int `mapstructure:"max_parallel" validate:"min=1"`
	}
	err := Validate(&cfg{MaxParallel: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "max_parallel") {
		t.Errorf("expected mapstructure key in message, got %s", err)
	}
}

func TestValidator_Fluent(t *testing.T) {
	err := New().
		Required("name", "payments").
		Range("capacity", 16, 0, 4096).
		Min("workers", 2, 1).
		OneOf("format", "json", []string{"json", "console"}).
		Validate()
	if err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}

func TestValidator_CollectsAllErrors(t *testing.T) {
	v := New().
		Required("name", "  ").
		Max("workers", 500, 256).
		Custom(false, "custom", "check failed")

	if !v.HasErrors() {
		t.Fatal("expected errors")
	}
	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 field errors, got %d", got)
	}
	err := v.Validate()
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("wrong code: %v", err)
	}
}

func TestValidator_RequiredToken(t *testing.T) {
	if err := New().RequiredToken("token", uuid.NewString()).Validate(); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := New().RequiredToken("token", "not-a-uuid").Validate(); err == nil {
		t.Error("invalid token accepted")
	}
	if err := New().RequiredToken("token", uuid.Nil.String()).Validate(); err == nil {
		t.Error("nil token accepted")
	}
}

func TestValidateToken(t *testing.T) {
	want := uuid.New()
	got, err := ValidateToken("token", want.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %s want %s", got, want)
	}

	if _, err := ValidateToken("token", ""); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty token: wrong error %v", err)
	}
}
