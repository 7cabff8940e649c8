package errors

import (
	"strings"
	"testing"
)

func TestFieldNilError(t *testing.T) {
	if Field("Name", nil, "whatever") != nil {
		t.Fatal("a nil error must stay nil")
	}
	if AppendField(nil, "Name", nil) != nil {
		t.Fatal("appending nothing must stay nil")
	}
}

func TestFieldErrors(t *testing.T) {
	nameErr := Field("Name", ErrEmpty, "required")
	ageErr := Field("Age", ErrInput, "out of range")
	combined := Append(nameErr, ageErr)

	if errs := FieldErrors(combined, "Name"); len(errs) != 1 {
		t.Fatalf("want one Name error, got %d", len(errs))
	} else if !ErrEmpty.Is(errs[0]) {
		t.Fatalf("unexpected Name error: %+v", errs[0])
	}

	if errs := FieldErrors(combined, "Missing"); len(errs) != 0 {
		t.Fatalf("want no Missing errors, got %d", len(errs))
	}
}

func TestFieldErrorsForNestedField(t *testing.T) {
	err := AppendField(nil, "Managers.1", ErrInput)
	if errs := FieldErrors(err, "Managers.1"); len(errs) != 1 {
		t.Fatalf("want one error, got %d", len(errs))
	}
	if errs := FieldErrors(err, "Managers"); len(errs) != 0 {
		t.Fatalf("dot path must not match the parent name, got %d", len(errs))
	}
}

func TestAppendFlattens(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Fatalf("appending nils must be nil, got %+v", err)
	}

	single := ErrInput.New("only one")
	if err := Append(nil, single, nil); err != single {
		t.Fatalf("a single error must be returned as is, got %+v", err)
	}

	inner := Append(ErrEmpty.New("a"), ErrInput.New("b"))
	outer := Append(inner, ErrState.New("c"))
	multi, ok := outer.(*multiError)
	if !ok {
		t.Fatalf("want a multi error, got %T", outer)
	}
	if len(multi.errs) != 3 {
		t.Fatalf("nested multi errors must flatten, got %d members", len(multi.errs))
	}

	// every member can be found by its root
	for _, root := range []*Error{ErrEmpty, ErrInput, ErrState} {
		if !root.Is(outer) {
			t.Fatalf("root %q not matched", root)
		}
	}
}

func TestMultiErrorMessage(t *testing.T) {
	err := Append(ErrEmpty.New("a"), ErrInput.New("b"))
	msg := err.Error()
	if msg == "" {
		t.Fatal("empty message")
	}
	// both member messages must surface
	for _, part := range []string{"a: ", "b: "} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q does not mention %q", msg, part)
		}
	}
}
