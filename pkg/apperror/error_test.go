package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("gone"), http.StatusNotFound},
		{BadRequest("bad"), http.StatusBadRequest},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Internal("boom", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for i, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("case %d: expected %d, got %d", i, tc.want, got)
		}
	}
}

func TestStatusOf_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("gone"))
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Fatalf("expected 404 through wrapping, got %d", got)
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal("record could not be saved", cause)
	if err.Error() != "record could not be saved: disk full" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
}

func TestValidation_CarriesFields(t *testing.T) {
	fields := map[string][]string{"email": {"email is required"}}
	err := Validation(fields)

	if got := FieldsOf(err); got["email"][0] != "email is required" {
		t.Fatalf("unexpected fields: %v", got)
	}
	if StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", StatusOf(err))
	}
	if FieldsOf(errors.New("plain")) != nil {
		t.Fatalf("expected nil fields for foreign errors")
	}
}
