package records

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"transport", fmt.Errorf("%w: list Faculty: %w", ErrTransport, context.DeadlineExceeded), "transport"},
		{"status", &StatusError{Collection: "Sessions", Code: 500}, "status"},
		{"wrapped status", fmt.Errorf("refresh: %w", &StatusError{Collection: "Sessions", Code: 401}), "status"},
		{"decode", fmt.Errorf("%w: unexpected EOF", ErrDecode), "decode"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Category(tt.err); got != tt.want {
				t.Errorf("Category() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	err := error(&StatusError{Collection: "Sessions", Code: http.StatusNotFound, Body: "NOT_FOUND"})
	if !errors.Is(err, ErrStatus) {
		t.Error("StatusError should match ErrStatus")
	}
	if !IsNotFound(err) {
		t.Error("404 should be IsNotFound")
	}
	if IsNotFound(&StatusError{Code: 500}) || IsNotFound(ErrTransport) {
		t.Error("only 404 is IsNotFound")
	}
	if err.Error() == "" {
		t.Error("empty message")
	}
}

func TestFetchAndLenient(t *testing.T) {
	ctx := context.Background()
	ok := func(context.Context) ([]string, error) { return []string{"a", "b"}, nil }
	fail := func(context.Context) ([]string, error) { return nil, fmt.Errorf("%w: refused", ErrTransport) }

	if r := Fetch(ctx, ok); r.Failed() || len(r.Records) != 2 {
		t.Errorf("Fetch(ok) = %+v", r)
	}
	r := Fetch(ctx, fail)
	if !r.Failed() || r.Records != nil || Category(r.Err) != "transport" {
		t.Errorf("Fetch(fail) = %+v", r)
	}

	if got := Lenient(ctx, CollectionFaculty, ok); len(got) != 2 {
		t.Errorf("Lenient(ok) len = %d", len(got))
	}
	if got := Lenient(ctx, CollectionFaculty, fail); len(got) != 0 {
		t.Errorf("Lenient(fail) = %v, want empty", got)
	}
}
