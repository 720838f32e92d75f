package errors

import (
	"testing"
)

func TestSentinelWrappingPreservesClass(t *testing.T) {
	err := Wrap(ErrJobQuery, "poll tick 3")
	err = Wrap(err, "watch job abc")

	if !Is(err, ErrJobQuery) {
		t.Fatalf("wrapped error lost ErrJobQuery class: %v", err)
	}
	if Is(err, ErrJobCreation) {
		t.Fatalf("error matched unrelated sentinel: %v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", New("boom"), false},
		{"entry not found", NewNotFound("entry %s", "e-1"), true},
		{"job not found", Wrap(ErrJobNotFound, "registry"), true},
	}
	for _, tc := range cases {
		if got := IsNotFound(tc.err); got != tc.want {
			t.Errorf("%s: IsNotFound = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewNotFoundMessage(t *testing.T) {
	err := NewNotFound("entry %s", "e-42")
	if err.Error() == "" {
		t.Fatal("empty message")
	}
	if !Is(err, ErrNotFound) {
		t.Fatalf("NewNotFound did not wrap ErrNotFound: %v", err)
	}
}
