package requestid_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ErlanBelekov/auth-server/internal/requestid"
	"github.com/google/uuid"
)

func TestFromHeader(t *testing.T) {
	valid := uuid.NewString()

	tests := []struct {
		name     string
		in       string
		wantKeep bool
	}{
		{"empty", "", false},
		{"valid uuid", valid, true},
		{"not a uuid", "hello\nforged=1", false},
		{"too long", strings.Repeat("a", 100), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := requestid.FromHeader(tt.in)
			if tt.wantKeep && got != tt.in {
				t.Errorf("FromHeader(%q) = %q, want it kept", tt.in, got)
			}
			if !tt.wantKeep {
				if got == tt.in {
					t.Errorf("FromHeader(%q) should have been replaced", tt.in)
				}
				if _, err := uuid.Parse(got); err != nil {
					t.Errorf("replacement %q is not a uuid", got)
				}
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if got := requestid.FromContext(context.Background()); got != "" {
		t.Errorf("empty context = %q", got)
	}
	ctx := requestid.WithRequestID(context.Background(), "abc")
	if got := requestid.FromContext(ctx); got != "abc" {
		t.Errorf("FromContext = %q, want abc", got)
	}
}
