package pdftext

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"password required", ErrPasswordRequired, MsgPasswordRequired},
		{"wrapped wrong password", fmt.Errorf("abrir: %w", ErrWrongPassword), MsgWrongPassword},
		{"no text", ErrNoText, MsgNoText},
		{"anything else", errors.New("xref"), MsgCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractGarbage(t *testing.T) {
	if _, err := Extract([]byte("definitely not a pdf"), ""); err == nil {
		t.Fatal("expected error for non-pdf input")
	}
}
