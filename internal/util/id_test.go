package util

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewIDPrefix(t *testing.T) {
	id := NewID("jti")
	if !strings.HasPrefix(id, "jti_") {
		t.Fatalf("expected jti_ prefix, got %q", id)
	}
	if len(NewID("")) != 32 {
		t.Fatalf("expected 32 hex chars")
	}
	if NewID("") == NewID("") {
		t.Fatalf("ids must differ")
	}
}

func TestNewSessionIDFormat(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	id := NewSessionID(now)
	pattern := regexp.MustCompile(`^will_session_1700000000123_[0-9a-z]{9}$`)
	if !pattern.MatchString(id) {
		t.Fatalf("unexpected session id %q", id)
	}
}
