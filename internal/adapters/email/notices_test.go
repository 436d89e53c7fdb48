package email

import (
	"context"
	"strings"
	"testing"
)

// TestEmailChangedNotice verifies both addresses receive the notice.
func TestEmailChangedNotice(t *testing.T) {
	req := EmailChangedNotice("Dr. <b>Evil</b>", "old@clinic.test", "new@clinic.test")
	if len(req.To) != 2 || req.To[0] != "old@clinic.test" || req.To[1] != "new@clinic.test" {
		t.Errorf("To = %v", req.To)
	}
	if !strings.Contains(req.HTML, "old@clinic.test to new@clinic.test") {
		t.Errorf("HTML missing change summary: %s", req.HTML)
	}
	if strings.Contains(req.HTML, "<b>Evil</b>") {
		t.Error("name must be HTML-escaped")
	}
}

// TestNoopSender_RecordsSends verifies sends are captured rather than delivered.
func TestNoopSender_RecordsSends(t *testing.T) {
	s := NewNoopSender()
	if _, err := s.Send(context.Background(), AccountDeletedNotice("Dr. A", "a@clinic.test")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent := s.Sent()
	if len(sent) != 1 || sent[0].Subject != "Your Medibook account was deleted" {
		t.Errorf("Sent = %+v", sent)
	}
}
