package quotes

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusPending, StatusInReview},
		{StatusPending, StatusQuoted},
		{StatusPending, StatusCancelled},
		{StatusInReview, StatusQuoted},
		{StatusInReview, StatusCancelled},
		{StatusQuoted, StatusCompleted},
		{StatusQuoted, StatusCancelled},
	}
	for _, c := range allowed {
		if !CanTransition(c.from, c.to) {
			t.Fatalf("expected %s -> %s to be allowed", c.from, c.to)
		}
	}

	denied := []struct{ from, to string }{
		{StatusPending, StatusCompleted},
		{StatusInReview, StatusPending},
		{StatusInReview, StatusCompleted},
		{StatusQuoted, StatusPending},
		{StatusQuoted, StatusInReview},
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusCompleted},
		{"ARCHIVED", StatusPending},
		{StatusPending, "ARCHIVED"},
	}
	for _, c := range denied {
		if CanTransition(c.from, c.to) {
			t.Fatalf("expected %s -> %s to be rejected", c.from, c.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusCancelled} {
		if !IsTerminalStatus(status) {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	for _, status := range []string{StatusPending, StatusInReview, StatusQuoted} {
		if IsTerminalStatus(status) {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}
