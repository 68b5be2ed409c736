package storage_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pagewatch/internal/storage"
)

func intPtr(v int) *int { return &v }

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"http://localhost:8080/health",
		"http://127.0.0.1/",
		"https://sub.example.co.uk",
	}
	for _, raw := range valid {
		t.Run("valid "+raw, func(t *testing.T) {
			if err := storage.ValidateURL(raw); err != nil {
				t.Errorf("Expected %q to be valid, got: %v", raw, err)
			}
		})
	}

	invalidURLs := []string{
		"",
		"example.com",
		"ftp://example.com",
		"https://",
		"https://nodot",
		"https://bad..host.com",
		"https://" + strings.Repeat("a", 2050) + ".com",
	}
	for _, raw := range invalidURLs {
		t.Run("invalid "+raw, func(t *testing.T) {
			if err := storage.ValidateURL(raw); err == nil {
				t.Errorf("Expected %q to be rejected", raw)
			}
		})
	}
}

func TestValidateWebsite(t *testing.T) {
	t.Run("Valid website without base url", func(t *testing.T) {
		w := &storage.Website{UserID: 1, Name: "Example"}
		if err := storage.ValidateWebsite(w); err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("Name longer than 255 fails", func(t *testing.T) {
		w := &storage.Website{UserID: 1, Name: strings.Repeat("x", 256)}
		err := storage.ValidateWebsite(w)
		if !errors.Is(err, storage.ErrInvalid) {
			t.Errorf("Expected ErrInvalid, got: %v", err)
		}
	})

	t.Run("Blank name fails", func(t *testing.T) {
		w := &storage.Website{UserID: 1, Name: "   "}
		if err := storage.ValidateWebsite(w); err == nil {
			t.Error("Expected error for blank name")
		}
	})

	t.Run("Relative base url fails", func(t *testing.T) {
		base := "/relative"
		w := &storage.Website{UserID: 1, Name: "Example", BaseURL: &base}
		if err := storage.ValidateWebsite(w); err == nil {
			t.Error("Expected error for relative base url")
		}
	})
}

func TestValidatePageCheck(t *testing.T) {
	now := time.Now()

	t.Run("Up with code and latency", func(t *testing.T) {
		c := &storage.PageCheck{PageID: 1, WebsiteID: 1, Status: storage.StatusUp,
			StatusCode: intPtr(200), ResponseTimeMs: intPtr(12), CheckedAt: now}
		if err := storage.ValidatePageCheck(c); err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("Down without response", func(t *testing.T) {
		c := &storage.PageCheck{PageID: 1, WebsiteID: 1, Status: storage.StatusDown, CheckedAt: now}
		if err := storage.ValidatePageCheck(c); err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
	})

	t.Run("Code without latency fails", func(t *testing.T) {
		c := &storage.PageCheck{PageID: 1, WebsiteID: 1, Status: storage.StatusDown,
			StatusCode: intPtr(500), CheckedAt: now}
		if err := storage.ValidatePageCheck(c); err == nil {
			t.Error("Expected error for code without latency")
		}
	})

	t.Run("Up without response fails", func(t *testing.T) {
		c := &storage.PageCheck{PageID: 1, WebsiteID: 1, Status: storage.StatusUp, CheckedAt: now}
		if err := storage.ValidatePageCheck(c); err == nil {
			t.Error("Expected error for up check without status code")
		}
	})

	t.Run("Unknown status fails", func(t *testing.T) {
		c := &storage.PageCheck{PageID: 1, WebsiteID: 1, Status: "timeout", CheckedAt: now}
		if err := storage.ValidatePageCheck(c); err == nil {
			t.Error("Expected error for unknown status")
		}
	})
}

func TestValidatePassword(t *testing.T) {
	if err := storage.ValidatePassword("short"); err == nil {
		t.Error("Expected error for short password")
	}
	if err := storage.ValidatePassword(strings.Repeat("p", 73)); err == nil {
		t.Error("Expected error for password over 72 bytes")
	}
	if err := storage.ValidatePassword("correct horse"); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}
