package storage

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalid wraps every validation failure returned by this package.
var ErrInvalid = errors.New("invalid input")

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ValidateUser validates a User before it is written.
func ValidateUser(user *User) error {
	if user.Email == "" {
		return invalid("email cannot be empty")
	}
	if len(user.Email) > 255 {
		return invalid("email too long (max 255 chars)")
	}
	if !emailRegex.MatchString(user.Email) {
		return invalid("email format is invalid")
	}

	name := strings.TrimSpace(user.Name)
	if name == "" {
		return invalid("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 255 {
		return invalid("name too long (max 255 chars)")
	}

	if user.PasswordHash == "" {
		return invalid("password hash cannot be empty")
	}
	return nil
}

// ValidatePassword checks a plaintext password before hashing.
// bcrypt ignores input past 72 bytes, so longer passwords are rejected.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return invalid("password too short (minimum 8 chars)")
	}
	if len(password) > 72 {
		return invalid("password too long (max 72 bytes)")
	}
	return nil
}

// ValidateWebsite validates a Website before it is written.
func ValidateWebsite(website *Website) error {
	if website.UserID == 0 {
		return invalid("website owner cannot be empty")
	}

	name := strings.TrimSpace(website.Name)
	if name == "" {
		return invalid("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 255 {
		return invalid("name too long (max 255 chars)")
	}

	if website.BaseURL != nil && *website.BaseURL != "" {
		if err := ValidateURL(*website.BaseURL); err != nil {
			return invalid("base_url: %v", err)
		}
	}
	return nil
}

// ValidatePage validates a Page before it is written.
func ValidatePage(page *Page) error {
	if page.WebsiteID == 0 {
		return invalid("website id cannot be empty")
	}
	if err := ValidateURL(page.URL); err != nil {
		return invalid("url: %v", err)
	}
	return nil
}

// ValidatePageCheck enforces the shape of a check row: a known status, and
// status code and response time either both present or both absent.
func ValidatePageCheck(check *PageCheck) error {
	if check.PageID == 0 {
		return invalid("page id cannot be empty")
	}
	if check.WebsiteID == 0 {
		return invalid("website id cannot be empty")
	}
	if !IsValidStatus(check.Status) {
		return invalid("unknown status: %s", check.Status)
	}
	if (check.StatusCode == nil) != (check.ResponseTimeMs == nil) {
		return invalid("status code and response time must be set together")
	}
	if check.StatusCode == nil && check.Status == StatusUp {
		return invalid("an up check must carry a status code")
	}
	if check.CheckedAt.IsZero() {
		return invalid("checked_at cannot be empty")
	}
	return nil
}

// IsValidStatus reports whether status is a known check outcome.
func IsValidStatus(status string) bool {
	return status == StatusUp || status == StatusDown
}

// ValidateURL accepts absolute http and https URLs with a plausible host.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("cannot be empty")
	}
	if len(raw) > 2048 {
		return fmt.Errorf("too long (max 2048 chars)")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid scheme %q (only http and https supported)", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("missing host")
	}
	if len(host) > 253 {
		return fmt.Errorf("hostname too long")
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}

	if !strings.Contains(host, ".") {
		return fmt.Errorf("invalid hostname")
	}
	if strings.Contains(host, "..") ||
		strings.HasPrefix(host, ".") ||
		strings.HasSuffix(host, ".") {
		return fmt.Errorf("invalid hostname format")
	}
	return nil
}
