package validate

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manav03panchal/timeblock/internal/errors"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Stand-up", "Stand-up"},
		{"trimmed", "  Lunch  ", "Lunch"},
		{"newlines", "Deep\nwork\r\nblock", "Deep work block"},
		{"tabs", "Gym\tsession", "Gym session"},
		{"control", "Read\x00ing\x07", "Reading"},
		{"unicode", "読書 📚", "読書 📚"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeLabel(tt.input))
		})
	}
}

func TestSanitizeLabelLength(t *testing.T) {
	long := strings.Repeat("é", MaxLabelLength+50)
	got := SanitizeLabel(long)
	assert.Equal(t, MaxLabelLength, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/webhook", false},
		{"https_with_port", "https://example.com:8080/webhook", false},
		{"localhost_http", "http://localhost/webhook", false},
		{"localhost_127", "http://127.0.0.1:9999/webhook", false},
		{"localhost_ipv6", "http://[::1]/webhook", false},

		{"empty", "", true},
		{"http_non_localhost", "http://example.com/webhook", true},
		{"ftp_scheme", "ftp://example.com/file", true},
		{"no_scheme", "example.com/webhook", true},
		{"missing_host", "https:///path", true},
		{"too_long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
		{"internal_10", "https://10.0.0.1/webhook", true},
		{"internal_172", "https://172.16.0.1/webhook", true},
		{"internal_192", "https://192.168.1.1/webhook", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := URL(tt.url)
			if tt.wantErr {
				assert.Error(t, err, "URL: %s", tt.url)
				assert.True(t, errors.IsUserError(err))
			} else {
				assert.NoError(t, err, "URL: %s", tt.url)
			}
		})
	}
}

func TestIsInternalIP(t *testing.T) {
	tests := []struct {
		ip       string
		internal bool
	}{
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.0.1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2606:4700:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("invalid IP: %s", tt.ip)
			}
			assert.Equal(t, tt.internal, isInternalIP(ip))
		})
	}
}

func TestInRange(t *testing.T) {
	assert.NoError(t, InRange("days", 1, 1, 62))
	assert.NoError(t, InRange("days", 62, 1, 62))

	err := InRange("days", 63, 1, 62)
	assert.Error(t, err)
	assert.True(t, errors.IsUserError(err))
	assert.Contains(t, err.Error(), "between 1 and 62")

	assert.Error(t, InRange("days", 0, 1, 62))
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "Hello\nWorld", StripControlChars("Hello\nWorld"))
	assert.Equal(t, "Hello\tWorld", StripControlChars("Hello\tWorld"))
	assert.Equal(t, "HelloWorld", StripControlChars("Hello\x00World"))
	assert.Equal(t, "HelloWorld", StripControlChars("Hello\x07World"))
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short", "Hello", 10, "Hello"},
		{"exact", "Hello", 5, "Hello"},
		{"truncate", "Hello World", 8, "Hello..."},
		{"very_short_limit", "Hello", 3, "Hel"},
		{"runes", "日本語のテキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateString(tt.input, tt.maxLen))
		})
	}
}
