package logging

import "strings"

const (
	// MaskChar is the character used for masking.
	MaskChar = "*"
	// URLMaskLength is how many characters to show before masking URLs.
	URLMaskLength = 30
)

// MaskURL keeps the scheme and host readable and hides webhook tokens.
func MaskURL(url string) string {
	if len(url) <= URLMaskLength {
		return url
	}
	return url[:URLMaskLength] + strings.Repeat(MaskChar, 3)
}

// MaskSecret hides all but the first four characters of a credential.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat(MaskChar, 3)
	}
	return value[:4] + strings.Repeat(MaskChar, 3)
}
