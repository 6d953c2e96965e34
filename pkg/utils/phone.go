package utils

import (
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^(\+)(\d{1,3})(\d{3})(\d+)$`)

// MaskPhoneNumber masks a caller number for log output, keeping the
// leading and trailing digits so related log lines stay correlatable.
// Example: +919876543210 -> +919876••3210
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	phone = strings.TrimSpace(phone)

	matches := e164Pattern.FindStringSubmatch(phone)
	if len(matches) == 5 {
		countryCode := matches[2]
		first3 := matches[3]
		lastDigits := matches[4]

		if len(lastDigits) >= 4 {
			last4 := lastDigits[len(lastDigits)-4:]
			masked := strings.Repeat("•", len(lastDigits)-4)
			return "+" + countryCode + first3 + masked + last4
		}
	}

	// Not E.164: mask all but the last 4 characters.
	if len(phone) > 4 {
		masked := strings.Repeat("•", len(phone)-4)
		return masked + phone[len(phone)-4:]
	}

	return strings.Repeat("•", len(phone))
}

// ValidateE164 reports whether phone is in E.164 format.
func ValidateE164(phone string) bool {
	re := regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	return re.MatchString(phone)
}

// NormalizePhone strips formatting characters and, for bare national
// numbers, assumes India (+91). Exotel delivers caller ids in several
// of these shapes.
func NormalizePhone(phone string) string {
	re := regexp.MustCompile(`[^\d+]`)
	cleaned := re.ReplaceAllString(phone, "")

	if !strings.HasPrefix(cleaned, "+") {
		if strings.HasPrefix(cleaned, "91") {
			cleaned = "+" + cleaned
		} else if strings.HasPrefix(cleaned, "0") {
			cleaned = "+91" + cleaned[1:]
		} else {
			cleaned = "+91" + cleaned
		}
	}

	return cleaned
}
