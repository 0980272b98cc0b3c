package domain

import "strings"

// NormalizePhone canonicalizes a patient phone number to bare digits so the
// same patient always resolves to the same record. International prefixes in
// the +82 form are folded back to the domestic leading zero
// ("+82-10-1234-5678" and "010-1234-5678" normalize identically).
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "82") && len(digits) > 9 {
		digits = "0" + digits[2:]
	}
	return digits
}
