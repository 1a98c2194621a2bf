package utils

import (
	"strings"
)

// NormalizePhone canonicalizes a phone number: strips the leading "+" and
// whitespace, and fixes legacy Brazilian numbers delivered without the mobile
// ninth digit (country code 55 + 12 digits gets a "9" inserted after the
// country+area prefix). Normalizing an already-normalized number is a no-op.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "whatsapp:")
	p = strings.TrimPrefix(p, "+")

	if strings.HasPrefix(p, "55") && len(p) == 12 {
		p = p[:4] + "9" + p[4:]
	}
	return p
}
