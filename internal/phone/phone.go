package phone

import (
	"fmt"
	"strings"

	gatepass_errors "gatepass/pkg/errors"
)

// defaultCountryCode is applied to bare 10-digit numbers, which are assumed
// to be domestic.
const defaultCountryCode = "91"

const (
	minDigits = 8
	maxDigits = 15
)

// Normalize converts a raw phone input into E.164 form.
//
// Non-digit characters are stripped. The resulting digit count must be in
// [8,15]. If the input carried a leading "+" the digits are kept as-is;
// otherwise a 10-digit number gets the default country code and anything
// else a bare "+" prefix.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s", gatepass_errors.ErrInvalidInput, gatepass_errors.MsgMissingPhoneNumber)
	}

	hadPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	if len(d) < minDigits || len(d) > maxDigits {
		return "", fmt.Errorf("%w: %s", gatepass_errors.ErrInvalidInput, gatepass_errors.MsgInvalidPhoneNumber)
	}

	if hadPlus {
		return "+" + d, nil
	}
	if len(d) == 10 {
		return "+" + defaultCountryCode + d, nil
	}
	return "+" + d, nil
}

// ValidationMessage extracts the human-readable reason from a Normalize
// error for synchronous enqueue responses.
func ValidationMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
