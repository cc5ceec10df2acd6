package service

import (
	"fmt"
	"strings"

	"smssignup/internal/utils"
)

// MaxPhoneLength matches the width of the stored phone_number columns.
const MaxPhoneLength = 20

var errPhoneTooLong = fmt.Errorf("%w: phone number longer than %d characters", ErrInvalidInput, MaxPhoneLength)

// CanonicalPhone reduces free-form input to the stored form: digits with a
// leading '+', assuming North America for bare 10 and 11 digit numbers.
// Input that already starts with '+' keeps its digits as given. It does not
// validate the number.
func CanonicalPhone(raw string) string {
	phone := utils.StripPhone(raw)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	// only digits remain, so the length is the digit count
	switch {
	case len(phone) == 11 && phone[0] == '1':
		return "+" + phone
	case len(phone) == 10:
		return "+1" + phone
	default:
		return "+" + phone
	}
}
