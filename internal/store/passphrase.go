package store

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MinPassphraseLength is the shortest passphrase accepted for sealing.
const MinPassphraseLength = 12

// ErrWeakPassphrase matches every CheckPassphrase failure via errors.Is.
var ErrWeakPassphrase = errors.New("weak passphrase")

// CheckPassphrase applies the sealing policy: at least MinPassphraseLength
// runes drawn from upper case, lower case, digits and symbols.
func CheckPassphrase(passphrase string) error {
	var missing []string
	if n := len([]rune(passphrase)); n < MinPassphraseLength {
		missing = append(missing, fmt.Sprintf("%d more characters", MinPassphraseLength-n))
	}
	classes := []struct {
		name string
		in   func(rune) bool
	}{
		{"an upper case letter", unicode.IsUpper},
		{"a lower case letter", unicode.IsLower},
		{"a digit", unicode.IsDigit},
		{"a symbol", func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }},
	}
	for _, c := range classes {
		if !strings.ContainsFunc(passphrase, c.in) {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: needs %s", ErrWeakPassphrase, strings.Join(missing, ", "))
	}
	return nil
}
