// Package plate normalizes and validates Chinese vehicle license plates
// following the GA 36-2018 standard.  Every plate entering the system goes
// through Normalize before lookups and through Validate before a record may
// reference it; malformed plates are rejected, never stored.
package plate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPlate is wrapped by every validation failure.
var ErrInvalidPlate = errors.New("invalid license plate")

// provinceAbbreviations holds the single-character province prefixes,
// including the consulate plates 使 and 领.
const provinceAbbreviations = "京津沪渝冀豫云辽黑湘皖鲁新苏浙赣鄂桂甘晋蒙陕吉闽贵粤青藏川宁琼使领"

// cityCodes are the city designators A-Z excluding the ambiguous I and O.
const cityCodes = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// platePattern covers standard plates (5-character serial), new-energy
// small vehicles (D/F + 5 characters), new-energy large vehicles (4
// characters + D/F) and the optional trailer/driver-school/police/HK/Macau
// suffix.
var platePattern = regexp.MustCompile(
	`^[` + provinceAbbreviations + `]` +
		`[A-HJ-NP-Z]` +
		`(?:` +
		`[A-HJ-NP-Z0-9]{5}` +
		`|[DF][A-HJ-NP-Z0-9]{5}` +
		`|[A-HJ-NP-Z0-9]{4}[DF]` +
		`)` +
		`[挂学警港澳]?$`)

// Normalize uppercases and trims a raw plate string.  It performs no
// validation; pass the result to Validate before trusting it.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate checks a normalized plate against the GA 36-2018 grammar.  The
// returned error wraps ErrInvalidPlate with the first rule that failed.
func Validate(normalized string) error {
	if normalized == "" {
		return fmt.Errorf("%w: plate must not be empty", ErrInvalidPlate)
	}
	runes := []rune(normalized)
	// Standard plates are 7 runes, new-energy 8, suffixed plates up to 9.
	if len(runes) < 7 || len(runes) > 9 {
		return fmt.Errorf("%w: %s has %d characters, want 7-9", ErrInvalidPlate, normalized, len(runes))
	}
	if !strings.ContainsRune(provinceAbbreviations, runes[0]) {
		return fmt.Errorf("%w: unknown province abbreviation %q", ErrInvalidPlate, string(runes[0]))
	}
	if !strings.ContainsRune(cityCodes, runes[1]) {
		return fmt.Errorf("%w: invalid city code %q (I and O are not used)", ErrInvalidPlate, string(runes[1]))
	}
	if !platePattern.MatchString(normalized) {
		return fmt.Errorf("%w: %s does not match the plate grammar", ErrInvalidPlate, normalized)
	}
	return nil
}
