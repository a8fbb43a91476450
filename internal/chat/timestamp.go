package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KST is the fixed local zone all user-entered times are interpreted in.
var KST = time.FixedZone("KST", 9*60*60)

// Five space-separated 2-4 digit groups at the very end of the text:
// year month day hour minute.
var trailingClockRe = regexp.MustCompile(`(?:^|\s)(\d{2,4})\s+(\d{2,4})\s+(\d{2,4})\s+(\d{2,4})\s+(\d{2,4})\s*$`)

// ExtractTrailingTimestamp detects a trailing numeric clock token in
// free text. On a hit it returns the text with the token stripped and a
// "YYYY-MM-DD HH:MM KST" rendering. Numbers that merely appear inside
// the text, or groups that do not form a real calendar time, leave the
// input untouched.
func ExtractTrailingTimestamp(text string) (cleaned string, stamp string, ok bool) {
	m := trailingClockRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text, "", false
	}

	parts := make([]int, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.Atoi(text[m[2+2*i]:m[3+2*i]])
		if err != nil {
			return text, "", false
		}
		parts[i] = v
	}
	year, month, day, hour, minute := parts[0], parts[1], parts[2], parts[3], parts[4]

	// time.Date normalizes out-of-range components (month 13 becomes
	// January next year), so round-trip the fields to reject those.
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, KST)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute {
		return text, "", false
	}

	cleaned = strings.TrimRight(text[:m[0]], " \t")
	stamp = fmt.Sprintf("%04d-%02d-%02d %02d:%02d KST", year, month, day, hour, minute)
	return cleaned, stamp, true
}
