// SPDX-License-Identifier: MIT

package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISODuration converts the platform's ISO-8601 duration strings
// (e.g. "PT1H23M45S", "P1DT2H") to whole seconds. Weeks, months and years
// do not occur in video durations and are rejected.
func ParseISODuration(s string) (int, error) {
	orig := s
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid ISO duration %q", orig)
	}
	s = s[1:]

	datePart := s
	timePart := ""
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	}

	total := 0
	if datePart != "" {
		n, rest, err := takeNumber(datePart)
		if err != nil || rest != "D" {
			return 0, fmt.Errorf("invalid ISO duration %q", orig)
		}
		total += n * 86400
	}

	units := []struct {
		suffix byte
		secs   int
	}{{'H', 3600}, {'M', 60}, {'S', 1}}

	for _, u := range units {
		if timePart == "" {
			break
		}
		i := strings.IndexByte(timePart, u.suffix)
		if i < 0 {
			continue
		}
		n, err := strconv.Atoi(timePart[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO duration %q", orig)
		}
		total += n * u.secs
		timePart = timePart[i+1:]
	}
	if timePart != "" {
		return 0, fmt.Errorf("invalid ISO duration %q", orig)
	}
	return total, nil
}

func takeNumber(s string) (int, string, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("no digits")
	}
	n, err := strconv.Atoi(s[:i])
	return n, s[i:], err
}
