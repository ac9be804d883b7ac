// SPDX-License-Identifier: MIT

package setlist

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderHMS renders an offset as "H:MM:SS" from one hour upward, "M:SS"
// below. This is the catalog's タイムスタンプ column format.
func RenderHMS(offsetS int) string {
	if offsetS < 0 {
		offsetS = 0
	}
	if offsetS >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", offsetS/3600, offsetS%3600/60, offsetS%60)
	}
	return fmt.Sprintf("%d:%02d", offsetS/60, offsetS%60)
}

// ParseHMS parses "H:MM:SS" or "M:SS" back to seconds. Inverse of RenderHMS
// for any offset in [0, 86399].
func ParseHMS(s string) (int, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || m < 0 || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("malformed timestamp %q", s)
		}
		return m*60 + sec, nil
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || m > 59 || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("malformed timestamp %q", s)
		}
		return h*3600 + m*60 + sec, nil
	default:
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
}
