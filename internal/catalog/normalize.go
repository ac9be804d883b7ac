// SPDX-License-Identifier: MIT

package catalog

import (
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// normalizeTransform folds full-width forms to their ASCII counterparts and
// applies NFKC so visually identical titles compare equal.
var normalizeTransform = transform.Chain(width.Fold, norm.NFKC)

// NormalizeTitle produces the search key stored in the 検索用 column:
// width-folded, NFKC-normalized, lowercased, whitespace collapsed.
// "ＹＯＡＳＯＢＩ　夜に駆ける" and "yoasobi 夜に駆ける" normalize identically.
func NormalizeTitle(s string) string {
	folded, _, err := transform.String(normalizeTransform, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the input.
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}
