package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/sermonrefs/core/scripture"
)

// Submatch indexes into the combined pattern.
const (
	groupBook = 1 + iota
	groupPeriod
	groupChapter
	groupVerse
	groupRangeA // end verse, or end chapter when groupRangeB is set
	groupRangeB // end verse of a cross-chapter range
)

// ambiguousAliases are aliases that are also common English words or
// syllables. Without a trailing period they only count when a verse follows
// ("Is 53:5" but not "is 3").
var ambiguousAliases = map[string]bool{
	"ac": true, "am": true, "da": true, "ep": true, "es": true,
	"ga": true, "he": true, "ho": true, "is": true, "ja": true,
	"la": true, "mi": true, "na": true, "ne": true, "ob": true,
	"pr": true, "re": true, "so": true, "ti": true,
}

// suffixPattern matches what follows a book name:
// C, C:V, C:V-EV or C:V-EC:EV.
const suffixPattern = `(\.)?\s*(\d+)(?::(\d+)(?:\s*[-–—]\s*(\d+)(?::(\d+))?)?)?`

// buildPattern compiles every name the canon knows into one alternation,
// longest first so that "1 John" wins over "John" and "Song of Songs" over "Song".
func buildPattern(canon *scripture.Canon) *regexp.Regexp {
	type alt struct {
		key  string // normalized, for ordering
		expr string
	}

	seen := make(map[string]bool)
	var alts []alt
	for _, e := range canon.Names() {
		expr := aliasExpr(e.Name)
		if expr == "" || seen[expr] {
			continue
		}
		seen[expr] = true
		alts = append(alts, alt{key: compact(e.Name), expr: expr})
	}

	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i].key) != len(alts[j].key) {
			return len(alts[i].key) > len(alts[j].key)
		}
		return alts[i].key < alts[j].key
	})

	exprs := make([]string, len(alts))
	for i, a := range alts {
		exprs[i] = a.expr
	}

	return regexp.MustCompile(`(?i)\b(` + strings.Join(exprs, "|") + `)` + suffixPattern)
}

// aliasExpr turns "1 cor" into `1\.?\s*cor`: every word break, and the break
// between an ordinal digit and the name, accepts an optional period and any
// amount of whitespace. A trailing period is handled by the suffix pattern.
func aliasExpr(alias string) string {
	parts := splitAlias(strings.TrimRight(strings.TrimSpace(alias), "."))
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = regexp.QuoteMeta(strings.TrimRight(p, "."))
	}
	return strings.Join(quoted, `\.?\s*`)
}

// splitAlias splits on whitespace and on digit→letter transitions,
// keeping ordinal suffixes ("1st", "2nd") attached to their digit.
func splitAlias(alias string) []string {
	var parts []string
	for _, field := range strings.Fields(alias) {
		parts = append(parts, splitDigits(field)...)
	}
	return parts
}

func splitDigits(field string) []string {
	r := []rune(field)
	for i := 1; i < len(r); i++ {
		if !unicode.IsDigit(r[i-1]) || !unicode.IsLetter(r[i]) {
			continue
		}
		if isOrdinalSuffix(string(r[i:])) {
			return []string{field}
		}
		return append([]string{string(r[:i])}, splitDigits(string(r[i:]))...)
	}
	return []string{field}
}

func isOrdinalSuffix(s string) bool {
	switch strings.ToLower(s) {
	case "st", "nd", "rd", "th":
		return true
	}
	return false
}

// compact lowercases s and strips whitespace and periods.
func compact(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || r == '.' {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
