package indexnum

import (
	"fmt"
	"strings"
)

// Index numbers follow the format {ORG}/{LEVEL}/{YY}/{SEQ}, e.g.
// SCH/JHS/26/0001. LEVEL is the first three letters of the class level
// uppercased, YY the last two digits of the first year in the academic year
// name ("2026/2027" -> "26"), SEQ a zero-padded per-(year, level) ordinal.

const levelWidth = 3

// LevelCode derives the fixed-width uppercase level prefix from a class level
// label such as "JHS" or "Primary".
func LevelCode(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if len(level) > levelWidth {
		return level[:levelWidth]
	}
	return level
}

// YearSuffix derives the two-digit year from an academic year name like
// "2026/2027". A name without a slash is treated as a single year label.
func YearSuffix(yearName string) string {
	first := strings.SplitN(strings.TrimSpace(yearName), "/", 2)[0]
	if len(first) > 2 {
		return first[len(first)-2:]
	}
	return first
}

// Prefix builds the static part of an index number for an organization, class
// level and academic year name.
func Prefix(orgCode, level, yearName string) string {
	return fmt.Sprintf("%s/%s/%s", orgCode, LevelCode(level), YearSuffix(yearName))
}

// Format appends the zero-padded sequence to a prefix built by Prefix.
func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s/%04d", prefix, seq)
}
