// Package formid builds human-readable change-request identifiers in the
// form [ModuleCode][YYYYMMDD][Seq], where Seq is a four digit counter scoped
// to the module code and calendar year.
package formid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TerminalCode is used for requests that target no module (terminal access).
const TerminalCode = "TERM"

// Next derives the identifier following lastID for the given module code.
// lastID is the highest already-issued id with the same code/year prefix, or
// empty when none exists. A malformed trailing sequence restarts at 1; a
// sequence past 9999 fails rather than wrap into a colliding id.
func Next(moduleCode string, now time.Time, lastID string) (string, error) {
	if moduleCode == "" {
		moduleCode = TerminalCode
	}
	seq := 1
	if lastID != "" && len(lastID) > 4 {
		if prev, err := strconv.Atoi(lastID[len(lastID)-4:]); err == nil {
			seq = prev + 1
		}
	}
	if seq > 9999 {
		return "", fmt.Errorf("id sequence for %s in %s is exhausted", moduleCode, now.Format("2006"))
	}
	return fmt.Sprintf("%s%s%04d", moduleCode, now.Format("20060102"), seq), nil
}

// YearPrefix returns the prefix shared by every id issued for the module
// code within now's calendar year; callers use it to locate lastID.
func YearPrefix(moduleCode string, now time.Time) string {
	if moduleCode == "" {
		moduleCode = TerminalCode
	}
	return moduleCode + now.Format("2006")
}

// Matches reports whether id was issued under the supplied year prefix.
func Matches(id, yearPrefix string) bool {
	return strings.HasPrefix(id, yearPrefix)
}
