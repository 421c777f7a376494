// Package logparse holds reusable recognizers for common log line fields.
package logparse

import "strings"

// SeverityPattern finds the first severity word in a line. Group 1 is the
// word as written.
const SeverityPattern = `(?i)\b(TRACE|DEBUG|INFO|NOTICE|WARN|WARNING|ERROR|FATAL|CRITICAL|PANIC)\b`

var severityAliases = map[string]string{
	"TRACE": "TRACE", "TRAC": "TRACE", "TRC": "TRACE",
	"DEBUG": "DEBUG", "DEBU": "DEBUG", "DBG": "DEBUG", "DEB": "DEBUG",
	"INFO": "INFO", "INFORMATION": "INFO", "INF": "INFO", "NOTICE": "INFO",
	"WARN": "WARN", "WARNING": "WARN", "WRNG": "WARN", "WRN": "WARN",
	"ERROR": "ERROR", "ERR": "ERROR", "ERRO": "ERROR",
	"FATAL": "FATAL", "FATL": "FATAL", "FTL": "FATAL",
	"CRITICAL": "FATAL", "CRIT": "FATAL", "CRT": "FATAL",
	"PANIC": "FATAL", "PNC": "FATAL",
}

var severityPrefixes = []struct {
	prefix string
	level  string
}{
	{"INFO", "INFO"},
	{"WARN", "WARN"},
	{"ERRO", "ERROR"},
	{"DEBU", "DEBUG"},
	{"TRAC", "TRACE"},
	{"FATA", "FATAL"},
	{"CRIT", "FATAL"},
}

// NormalizeSeverity folds the many spellings of a severity onto one of
// TRACE, DEBUG, INFO, WARN, ERROR or FATAL. Anything it does not recognize
// comes back trimmed and upper-cased.
func NormalizeSeverity(severity string) string {
	normalized := strings.ToUpper(strings.TrimSpace(severity))
	if level, ok := severityAliases[normalized]; ok {
		return level
	}
	for _, p := range severityPrefixes {
		if strings.HasPrefix(normalized, p.prefix) {
			return p.level
		}
	}
	return normalized
}
