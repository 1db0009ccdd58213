package config

import (
	"regexp"
	"strings"
)

// secretPatterns match credentials that do not belong in a settings file.
// Tokens are read from the environment or the --token flag instead.
var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{name: "GitHub token", pattern: regexp.MustCompile(`\b(gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})\b`)},
	{name: "access token", pattern: regexp.MustCompile(`(?i)\b(token|auth[_-]?token|access[_-]?token|bearer)\s*=\s*['"][A-Za-z0-9_-]{15,}['"]`)},
}

// SecretFinding is one suspected credential in a settings file.
type SecretFinding struct {
	Kind    string
	Line    int
	Preview string
}

// DetectSecrets scans settings source for hardcoded credentials.
func DetectSecrets(content string) []SecretFinding {
	var findings []SecretFinding

	for i, line := range strings.Split(content, "\n") {
		for _, p := range secretPatterns {
			if p.pattern.MatchString(line) {
				findings = append(findings, SecretFinding{
					Kind:    p.name,
					Line:    i + 1,
					Preview: redactLine(line),
				})
				break
			}
		}
	}

	return findings
}

// redactLine keeps the key of an assignment and hides its value.
func redactLine(line string) string {
	line = strings.TrimSpace(line)
	if eq := strings.Index(line, "="); eq >= 0 {
		return strings.TrimSpace(line[:eq]) + " = [REDACTED]"
	}
	if len(line) > 12 {
		return line[:4] + "... [REDACTED]"
	}
	return "[REDACTED]"
}
