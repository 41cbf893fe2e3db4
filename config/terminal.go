package config

import "strings"

// DetectTruecolor reports whether the environment advertises 24-bit color:
// COLORTERM of truecolor or 24bit, a TERM naming truecolor, 24bit or
// direct, or a Windows Terminal session.
func DetectTruecolor(getenv func(string) string) bool {
	switch strings.ToLower(getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return true
	}

	term := strings.ToLower(getenv("TERM"))
	for _, s := range []string{"truecolor", "24bit", "direct"} {
		if strings.Contains(term, s) {
			return true
		}
	}

	return getenv("WT_SESSION") != ""
}
