package driver

import (
	"strconv"
	"strings"
)

// NewerAvailable reports whether latest is a higher dotted version than
// installed. An empty installed version always counts as outdated.
func NewerAvailable(installed, latest string) bool {
	installedParts := versionParts(installed)
	latestParts := versionParts(latest)
	if len(installedParts) == 0 {
		return len(latestParts) > 0
	}

	for len(installedParts) < len(latestParts) {
		installedParts = append(installedParts, 0)
	}
	for len(latestParts) < len(installedParts) {
		latestParts = append(latestParts, 0)
	}

	for i := range latestParts {
		if latestParts[i] > installedParts[i] {
			return true
		} else if latestParts[i] < installedParts[i] {
			return false
		}
	}
	return false
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v = strings.Split(strings.Split(v, "-")[0], "+")[0]
	if v == "" {
		return nil
	}

	var parts []int
	for _, p := range strings.Split(v, ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}
