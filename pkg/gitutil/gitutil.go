// Package gitutil provides small helpers shared by the git fetcher and
// resolver for working with commit SHAs and classifying transport errors.
package gitutil

import "strings"

// IsAuthError checks if an error message indicates an authentication issue.
// This is used to detect when a git fetch fails due to missing or invalid credentials.
func IsAuthError(errMsg string) bool {
	lowerMsg := strings.ToLower(errMsg)
	return strings.Contains(lowerMsg, "gh_token") ||
		strings.Contains(lowerMsg, "github_token") ||
		strings.Contains(lowerMsg, "authentication") ||
		strings.Contains(lowerMsg, "not logged into") ||
		strings.Contains(lowerMsg, "unauthorized") ||
		strings.Contains(lowerMsg, "forbidden") ||
		strings.Contains(lowerMsg, "permission denied")
}

// IsHexString checks if a string contains only hexadecimal characters.
// This is used to validate git commit SHAs and other hexadecimal identifiers.
func IsHexString(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// IsFullSHA reports whether s looks like a full 40-character git commit SHA,
// as opposed to a short SHA, branch name, or tag.
func IsFullSHA(s string) bool {
	return len(s) == 40 && IsHexString(s)
}
