package respond

import "regexp"

// dbPasswordPattern masks a password embedded in a DSN-shaped error message
// (e.g. a postgres connection error that echoes its own connection string).
var dbPasswordPattern = regexp.MustCompile(`://([^:]+):([^@]+)@`)

// SanitizeError returns an error's message with embedded credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return dbPasswordPattern.ReplaceAllString(err.Error(), "://$1:****@")
}
