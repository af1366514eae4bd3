package logging

import "strings"

// MaskEmail hides most of the local part of an email address so it can be
// logged: "jane.doe@x.com" becomes "j***@x.com". Values without "@" are
// masked entirely.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
