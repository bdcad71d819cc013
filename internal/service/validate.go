package service

import (
	"net/mail"
	"strings"
	"time"
)

// validEmail 只校验形如 local@domain
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1
}

// blank 去空格后为空
func blank(s string) bool { return strings.TrimSpace(s) == "" }

func inFuture(t *time.Time, now time.Time) bool {
	return t != nil && t.After(now)
}

func strPtr(s string) *string { return &s }
