package logger

import (
	"regexp"
	"strings"
	"time"
)

// botTokenRe matches Bot API tokens: the numeric bot id, a colon and the secret.
var botTokenRe = regexp.MustCompile(`(\d{5,}):[A-Za-z0-9_-]{30,}`)

// RedactTokens masks the secret part of Bot API tokens in s and keeps the bot id.
// Users paste tokens as plain messages, so every logged string passes through it.
func RedactTokens(s string) string {
	if !strings.ContainsRune(s, ':') {
		return s
	}
	return botTokenRe.ReplaceAllString(s, "${1}:<redacted>")
}

// Status maps error to a unified status string for logs.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins up to limit elements and reports whether truncation happened.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}
