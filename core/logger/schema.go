package logger

import "strings"

// outcomes is the closed set of values accepted for the "outcome" field.
// Anything else is dropped from the line.
var outcomes = map[string]struct{}{
	"ok":      {},
	"fail":    {},
	"valid":   {},
	"invalid": {},
}

// normalizeLevel maps slog level names to the upper-case names written out,
// folding "warning" into WARN.
func normalizeLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	switch level {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	}
	return level
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := outcomes[outcome]
	return outcome, ok
}

// defaultKeyOrder puts correlation fields first, then the update, the
// conversation, the result and finally errors. Keys not listed follow in
// alphabetical order.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"state",
	"next_state",
	"event_kind",
	"update_kind",
	"command",
	"action",
	"cb_key",
	"user_status",
	"owner_id",
	"bot_id",
	"bot_username",
	"outcome",
	"duration_ms",
	"messages",
	"edits",
	"kb",
	"payload",
	"lang",
	"username",
	"driver",
	"path",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"err",
	"err_code",
	"error_code",
	"cause",
	"attempts",
}
