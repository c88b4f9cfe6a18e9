package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{name: "nil", cb: nil},
		{name: "routed", cb: &tele.Callback{Unique: "pay_for_user_bot", Data: "x"}, key: "pay_for_user_bot", payload: "x"},
		{name: "encoded unique only", cb: &tele.Callback{Data: "\fgamma_bot"}, key: "gamma_bot"},
		{name: "encoded with payload", cb: &tele.Callback{Data: "\fdelete_user_bot|42"}, key: "delete_user_bot", payload: "42"},
		{name: "plain data", cb: &tele.Callback{Data: "legacy"}, key: "legacy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.payload, payload)
		})
	}
}
