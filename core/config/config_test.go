package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEnvOverridesToken(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: from-file\n  owner_id: 7\n")
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Telegram.OwnerID)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestLoadMissingTokenIsFatal(t *testing.T) {
	path := writeConfig(t, "telegram:\n  run_mode: longpoll\n")
	t.Setenv("BOT_TOKEN", "")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		mode    string
	}{
		{name: "polling alias", cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}, mode: RunModeLongpoll},
		{name: "webhook without url", cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}, wantErr: true},
		{
			name: "webhook complete",
			cfg: Config{
				Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
				Webhook:  WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443},
			},
			mode: RunModeWebhook,
		},
		{name: "unknown mode", cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}}, wantErr: true},
		{
			name:    "bad rate limit exclusion",
			cfg:     Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline"}}},
			wantErr: true,
		},
		{name: "negative owner", cfg: Config{Telegram: TelegramConfig{Token: "t", OwnerID: -1}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := Normalize(&cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, cfg.Telegram.RunMode)
		})
	}
}
