package internal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koopa0/system-design/14-card-duel/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp 切換到空的暫存目錄，避免讀到工作目錄下的 .env
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

// clearEnv 清除會影響配置的環境變數
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "LIVENESS_INTERVAL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

// TestConfig_DefaultValues 測試配置的預設值
func TestConfig_DefaultValues(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := internal.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/ws", cfg.Server.WSPath)
	assert.Equal(t, 10*1024, cfg.Server.MaxMessageSize)
	assert.Equal(t, 30*time.Second, cfg.Liveness.Interval)
	assert.Equal(t, internal.DefaultCards, cfg.Game.Cards)
	assert.Equal(t, internal.DefaultWinningCard, cfg.Game.WinningCard)
	assert.Len(t, cfg.Game.StarterHand, 4)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Addr())
}

// TestConfig_YAMLFile 測試從 YAML 檔案載入
func TestConfig_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)

	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  ws_path: /play
liveness:
  interval: 5s
game:
  cards: ["a", "b", "boss"]
  winning_card: boss
  starter_hand: ["x"]
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := internal.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/play", cfg.Server.WSPath)
	assert.Equal(t, 5*time.Second, cfg.Liveness.Interval)
	assert.Equal(t, []string{"a", "b", "boss"}, cfg.Game.Cards)
	assert.Equal(t, "boss", cfg.Game.WinningCard)
	assert.Equal(t, []string{"x"}, cfg.Game.StarterHand)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, internal.DefaultMaxMessageSize, cfg.Server.MaxMessageSize, "unset keys keep defaults")
}

// TestConfig_EnvOverrides 環境變數覆蓋檔案設定
func TestConfig_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("LIVENESS_INTERVAL", "1m")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := internal.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Liveness.Interval)
	assert.Equal(t, "warn", cfg.Log.Level)
}

// TestConfig_DotEnv .env 檔案提供環境變數
func TestConfig_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)
	require.NoError(t, os.Unsetenv("PORT"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=6060\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PORT") })

	cfg, err := internal.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

// TestConfig_Errors 測試無效配置
func TestConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "non numeric port", env: map[string]string{"PORT": "abc"}},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "bad interval", env: map[string]string{"LIVENESS_INTERVAL": "soon"}},
		{name: "negative interval", yaml: "liveness:\n  interval: -1s\n"},
		{name: "winning card missing", yaml: "game:\n  cards: [a, b]\n  winning_card: c\n"},
		{name: "bad ws path", yaml: "server:\n  ws_path: ws\n"},
		{name: "tiny message cap", yaml: "server:\n  max_message_size: 8\n"},
		{name: "malformed yaml", yaml: "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdirTemp(t)
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.yaml != "" {
				path = filepath.Join(dir, "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			}

			_, err := internal.LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

// TestConfig_MissingFile 指定的配置檔不存在
func TestConfig_MissingFile(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	_, err := internal.LoadConfig("does-not-exist.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
