package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
name = "Teos"
world_id = 3

[network]
tick_rate = "50ms"

[world]
command_prefix = "/"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Teos", cfg.Server.Name)
	assert.Equal(t, uint32(3), cfg.Server.WorldID)
	assert.Equal(t, 50*time.Millisecond, cfg.Network.TickRate)
	assert.Equal(t, "/", cfg.World.CommandPrefix)

	// untouched keys keep their defaults
	def := Default()
	assert.Equal(t, def.Network.BindAddress, cfg.Network.BindAddress)
	assert.Equal(t, def.World.MapDir, cfg.World.MapDir)
	assert.Equal(t, def.Logging, cfg.Logging)
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero tick":   "[network]\ntick_rate = \"0s\"\n",
		"long prefix": "[world]\ncommand_prefix = \"##\"\n",
		"tiny frame":  "[network]\nmax_frame_size = 2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nname = "))
	require.Error(t, err)
}
