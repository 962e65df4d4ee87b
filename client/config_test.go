package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Missing_File_Uses_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))

	req.NoError(err)
	req.Equal("localhost:12345", cfg.Endpoint())
	req.Equal("Downloads", cfg.DownloadDir)
	req.Equal(30*time.Second, cfg.IOTimeout)
}

func TestLoadConfig_File_Then_Environment(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	content := "server_address = \"chat.lan\"\nserver_port = 4000\nio_timeout = \"5s\"\ncolors = false\n"
	req.NoError(os.WriteFile(path, []byte(content), 0o644))

	// Given the environment overrides the port only
	t.Setenv("CHAT_SERVER_PORT", "4100")

	cfg, err := LoadConfig(path)

	// Then the file sets what the environment leaves alone
	req.NoError(err)
	req.Equal("chat.lan:4100", cfg.Endpoint())
	req.Equal(5*time.Second, cfg.IOTimeout)
	req.False(cfg.Colors)
	req.Equal("Downloads", cfg.DownloadDir)
}

func TestLoadConfig_Invalid_File(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	req.NoError(os.WriteFile(path, []byte("server_port = 0\n"), 0o644))

	_, err := LoadConfig(path)

	req.Error(err)
}
