package main

import (
	"bytes"
	"log"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-model/internal/config"
	"github.com/a3tai/mcp-pdf-model/internal/logging"
)

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() { version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit }()

	version = "1.2.3"
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)

	output := buf.String()
	for _, expected := range []string{
		"MCP PDF Model",
		"Version: 1.2.3",
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with: " + runtime.Version(),
	} {
		assert.Contains(t, output, expected)
	}
}

func TestSetupLogging(t *testing.T) {
	oldOutput, oldFlags := log.Writer(), log.Flags()
	oldDefault := logging.Default()
	defer func() {
		log.SetOutput(oldOutput)
		log.SetFlags(oldFlags)
		logging.SetDefault(oldDefault)
	}()

	tests := []struct {
		name      string
		mode      string
		level     string
		wantLevel logging.Level
		wantOut   any
		wantFlags int
	}{
		{name: "stdio quiet", mode: config.ModeStdio, level: "info", wantLevel: logging.InfoLevel, wantFlags: oldFlags},
		{name: "stdio debug", mode: config.ModeStdio, level: "debug", wantLevel: logging.DebugLevel, wantOut: os.Stderr, wantFlags: oldFlags},
		{name: "server", mode: config.ModeServer, level: "warn", wantLevel: logging.WarnLevel, wantOut: os.Stdout, wantFlags: log.LstdFlags | log.Lshortfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.SetFlags(oldFlags)
			cfg := config.DefaultConfig()
			cfg.Mode = tt.mode
			cfg.LogLevel = tt.level

			logger := setupLogging(cfg)
			assert.Equal(t, tt.wantLevel, logger.Level())
			assert.Same(t, logger, logging.Default())
			assert.Equal(t, tt.wantFlags, log.Flags())
			if tt.wantOut != nil {
				assert.Equal(t, tt.wantOut, log.Writer())
			} else {
				assert.NotEqual(t, os.Stdout, log.Writer(), "stdio mode must keep stdout clean")
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.Codec = "ISO-8859-1"

	session, err := newSession(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, cfg.PDFDirectory, session.Directory())
	assert.Empty(t, session.ActivePath())

	cfg.BoxesFlow = 3
	_, err = newSession(cfg, logging.Discard())
	assert.Error(t, err)
}
