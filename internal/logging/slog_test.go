// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func slogToBuffer() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.DebugLevel)
	handler := &SlogHandler{logger: zl}
	return slog.New(handler), &buf
}

func TestSlogHandlerForwardsToZerolog(t *testing.T) {
	logger, buf := slogToBuffer()

	logger.Info("poller started", slog.String("service", "weather-poller"), slog.Int("interval_min", 30))

	out := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"message":"poller started"`,
		`"service":"weather-poller"`,
		`"interval_min":30`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, `"level":"debug"`},
		{slog.LevelInfo, `"level":"info"`},
		{slog.LevelWarn, `"level":"warn"`},
		{slog.LevelError, `"level":"error"`},
	}
	for _, tt := range tests {
		logger, buf := slogToBuffer()
		logger.Log(t.Context(), tt.level, "msg")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("level %v: output %s, want %s", tt.level, buf.String(), tt.want)
		}
	}
}

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	logger, buf := slogToBuffer()

	logger.With(slog.String("node", "a")).Info("ready")
	logger.WithGroup("supervisor").Info("restart", slog.String("service", "http-server"))

	out := buf.String()
	if !strings.Contains(out, `"node":"a"`) {
		t.Errorf("missing pre-set attr: %s", out)
	}
	if !strings.Contains(out, `"supervisor.service":"http-server"`) {
		t.Errorf("missing grouped attr: %s", out)
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	zl := zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel)
	handler := &SlogHandler{logger: zl}

	if handler.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !handler.Enabled(t.Context(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
