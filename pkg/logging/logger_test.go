// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Options{Output: &buf})
		require.NoError(t, err)

		l.Info("imported", "id", "alice", "algorithm", "Ed25519")
		assert.Contains(t, buf.String(), "msg=imported")
		assert.Contains(t, buf.String(), "id=alice")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New(Options{Format: "json", Output: &buf})
		require.NoError(t, err)

		l.With("component", "keystore").Warn("corrupt entry", "id", "bob")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "corrupt entry", rec["msg"])
		assert.Equal(t, "keystore", rec["component"])
		assert.Equal(t, "bob", rec["id"])
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := New(Options{Format: "xml"})
		assert.Error(t, err)
	})
}

func TestDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "info", Output: &buf})
	require.NoError(t, err)
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l, err = New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)
	l.Debug("shown", "n", 1)
	l.Debugf("shown %d", 2)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Output: &buf})
	require.NoError(t, err)

	l.MaybeError(nil)
	assert.Empty(t, buf.String())

	l.Error(errors.New("boom"), "id", "x")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger(true))
	assert.NotNil(t, DefaultLogger())
	assert.NotPanics(t, func() { Discard().Info("dropped") })
}
