package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/mdstream/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"", log.InfoLevel, false},
		{"INFO", log.InfoLevel, false},
		{"warning", log.WarnLevel, false},
		{" error ", log.ErrorLevel, false},
		{"loud", log.InfoLevel, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tc.in)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewWriterFiltersByLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", logging.FieldInput, "a.md")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "a.md")
}

func TestContextLogger(t *testing.T) {
	t.Parallel()
	logger := logging.NewWriter(&bytes.Buffer{}, "debug")
	ctx := logging.WithLogger(context.Background(), logger)
	assert.Same(t, logger, logging.FromContext(ctx))
	assert.NotNil(t, logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is part of the contract
	assert.NotNil(t, logging.FromContext(nil))
}

func TestSetDefaultAndLevel(t *testing.T) {
	// Mutates the process default.
	original := logging.Default()
	defer logging.SetDefault(original)

	logger := logging.NewWriter(&bytes.Buffer{}, "info")
	logging.SetDefault(logger)
	require.Same(t, logger, logging.Default())

	logging.SetLevel("debug")
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	logging.SetLevel("bogus")
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
}
