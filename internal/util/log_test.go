package util_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/erc20-sender/internal/util"
)

func TestParseLogLevel(t *testing.T) {
	level, err := util.ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = util.ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = util.ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLogFromContext(t *testing.T) {
	assert.NotNil(t, util.LogFromContext(context.Background()))

	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("transfer_id", "abc").Logger()
	ctx := util.WithLogger(context.Background(), logger)

	util.LogFromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"transfer_id":"abc"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}
