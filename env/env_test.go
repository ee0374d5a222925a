//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package env

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var config Config

	require.Equal(t, rand.Reader, config.GetRandom())
	require.Equal(t, DefaultThreshold, config.GetThreshold())
	require.Equal(t, DefaultWorkBudget, config.GetWorkBudget())
	require.GreaterOrEqual(t, config.Workers(1), 1)
	require.GreaterOrEqual(t, config.Workers(1024), 1)
	require.NotNil(t, config.GetLogger())
}

func TestOverrides(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	config := &Config{
		Rand:        bytes.NewReader(make([]byte, 16)),
		Logger:      &log,
		Threshold:   8,
		ThreadCount: 3,
		WorkBudget:  100,
	}
	require.Equal(t, 8, config.GetThreshold())
	require.Equal(t, 100, config.GetWorkBudget())
	require.Equal(t, 3, config.Workers(4))

	config.GetLogger().Info().Msg("hello")
	require.Contains(t, buf.String(), "hello")
}
