package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fincal/internal/fiscal"
)

func TestResolveInputs(t *testing.T) {
	got := resolveInputs(fiscal.NewResolver(), []string{"2025-03-14", "202503", "2025-01-10", "not-a-date", "202513"})
	require.Len(t, got, 5)

	assert.Equal(t, "2025-02", got[0].Period.Code())
	assert.Equal(t, "2025-02", got[1].Period.Code())
	assert.Equal(t, "2023-12", got[2].Period.Code())
	assert.True(t, got[3].Period.IsUnknown())
	assert.True(t, got[4].Period.IsUnknown())
	assert.Equal(t, "not-a-date", got[3].Input)
}

func TestFormatResolutions(t *testing.T) {
	var buf bytes.Buffer
	formatResolutions(&buf, resolveInputs(fiscal.NewResolver(), []string{"2025-03-14", "garbage"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PERIOD")
	assert.Contains(t, lines[1], "2025-02")
	assert.Contains(t, lines[1], "Q1")
	assert.Contains(t, lines[1], "2025-02-22")
	assert.Contains(t, lines[1], "2025-03-28")
	assert.Contains(t, lines[2], "unknown")
}

func TestResolveCommand_JSON(t *testing.T) {
	var buf bytes.Buffer
	resolveCmd.SetOut(&buf)
	t.Cleanup(func() {
		resolveCmd.SetOut(nil)
		_ = resolveCmd.Flags().Set("format", "table")
	})
	require.NoError(t, resolveCmd.Flags().Set("format", "json"))

	require.NoError(t, resolveCmd.RunE(resolveCmd, []string{"2024-12-15"}))

	var out struct {
		Input  string         `json:"input"`
		Period map[string]any `json:"period"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "2024-12-15", out.Input)
	assert.Equal(t, "2024-11", out.Period["financial_period"])
	assert.EqualValues(t, 2024, out.Period["financial_year"])
	assert.EqualValues(t, 4, out.Period["financial_quarter"])
}

func TestResolveCommand_UnknownFormat(t *testing.T) {
	t.Cleanup(func() { _ = resolveCmd.Flags().Set("format", "table") })
	require.NoError(t, resolveCmd.Flags().Set("format", "yaml"))

	err := resolveCmd.RunE(resolveCmd, []string{"2024-12-15"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
