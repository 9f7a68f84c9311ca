package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "migrate", "submit", "claims", "audit", "export"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "restore-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestClaimsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range claimsCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"list", "get", "decide", "evidence", "stats"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestSubmitCommand_Flags(t *testing.T) {
	flag := submitCmd.Flags().Lookup("draft")
	require.NotNil(t, flag, "submit command should have --draft flag")

	flag = submitCmd.Flags().Lookup("shapefile")
	require.NotNil(t, flag, "submit command should have --shapefile flag")

	flag = submitCmd.Flags().Lookup("actor-id")
	require.NotNil(t, flag, "submit command should have --actor-id flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestClaimsListCommand_Flags(t *testing.T) {
	flag := claimsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)

	flag = claimsListCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "table", flag.DefValue)
}

func TestAuditCommand_Flags(t *testing.T) {
	flag := auditCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "audit command should have --concurrency flag")
	assert.Equal(t, "8", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "export command should have --out flag")
	assert.Equal(t, "claims.xlsx", flag.DefValue)
}
