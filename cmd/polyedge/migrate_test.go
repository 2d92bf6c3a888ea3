package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrate_RequiresPostgres(t *testing.T) {
	cfgFile = ""
	err := runMigrate(migrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `storage.driver postgres, got "memory"`)
}
