package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_SortedVersions(t *testing.T) {
	versions, err := pending()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_experiments", "0002_llm_responses"}, versions)
}

func TestMigrations_DefineTables(t *testing.T) {
	exp, err := migrationsFS.ReadFile("migrations/0001_experiments.sql")
	require.NoError(t, err)
	assert.Contains(t, string(exp), "CREATE TABLE IF NOT EXISTS experiments")

	resp, err := migrationsFS.ReadFile("migrations/0002_llm_responses.sql")
	require.NoError(t, err)
	assert.Contains(t, string(resp), "REFERENCES experiments (id) ON DELETE CASCADE")
}
