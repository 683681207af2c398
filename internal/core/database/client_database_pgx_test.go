package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN("postgres://u:p@localhost:5432/asknest?application_name=api", "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/asknest?application_name=api", dsn)

	_, err = buildDSN("", "")
	assert.EqualError(t, err, "DATABASE_URL is empty")
}

func TestBuildDSN_RootCert(t *testing.T) {
	cert := filepath.Join(t.TempDir(), "root.crt")
	require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o600))

	dsn, err := buildDSN("postgres://u:p@db:5432/asknest", cert)
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=verify-ca")
	assert.Contains(t, dsn, "sslrootcert=")

	_, err = buildDSN("postgres://u:p@db:5432/asknest", filepath.Join(t.TempDir(), "missing.crt"))
	assert.ErrorContains(t, err, "ssl cert not accessible")
}

func TestBootstrapScript(t *testing.T) {
	script, err := bootstrapScript()
	require.NoError(t, err)

	assert.Contains(t, script, "CREATE TABLE IF NOT EXISTS ingestion_runs")
	assert.True(t, strings.Contains(script, "INSERT INTO asknest_meta (version) VALUES (1)"))
}
