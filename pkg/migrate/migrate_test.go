package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MigracionesEmbebidas(t *testing.T) {
	require.NoError(t, Validate())
}

func TestValidateFS_Rechazos(t *testing.T) {
	body := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"nombre inválido": {"m/1_x.sql": {Data: []byte(body)}},
		"versión duplicada": {
			"m/20240101000000_a.sql": {Data: []byte(body)},
			"m/20240101000000_b.sql": {Data: []byte(body)},
		},
		"sin down": {"m/20240101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateFS(fsys, "m"))
		})
	}
}

func TestCoreMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_inventory_core.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS ledger_entries",
		"CONSTRAINT batches_processing_record_uq UNIQUE (source_processing_record_id)",
		"CHECK (quantity <> 0)",
		"BEFORE UPDATE OR DELETE ON ledger_entries",
		"PRIMARY KEY (transfer_id, size_class)",
		"UNIQUE (transfer_id, position)",
		"DROP TABLE IF EXISTS ledger_entries",
	} {
		assert.True(t, strings.Contains(content, sub), "falta %q", sub)
	}
}
