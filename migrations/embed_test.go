package migrations

import (
	"io/fs"
	"testing"

	"github.com/erp/rental/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_Catalog(t *testing.T) {
	catalog, err := migration.Catalog(FS)
	require.NoError(t, err)
	require.Len(t, catalog, 8)
	assert.NoError(t, migration.Check(catalog))
	assert.Equal(t, "create_documents", catalog[7].Name)
}

func TestFS_LedgerTableHasTenantReferenceIndex(t *testing.T) {
	data, err := fs.ReadFile(FS, "000006_create_tenant_statements.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "idx_statement_tenant_reference ON tenant_statements (tenant_id, reference)")
}
