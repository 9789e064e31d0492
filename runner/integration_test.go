//go:build integration

package runner

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ridoystarlord/fbmeta/database"
	"github.com/ridoystarlord/fbmeta/generator"
	"github.com/ridoystarlord/fbmeta/introspect"
	"github.com/ridoystarlord/fbmeta/loader"
)

const (
	firebirdImage    = "firebirdsql/firebird:5"
	firebirdPassword = "masterkey"
	firebirdDataDir  = "/var/lib/firebird/data"
)

var integrationScripts = map[string]string{
	"procedures.sql": `CREATE PROCEDURE CUSTOMER_TOTAL (CUSTOMER_ID INTEGER)
RETURNS (TOTAL D_AMOUNT)
AS
DECLARE VARIABLE N INTEGER;
BEGIN
  N = 0;
  SELECT COALESCE(SUM(AMOUNT), 0) FROM ORDERS WHERE CUSTOMER_ID = :CUSTOMER_ID INTO :TOTAL;
  SUSPEND;
END;
`,
	"tables.sql": `/* customers and their orders */
CREATE TABLE CUSTOMERS (
    ID INTEGER NOT NULL,
    NAME D_NAME,
    CODE CHAR(3)
);
ALTER TABLE CUSTOMERS ADD CONSTRAINT PK_CUSTOMERS PRIMARY KEY (ID);
ALTER TABLE CUSTOMERS ADD CONSTRAINT UQ_CUSTOMERS_CODE UNIQUE (CODE);

CREATE TABLE ORDERS (
    ID BIGINT NOT NULL,
    CUSTOMER_ID INTEGER NOT NULL,
    AMOUNT D_AMOUNT,
    STATUS VARCHAR(10) DEFAULT 'NEW' NOT NULL,
    CREATED_AT TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
ALTER TABLE ORDERS ADD CONSTRAINT PK_ORDERS PRIMARY KEY (ID);
ALTER TABLE ORDERS ADD CONSTRAINT FK_ORDERS_CUSTOMER FOREIGN KEY (CUSTOMER_ID) REFERENCES CUSTOMERS (ID) ON DELETE CASCADE;
`,
	"domains.sql": `SET SQL DIALECT 3;
CREATE DOMAIN D_NAME AS VARCHAR(100) DEFAULT '' NOT NULL;
CREATE DOMAIN D_AMOUNT AS NUMERIC(18,2) DEFAULT 0 CHECK (VALUE >= 0);
`,
}

type firebirdServer struct {
	host string
	port int
}

func (s firebirdServer) create(t *testing.T, ctx context.Context, name string) *sql.DB {
	t.Helper()

	params := url.Values{}
	params.Set("charset", "UTF8")
	dsn := database.DSN("SYSDBA", firebirdPassword, s.host, s.port, filepath.Join(firebirdDataDir, name), params)

	db, err := database.Create(ctx, dsn)
	assert.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func startFirebird(t *testing.T, ctx context.Context) firebirdServer {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        firebirdImage,
			ExposedPorts: []string{"3050/tcp"},
			Env: map[string]string{
				"FIREBIRD_ROOT_PASSWORD": firebirdPassword,
			},
			WaitingFor: wait.ForListeningPort("3050/tcp"),
		},
		Started: true,
	})
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	assert.NoError(t, err)
	port, err := container.MappedPort(ctx, "3050/tcp")
	assert.NoError(t, err)

	return firebirdServer{host: host, port: port.Int()}
}

// TestFirebirdIntegration builds a database from scripts, exports it and
// builds a second database from the exported scripts.
func TestFirebirdIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()
	server := startFirebird(t, ctx)

	scriptsDir := t.TempDir()
	for name, content := range integrationScripts {
		assert.NoError(t, os.WriteFile(filepath.Join(scriptsDir, name), []byte(content), 0644))
	}

	scripts, err := loader.LoadScripts(scriptsDir)
	assert.NoError(t, err)

	source := server.create(t, ctx, "source.fdb")
	executed, err := Build(ctx, source, scripts)
	assert.NoError(t, err)
	assert.Equal(t, 9, executed)

	reader := introspect.NewReader(source)
	exportDir := filepath.Join(t.TempDir(), "export")

	summary, err := generator.Export(ctx, reader, exportDir)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Domains)
	assert.Equal(t, 2, summary.Tables)
	assert.Equal(t, 1, summary.Procedures)

	tablesSQL, err := os.ReadFile(filepath.Join(exportDir, generator.TablesFile))
	assert.NoError(t, err)
	assert.Contains(t, string(tablesSQL), "ALTER TABLE ORDERS ADD CONSTRAINT FK_ORDERS_CUSTOMER FOREIGN KEY (CUSTOMER_ID) REFERENCES CUSTOMERS (ID) ON DELETE CASCADE;")
	assert.Contains(t, string(tablesSQL), "    NAME D_NAME,")
	assert.Contains(t, string(tablesSQL), "    STATUS VARCHAR(10) DEFAULT 'NEW' NOT NULL,")

	domainsSQL, err := os.ReadFile(filepath.Join(exportDir, generator.DomainsFile))
	assert.NoError(t, err)
	assert.Contains(t, string(domainsSQL), "CREATE DOMAIN D_NAME AS VARCHAR(100) DEFAULT '' NOT NULL;")

	t.Run("RebuildFromExport", func(t *testing.T) {
		exported, err := loader.LoadScripts(exportDir)
		assert.NoError(t, err)

		rebuilt := server.create(t, ctx, "rebuilt.fdb")
		_, err = Build(ctx, rebuilt, exported)
		assert.NoError(t, err)

		want, err := reader.GetTables(ctx)
		assert.NoError(t, err)
		got, err := introspect.NewReader(rebuilt).GetTables(ctx)
		assert.NoError(t, err)
		assert.Equal(t, want, got)

		wantProcs, err := reader.GetProcedures(ctx)
		assert.NoError(t, err)
		gotProcs, err := introspect.NewReader(rebuilt).GetProcedures(ctx)
		assert.NoError(t, err)
		assert.Equal(t, wantProcs, gotProcs)
	})

	t.Run("UpdateContinuesAfterFailure", func(t *testing.T) {
		updates := []loader.Script{{
			Name:     "update.sql",
			Category: loader.Unknown,
			Source: "ALTER TABLE CUSTOMERS ADD EMAIL VARCHAR(200);\n" +
				"ALTER TABLE MISSING ADD X INTEGER;\n" +
				"CREATE TABLE AUDIT_LOG (ID INTEGER);",
		}}

		result := Update(ctx, source, updates, nil)
		assert.Equal(t, 2, result.Applied)
		assert.Equal(t, 1, result.Failed)
		assert.False(t, result.Results[1].OK())
	})
}
