package cli

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// clearConnectionEnv isolates a test from connection settings of the host.
func clearConnectionEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"DATABASE_URL", "USACCIDENTS_CONNECTION_STRING", usaccidents.PasswordEnvVar,
		"AWS_REGION", "AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
	} {
		t.Setenv(name, "")
	}
}

// newTestLoadCommand returns a fresh load command so flag Changed state does not leak.
func newTestLoadCommand(t *testing.T, args ...string) (*cobra.Command, *loadFlagValues) {
	t.Helper()
	flags := &loadFlagValues{}
	cmd := &cobra.Command{Use: "load"}
	addLoadFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usaccidents.yaml"), []byte(body), 0o644))
	return dir
}

const sampleCSV = "ID,Severity,Start_Time,Start_Lat,Start_Lng,City,County,State,Weather_Condition\n" +
	"A-1,3,2016-02-08 05:46:00,39.865147,-84.058723,Dayton,Montgomery,OH,Light Rain\n" +
	"A-2,2,2016-02-08 06:07:59,39.928059,-82.831184,Reynoldsburg,Franklin,OH,Overcast\n" +
	"A-3,1,2016-02-08 06:49:27,39.865147,-84.058723,Dayton,Montgomery,OH,\n" +
	"A-4,4,2016-02-08 07:23:34,39.747753,-84.205582,Dayton,,OH,Mostly Cloudy\n"

// writeDataset creates a data dir holding the default archive with csvBody inside.
func writeDataset(t *testing.T, csvBody string) string {
	t.Helper()

	dataDir := t.TempDir()
	f, err := os.Create(filepath.Join(dataDir, usaccidents.DefaultArchiveName))
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	entry, err := w.Create(usaccidents.DefaultCSVName)
	require.NoError(t, err)
	_, err = entry.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return dataDir
}
