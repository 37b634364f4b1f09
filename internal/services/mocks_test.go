package services

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

type mockConnector struct {
	pool  *pgxpool.Pool
	err   error
	calls int
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	m.calls++
	return m.pool, m.err
}

func factoryFor(c usaccidents.Connector) usaccidents.ConnectorFactory {
	return func(*usaccidents.ConnectionConfig) (usaccidents.Connector, error) {
		return c, nil
	}
}

// mockConn records DDL and COPY traffic and drains every COPY source.
type mockConn struct {
	execs     []string
	copied    map[string][][]any
	execErr   func(sql string) error
	copyErr   map[string]error
	execCount int
	// rowCounts overrides what count(*) reports for a table; otherwise it is the COPY row count.
	rowCounts map[string]int64
}

func newMockConn() *mockConn {
	return &mockConn{copied: make(map[string][][]any)}
}

func (m *mockConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	m.execCount++
	m.execs = append(m.execs, strings.Join(strings.Fields(sql), " "))
	if m.execErr != nil {
		if err := m.execErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (m *mockConn) QueryRow(_ context.Context, sql string, _ ...any) usaccidents.Row {
	for _, table := range []string{usaccidents.CitiesTable, usaccidents.AccidentsTable} {
		if !strings.Contains(sql, pgx.Identifier{table}.Sanitize()) {
			continue
		}
		if n, ok := m.rowCounts[table]; ok {
			return countRow{n: n}
		}
		return countRow{n: int64(len(m.copied[table]))}
	}
	return countRow{}
}

type countRow struct{ n int64 }

func (r countRow) Scan(dest ...any) error {
	*dest[0].(*int64) = r.n
	return nil
}

func (m *mockConn) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	name := table[0]
	if err, ok := m.copyErr[name]; ok {
		return 0, err
	}
	var rows [][]any
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		rows = append(rows, values)
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	m.copied[name] = rows
	return int64(len(rows)), nil
}

const csvHeader = "ID,Severity,Start_Time,Start_Lat,Start_Lng,City,County,State,Weather_Condition\n"

// sampleCSV has five accidents over three distinct locations, one with a null County.
const sampleCSV = csvHeader +
	"A-1,3,2016-02-08 05:46:00,39.865147,-84.058723,Dayton,Montgomery,OH,Light Rain\n" +
	"A-2,2,2016-02-08 06:07:59,39.928059,-82.831184,Reynoldsburg,Franklin,OH,Overcast\n" +
	"A-3,1,2016-02-08 06:49:27,39.865147,-84.058723,Dayton,Montgomery,OH,\n" +
	"A-4,4,2016-02-08 07:23:34,39.747753,-84.205582,Dayton,,OH,Mostly Cloudy\n" +
	"A-5,2,2016-02-08 07:39:07,39.627781,-84.188354,Dayton,Montgomery,OH,Light Rain\n"

// writeDataset creates dataDir/us-accidents.zip holding csvBody as the default CSV name.
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

func testLoadConfig(dataDir string) usaccidents.LoadConfig {
	return usaccidents.LoadConfig{
		DataDir:     dataDir,
		ArchiveName: usaccidents.DefaultArchiveName,
		CSVName:     usaccidents.DefaultCSVName,
		IfExists:    usaccidents.IfExistsReplace,
		Connection: &usaccidents.ConnectionConfig{
			Host:     usaccidents.DefaultHost,
			Port:     usaccidents.DefaultPort,
			Database: usaccidents.DefaultDatabase,
			Username: usaccidents.DefaultUsername,
		},
	}
}
