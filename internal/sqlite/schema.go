package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/almanac/pkg/types"
)

// documentTableDDL is the CREATE TABLE template for one document table.
// Every standard table has the same layout: an insertion sequence, the
// document id, and the JSON body.
const documentTableDDL = `CREATE TABLE IF NOT EXISTS %q (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    body TEXT NOT NULL
);`

// pragmas are executed on every new connection.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// schemaDDL returns the CREATE TABLE statements for every standard table.
func schemaDDL() []string {
	ddl := make([]string, 0, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		ddl = append(ddl, fmt.Sprintf(documentTableDDL, name))
	}
	return ddl
}
