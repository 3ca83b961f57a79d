// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. After
//
//	import _ "retailhub/internal/storage/all"
//
// storage.New accepts the kinds "sqlite", "postgres" and "mssql".
package all

import (
	_ "retailhub/internal/storage/mssql"
	_ "retailhub/internal/storage/postgres"
	_ "retailhub/internal/storage/sqlite"
)
