// Command migrate applies and rolls back the trip store schema.
//
//	migrate up                 apply every pending migration
//	migrate down               roll back the latest migration
//	migrate down --to 0        roll back everything
//	migrate status             list migrations and whether they are applied
//
// The database is taken from --database-url or DATABASE_URL.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
