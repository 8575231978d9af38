package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"mediashelf/internal/database"
)

// dumplist prints the persisted watchlist payload from a database file.
func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dumplist <database file>")
		os.Exit(1)
	}

	db, err := database.NewDB(database.Config{DatabasePath: flag.Arg(0)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	items, err := db.State.LoadWatchlist()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load watchlist: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		fmt.Fprintf(os.Stderr, "encode watchlist: %v\n", err)
		os.Exit(1)
	}
}
