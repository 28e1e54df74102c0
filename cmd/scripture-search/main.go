// scripture-search opens a scripture corpus file and runs queries against it
// from the command line. Useful for checking what the quote engine will see.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kathascribe/kathascribe/internal/scripture"
)

func main() {
	dbPath := flag.String("db", envOr("SCRIPTURE_DB_PATH", "./data/sggs.sqlite"), "path to the scripture sqlite file")
	topK := flag.Int("k", 10, "number of results")
	lineID := flag.String("line", "", "fetch a specific line id instead of searching")
	radius := flag.Int("context", 0, "with -line, also print shabad context lines within this radius")
	flag.Parse()

	ctx := context.Background()
	index, err := scripture.Open(ctx, scripture.StoreConfig{
		Path:   *dbPath,
		Source: scripture.SourceSGGS,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("corpus: %d lines\n", index.Len())

	if *lineID != "" {
		if *radius > 0 {
			lines, err := index.GetContext(*lineID, *radius)
			if err != nil {
				log.Fatalf("%v", err)
			}
			for _, l := range lines {
				printLine(l)
			}
			return
		}
		line, err := index.GetLine(*lineID)
		if err != nil {
			log.Fatalf("%v", err)
		}
		printLine(line)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: scripture-search [flags] <gurmukhi query>")
		os.Exit(2)
	}
	query := flag.Arg(0)
	for i, line := range index.SearchByText(query, *topK) {
		fmt.Printf("%2d. ", i+1)
		printLine(line)
	}
}

func printLine(l scripture.Line) {
	fmt.Printf("[%s] %s", l.ID, l.Gurmukhi)
	if l.Ang > 0 {
		fmt.Printf("  (ang %d", l.Ang)
		if l.Author != "" {
			fmt.Printf(", %s", l.Author)
		}
		fmt.Print(")")
	}
	fmt.Println()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
