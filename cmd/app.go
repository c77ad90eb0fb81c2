// Package cmd implements the CLI application over a household ledger Book.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/chiaying/assetbook"
	"github.com/google/subcommands"
)

// Register registers all the application's subcommands with the provided Commander.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&depositCmd{}, "transactions")
	c.Register(&withdrawCmd{}, "transactions")

	c.Register(&holdingCmd{}, "reports")
	c.Register(&performanceCmd{}, "reports")
	c.Register(&ratePreviewCmd{}, "reports")
}

// As a CLI application, it has a very short-lived lifecycle, so it is ok to use global variables for flags.
var (
	bookFile    = flag.String("book-file", "book.json", "Path to the household ledger file (JSON)")
	homeCurrency = flag.String("home-currency", "TWD", "home currency for aggregate performance reports")
	noRender    = flag.Bool("no-render", false, "disable markdown rendering in terminal output")
)

// DecodeBook decodes the household ledger from the application's default
// book file, wiring in a live market-data quoter. If the file does not
// exist, it returns a new empty Book for the given user.
func DecodeBook(userID string) (*assetbook.Book, error) {
	quoter := assetbook.NewMarketDataQuoter()
	f, err := os.Open(*bookFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Println("warning, book file does not exist, starting an empty book")
			return assetbook.NewBook(userID, quoter, quoter), nil
		}
		return nil, fmt.Errorf("could not open book file %q: %w", *bookFile, err)
	}
	defer f.Close()

	b, err := assetbook.DecodeBook(f, quoter, quoter)
	if err != nil {
		return nil, fmt.Errorf("could not decode book file %q: %w", *bookFile, err)
	}
	return b, nil
}

// EncodeBook persists b to the application's default book file.
func EncodeBook(b *assetbook.Book) error {
	f, err := os.OpenFile(*bookFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening book file %q: %w", *bookFile, err)
	}
	defer f.Close()
	return assetbook.EncodeBook(f, b)
}

// printMarkdown renders a markdown string to stdout with appropriate styling.
// If styling fails for any reason, it logs the error and falls back to
// printing the raw, un-styled markdown string.
func printMarkdown(md string) {
	if *noRender {
		fmt.Print(md)
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		log.Printf("Error creating markdown renderer: %v. Falling back to raw output.", err)
		fmt.Print(md)
		return
	}

	out, err := renderer.Render(md)
	if err != nil {
		log.Printf("Error rendering markdown: %v. Falling back to raw output.", err)
		fmt.Print(md)
		return
	}

	fmt.Print(out)
}
