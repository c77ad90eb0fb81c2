package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chiaying/assetbook/date"
	"github.com/chiaying/assetbook/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// ratePreviewCmd holds the flags for the 'rate-preview' subcommand.
type ratePreviewCmd struct {
	ledger string
	amount string
	on     string
}

func (*ratePreviewCmd) Name() string { return "rate-preview" }
func (*ratePreviewCmd) Synopsis() string {
	return "preview the effective exchange rate a ledger would apply to a prospective buy"
}
func (*ratePreviewCmd) Usage() string {
	return `assetbook rate-preview -ledger <id> -amount <n> [-d <date>]
`
}

func (c *ratePreviewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "currency ledger ID")
	f.StringVar(&c.amount, "amount", "", "foreign-currency amount to preview")
	f.StringVar(&c.on, "d", date.Today().String(), "as-of date")
}

func (c *ratePreviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}

	b, err := DecodeBook("cli-user")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	preview, err := b.ExchangeRatePreview(ctx, c.ledger, on, amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.RatePreviewMarkdown(preview))
	return subcommands.ExitSuccess
}
