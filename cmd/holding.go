package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chiaying/assetbook"
	"github.com/chiaying/assetbook/date"
	"github.com/chiaying/assetbook/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	portfolio string
	date      string
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display a portfolio's open positions" }
func (*holdingCmd) Usage() string {
	return `assetbook holding -portfolio <id> [-d <date>]
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio ID")
	f.StringVar(&c.date, "d", date.Today().String(), "as-of date")
}

func (c *holdingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	b, err := DecodeBook("cli-user")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	p, ok := b.Portfolios[c.portfolio]
	if !ok {
		fmt.Fprintf(os.Stderr, "portfolio %q not found\n", c.portfolio)
		return subcommands.ExitFailure
	}

	var txs []assetbook.StockTransaction
	for _, t := range b.Stocks.GetByPortfolio(p.ID, false) {
		if !t.Date.After(on) {
			txs = append(txs, t)
		}
	}
	positions := assetbook.RecalculatePositions(txs, b.Splits, p.HomeCurrency)

	balance := assetbook.M(0, p.HomeCurrency)
	if p.BoundCurrencyLedgerID != "" {
		if log, ok := b.Ledgers[p.BoundCurrencyLedgerID]; ok {
			balance = assetbook.M(log.Ledger.Balance(log.All(), on), log.Ledger.CurrencyCode)
		}
	}

	var b2 strings.Builder
	b2.WriteString(renderer.HoldingMarkdown(on.String(), p.HomeCurrency, positions, balance))
	printMarkdown(b2.String())
	return subcommands.ExitSuccess
}
