package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chiaying/assetbook"
	"github.com/chiaying/assetbook/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// withdrawCmd holds the flags for the 'withdraw' subcommand.
type withdrawCmd struct {
	ledger string
	amount string
	on     string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "record an external withdrawal from a currency ledger" }
func (*withdrawCmd) Usage() string {
	return `assetbook withdraw -ledger <id> -amount <n> [-d <date>]
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledger, "ledger", "", "currency ledger ID")
	f.StringVar(&c.amount, "amount", "", "withdrawal amount, in the ledger's currency")
	f.StringVar(&c.on, "d", date.Today().String(), "transaction date")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tx := assetbook.CurrencyTransaction{LedgerID: c.ledger, Date: on, Type: assetbook.Withdraw, ForeignAmount: amount}
	stored, err := b.CreateExternalCashFlow(ctx, tx, on)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := EncodeBook(b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded withdrawal of %s from ledger %s\n", stored.ForeignAmount, stored.LedgerID)
	return subcommands.ExitSuccess
}
