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

// sellCmd holds the flags for the 'sell' subcommand.
type sellCmd struct {
	portfolio string
	ticker    string
	market    string
	currency  string
	shares    string
	price     string
	fees      string
	on        string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a stock sale" }
func (*sellCmd) Usage() string {
	return `assetbook sell -portfolio <id> -ticker <t> -market <TW|US|UK|EU> -currency <code> -shares <n> -price <p> [-fees <f>] [-d <date>]
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio ID")
	f.StringVar(&c.ticker, "ticker", "", "security ticker")
	f.StringVar(&c.market, "market", "", "exchange (TW, US, UK, EU)")
	f.StringVar(&c.currency, "currency", "", "transaction currency")
	f.StringVar(&c.shares, "shares", "", "number of shares")
	f.StringVar(&c.price, "price", "", "price per share")
	f.StringVar(&c.fees, "fees", "0", "transaction fees")
	f.StringVar(&c.on, "d", date.Today().String(), "transaction date")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	shares, err := decimal.NewFromString(c.shares)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing shares: %v\n", err)
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}
	fees, err := decimal.NewFromString(c.fees)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing fees: %v\n", err)
		return subcommands.ExitUsageError
	}

	b, err := DecodeBook("cli-user")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	sell := assetbook.StockTransaction{
		PortfolioID:   c.portfolio,
		Date:          on,
		Ticker:        c.ticker,
		Market:        assetbook.StockMarket(c.market),
		Currency:      c.currency,
		Shares:        assetbook.Q(shares),
		PricePerShare: price,
		Fees:          fees,
		ExchangeRate:  decimal.NewFromInt(1),
	}

	stored, err := b.CreateStockSell(ctx, sell, on)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := EncodeBook(b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded sell %s of %s %s at %s\n", stored.Shares, stored.Ticker, stored.Market, stored.PricePerShare)
	return subcommands.ExitSuccess
}
