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

// buyCmd holds the flags for the 'buy' subcommand.
type buyCmd struct {
	portfolio string
	ticker    string
	market    string
	currency  string
	shares    string
	price     string
	fees      string
	on        string
	action    string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a stock purchase, funding it from the portfolio's bound ledger" }
func (*buyCmd) Usage() string {
	return `assetbook buy -portfolio <id> -ticker <t> -market <TW|US|UK|EU> -currency <code> -shares <n> -price <p> [-fees <f>] [-d <date>] [-action None|Margin|TopUp]
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio ID")
	f.StringVar(&c.ticker, "ticker", "", "security ticker")
	f.StringVar(&c.market, "market", "", "exchange (TW, US, UK, EU)")
	f.StringVar(&c.currency, "currency", "", "transaction currency")
	f.StringVar(&c.shares, "shares", "", "number of shares")
	f.StringVar(&c.price, "price", "", "price per share")
	f.StringVar(&c.fees, "fees", "0", "transaction fees")
	f.StringVar(&c.on, "d", date.Today().String(), "transaction date")
	f.StringVar(&c.action, "action", "None", "balance action when the ledger lacks funds (None, Margin, TopUp)")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	buy := assetbook.StockTransaction{
		PortfolioID:   c.portfolio,
		Date:          on,
		Ticker:        c.ticker,
		Market:        assetbook.StockMarket(c.market),
		Currency:      c.currency,
		Shares:        assetbook.Q(shares),
		PricePerShare: price,
		Fees:          fees,
	}

	stored, spend, err := b.CreateStockBuy(ctx, buy, assetbook.BalanceAction(c.action), assetbook.Deposit, on)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := EncodeBook(b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	msg := fmt.Sprintf("Recorded buy %s of %s %s at %s\n", stored.Shares, stored.Ticker, stored.Market, stored.PricePerShare)
	if spend != nil {
		msg += fmt.Sprintf("Ledger spend %s booked at rate %s\n", spend.ForeignAmount, stored.ExchangeRate)
	}
	fmt.Print(msg)
	return subcommands.ExitSuccess
}
