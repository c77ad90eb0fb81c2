// Package renderer turns assetbook.Book query results into markdown reports,
// the way a terminal client or a notification digest would present them.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/chiaying/assetbook"
	md "github.com/nao1215/markdown"
)

// HoldingMarkdown renders the open positions folded from a portfolio's
// transaction log, plus its bound ledger balance, as a markdown report.
func HoldingMarkdown(on string, homeCurrency string, positions map[assetbook.PositionKey]assetbook.Position, ledgerBalance assetbook.Money) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Holdings on " + on)
	doc.PlainText(fmt.Sprintf("Ledger balance: %s", ledgerBalance.String()))

	keys := assetbook.HoldingKeys(positions)
	if len(keys) > 0 {
		doc.H2("Securities")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Ticker", "Market", "Shares", "Cost (" + homeCurrency + ")", "Realized (" + homeCurrency + ")"},
		}
		for _, k := range keys {
			p := positions[k]
			table.Rows = append(table.Rows, []string{
				p.Key.Ticker,
				string(p.Key.Market),
				p.TotalShares.String(),
				p.TotalCostHome.String(),
				p.RealizedHome.String(),
			})
		}
		doc.Table(table)
	} else {
		doc.PlainText("No open positions.")
	}

	return doc.String()
}
