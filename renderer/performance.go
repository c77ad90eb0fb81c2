package renderer

import (
	"bytes"
	"fmt"

	"github.com/chiaying/assetbook"
	md "github.com/nao1215/markdown"
)

// YearPerformanceMarkdown renders a single portfolio's per-year performance
// figures: start/end values, contributions, and the four return measures.
func YearPerformanceMarkdown(p assetbook.YearPerformance) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Performance for %d", p.Year))

	if len(p.MissingPrices) > 0 {
		doc.PlainText("Missing prices block this computation:")
		table := md.TableSet{
			Header: []string{"Ticker", "Date", "Type"},
		}
		for _, m := range p.MissingPrices {
			table.Rows = append(table.Rows, []string{m.Ticker, m.Date.String(), string(m.PriceType)})
		}
		doc.Table(table)
		return doc.String()
	}

	doc.H2("Value")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"", "Source", "Home"},
		Rows: [][]string{
			{"Start", p.StartValueSource.String(), p.StartValueHome.String()},
			{"End", p.EndValueSource.String(), p.EndValueHome.String()},
			{"Net contributions", p.NetContributionsSource.String(), p.NetContributionsHome.String()},
		},
	}
	doc.Table(table)

	doc.H2("Returns")
	xirrSource, xirrHome := "n/a", "n/a"
	if p.XIRRSource != nil {
		xirrSource = fmt.Sprintf("%+.2f%%", *p.XIRRSource*100)
	}
	if p.XIRRHome != nil {
		xirrHome = fmt.Sprintf("%+.2f%%", *p.XIRRHome*100)
	}
	returns := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Method", "Return"},
		Rows: [][]string{
			{"Simple", fmt.Sprintf("%+.2f%%", p.SimpleReturnPercent.InexactFloat64())},
			{"Modified Dietz", fmt.Sprintf("%+.2f%%", p.ModifiedDietzPercent.InexactFloat64())},
			{"Time-weighted", fmt.Sprintf("%+.2f%%", p.TWRPercent.InexactFloat64())},
			{"XIRR (source)", xirrSource},
			{"XIRR (home)", xirrHome},
		},
	}
	doc.Table(returns)

	return doc.String()
}

// AggregatePerformanceMarkdown renders the household-wide performance report
// across every portfolio a user owns, for one year.
func AggregatePerformanceMarkdown(a assetbook.AggregatePerformance) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Household Performance for %d", a.Year))
	doc.PlainText(fmt.Sprintf("Start: %s, End: %s, Net contributions: %s",
		a.StartValueHome.String(), a.EndValueHome.String(), a.NetContributionsHome.String()))

	if len(a.MissingPrices) > 0 {
		doc.PlainText(fmt.Sprintf("%d missing prices block parts of this computation.", len(a.MissingPrices)))
	}

	xirr := "n/a"
	if a.XIRRHome != nil {
		xirr = fmt.Sprintf("%+.2f%%", *a.XIRRHome*100)
	}
	doc.H2("Household Returns")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Method", "Return"},
		Rows: [][]string{
			{"Modified Dietz", fmt.Sprintf("%+.2f%%", a.ModifiedDietzPercent.InexactFloat64())},
			{"Time-weighted", fmt.Sprintf("%+.2f%%", a.TWRPercent.InexactFloat64())},
			{"XIRR", xirr},
		},
	})

	if len(a.PerPortfolio) > 0 {
		doc.H2("Per Portfolio")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Portfolio", "Start (home)", "End (home)", "TWR"},
		}
		for _, p := range a.PerPortfolio {
			table.Rows = append(table.Rows, []string{
				p.PortfolioID,
				p.StartValueHome.String(),
				p.EndValueHome.String(),
				fmt.Sprintf("%+.2f%%", p.TWRPercent.InexactFloat64()),
			})
		}
		doc.Table(table)
	}

	return doc.String()
}
