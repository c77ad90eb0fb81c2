package renderer

import (
	"bytes"
	"fmt"

	"github.com/chiaying/assetbook"
	md "github.com/nao1215/markdown"
)

// RatePreviewMarkdown renders the effective-rate preview for a prospective
// Buy, showing which of LIFO/blended/market supplied the rate.
func RatePreviewMarkdown(p assetbook.RatePreview) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Exchange Rate Preview")
	doc.PlainText(fmt.Sprintf("Effective rate: %s (source: %s)", p.Rate.String(), p.Source))

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Component", "Rate", "Portion"},
		Rows: [][]string{
			{"LIFO", p.LIFORate.String(), p.LIFOPortion.String()},
			{"Market", p.MarketRate.String(), p.MarketPortion.String()},
		},
	})

	return doc.String()
}
