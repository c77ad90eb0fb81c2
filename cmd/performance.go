package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chiaying/assetbook/renderer"
	"github.com/google/subcommands"
)

// performanceCmd holds the flags for the 'performance' subcommand.
type performanceCmd struct {
	portfolio string
	year      int
	aggregate bool
}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "report XIRR, Modified Dietz, and TWR for a year" }
func (*performanceCmd) Usage() string {
	return `assetbook performance -year <y> [-portfolio <id> | -aggregate]
`
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "portfolio ID (ignored with -aggregate)")
	f.IntVar(&c.year, "year", 0, "calendar year to report")
	f.BoolVar(&c.aggregate, "aggregate", false, "combine every portfolio this user owns")
}

func (c *performanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 {
		fmt.Fprintln(os.Stderr, "-year is required")
		return subcommands.ExitUsageError
	}

	b, err := DecodeBook("cli-user")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var out string
	if c.aggregate {
		agg, err := b.AggregatePerformance(ctx, c.year, *homeCurrency)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		out = renderer.AggregatePerformanceMarkdown(agg)
	} else {
		if c.portfolio == "" {
			fmt.Fprintln(os.Stderr, "-portfolio is required unless -aggregate is set")
			return subcommands.ExitUsageError
		}
		perf, err := b.YearPerformance(ctx, c.portfolio, c.year)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		out = renderer.YearPerformanceMarkdown(perf)
	}

	var buf strings.Builder
	buf.WriteString(out)
	printMarkdown(buf.String())
	return subcommands.ExitSuccess
}
