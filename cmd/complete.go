package cmd

import (
	"flag"
	"maps"
	"slices"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// NewCommanderCompleter builds a shell-completion tree mirroring the
// Commander's registered subcommands and their flags, the way pcs's
// main.go wires completion over its own Commander.
func NewCommanderCompleter(c *subcommands.Commander) complete.Completer {
	sub := &completer{subcommands: make(map[string]complete.Completer), flags: make(map[string]complete.Predictor)}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		sub.subcommands[cmd.Name()] = newCommandCompleter(cmd)
	})
	c.VisitAll(func(f *flag.Flag) {
		sub.flags[f.Name] = newFlagPredictor(f)
	})
	return sub
}

func newCommandCompleter(cmd subcommands.Command) complete.Completer {
	sub := &completer{subcommands: make(map[string]complete.Completer), flags: make(map[string]complete.Predictor)}
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	fs.VisitAll(func(f *flag.Flag) {
		sub.flags[f.Name] = newFlagPredictor(f)
	})
	return sub
}

func newFlagPredictor(f *flag.Flag) complete.Predictor {
	if p, ok := f.Value.(complete.Predictor); ok {
		return p
	}
	return predict.Nothing
}

type completer struct {
	subcommands map[string]complete.Completer
	flags       map[string]complete.Predictor
}

func (s *completer) SubCmdList() []string                  { return nil }
func (s *completer) SubCmdGet(cmd string) complete.Completer { return s.subcommands[cmd] }
func (s *completer) FlagList() []string                     { return slices.Collect(maps.Keys(s.flags)) }
func (s *completer) FlagGet(flag string) complete.Predictor { return s.flags[flag] }
func (s *completer) ArgsGet() complete.Predictor {
	if len(s.subcommands) > 0 {
		return predict.Set(slices.Collect(maps.Keys(s.subcommands)))
	}
	return predict.Nothing
}
