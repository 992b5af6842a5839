package commands

import (
	"fmt"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Token string   `arg:"" optional:"" help:"Command token (omit to list tokens)"`
	Args  []string `arg:"" optional:"" help:"Positional arguments for the command"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	reg := NewRegistry(cfg, g.out())
	if r.Token == "" {
		for _, c := range reg.List() {
			_, _ = fmt.Fprintf(g.out(), "%-10s %s\n", c.Token, c.Usage)
		}
		return nil
	}
	ctx, cancel := signalContext()
	defer cancel()
	return reg.Dispatch(ctx, r.Token, r.Args)
}
