package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Strategy string `short:"s" required:"" help:"Strategy identifier"`
	Mode     string `short:"m" required:"" help:"Run mode (capital or research)"`
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunResolve(g.out(), cfg, r.Strategy, r.Mode)
}

// RunResolve validates a strategy and prints the resolved identity.
func RunResolve(out io.Writer, cfg *config.Config, strategyID, mode string) error {
	res, err := strategy.NewResolver(cfg).Resolve(strategyID, mode)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "strategy: %s\nslug: %s\nmode: %s\ndisplay_name: %s\n",
		res.ID, res.Slug, res.Mode, res.DisplayName)
	return nil
}
