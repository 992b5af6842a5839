package commands

import (
	"context"
	"io"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/git"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct{}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunVerify(ctx, g.out(), cfg)
}

// RunVerify compares the local and remote branch tips.
func RunVerify(ctx context.Context, out io.Writer, cfg *config.Config) error {
	client, err := git.Open(cfg)
	if err != nil {
		return err
	}
	st, err := git.NewParityVerifier(client, cfg.Git.PushTimeout.Std()).Verify(ctx)
	if st.LocalTip != "" {
		printParity(out, st)
	}
	return err
}
