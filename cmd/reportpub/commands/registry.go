package commands

import (
	"context"
	"io"

	"git.home.luguber.info/inful/reportpub/internal/commandreg"
	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// NewRegistry registers the tokens available to 'run' and 'schedule'.
func NewRegistry(cfg *config.Config, out io.Writer) *commandreg.Registry {
	reg := commandreg.New()
	reg.MustRegister("publish", "publish <strategy> <mode> [YYYY-MM-DD_HH-MM]", func(ctx context.Context, args []string) error {
		if err := arity("publish", args, 2, 3); err != nil {
			return err
		}
		ts := ""
		if len(args) == 3 {
			ts = args[2]
		}
		req, err := newRequest(args[0], args[1], ts, "")
		if err != nil {
			return err
		}
		return RunPublish(ctx, out, cfg, req)
	})
	reg.MustRegister("reindex", "reindex", func(_ context.Context, args []string) error {
		if err := arity("reindex", args, 0, 0); err != nil {
			return err
		}
		return RunReindex(out, cfg)
	})
	reg.MustRegister("verify", "verify", func(ctx context.Context, args []string) error {
		if err := arity("verify", args, 0, 0); err != nil {
			return err
		}
		return RunVerify(ctx, out, cfg)
	})
	reg.MustRegister("resolve", "resolve <strategy> <mode>", func(_ context.Context, args []string) error {
		if err := arity("resolve", args, 2, 2); err != nil {
			return err
		}
		return RunResolve(out, cfg, args[0], args[1])
	})
	return reg
}

func arity(token string, args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return errors.ValidationError("wrong number of arguments").
			WithContext("token", token).
			WithContext("got", len(args)).
			Build()
	}
	return nil
}
