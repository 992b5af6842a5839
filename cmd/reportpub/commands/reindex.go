package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/index"
)

// ReindexCmd implements the 'reindex' command.
type ReindexCmd struct{}

func (r *ReindexCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunReindex(g.out(), cfg)
}

// RunReindex rebuilds the index from the current listing.
func RunReindex(out io.Writer, cfg *config.Config) error {
	b, err := index.NewBuilder(cfg.PublishDir(), cfg.ArchiveDir, cfg.IndexFile, cfg.Index.Title, cfg.Index.Intro)
	if err != nil {
		return err
	}
	doc, err := b.Rebuild()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "index: %s\n", cfg.IndexPath())
	for _, s := range doc.Sections {
		_, _ = fmt.Fprintf(out, "%s: %d\n", s.Title, len(s.Entries))
	}
	return nil
}
