package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Production bool `short:"p" help:"Compress stylesheets and drop source maps"`
	Clean      bool `help:"Remove generated output before building"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt := newServices(cfg)
	defer rt.Close()

	fmt.Println("Starting devflow build")
	if err := rt.newWorkflow(b.Production).Build(ctx, b.Clean); err != nil {
		fmt.Println("Build finished with failures")
		return err
	}
	fmt.Println("Build completed successfully")
	return nil
}
