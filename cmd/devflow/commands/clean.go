package commands

import "context"

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Favicons bool `help:"Remove the generated favicon set instead of the build output"`
}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	rt := newServices(cfg)
	defer rt.Close()
	return rt.newWorkflow(false).Clean(context.Background(), c.Favicons)
}
