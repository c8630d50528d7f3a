package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/devflow/internal/devserver"
	"git.home.luguber.info/inful/devflow/internal/workflow"
)

// ServeCmd starts the development session.
type ServeCmd struct {
	Production   bool   `short:"p" help:"Compress stylesheets and drop source maps"`
	Clean        bool   `help:"Remove generated output before the initial build"`
	Host         string `name:"host" help:"Override server.host"`
	Port         int    `name:"port" help:"Override server.port"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable LiveReload SSE and script injection"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}
	if s.NoLiveReload {
		off := false
		cfg.Server.LiveReload = &off
	}

	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := newServices(cfg)
	defer rt.Close()

	overlay := devserver.NewOverlay()
	rt.notifier = append(rt.notifier, overlay)
	wf := rt.newWorkflow(s.Production, workflow.WithListener(overlay))

	opts := []devserver.Option{
		devserver.WithOverlay(overlay),
		devserver.WithRecorder(rt.recorder),
		devserver.WithClean(s.Clean),
	}
	if rt.registry != nil {
		opts = append(opts, devserver.WithMetrics(rt.registry))
	}
	return devserver.New(cfg, wf, opts...).Run(sigctx)
}
