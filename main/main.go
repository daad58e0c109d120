package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	nesting "github.com/danailatanasov3333-lab/cobot-nesting"
	"github.com/danailatanasov3333-lab/cobot-nesting/internal/creds"
	"github.com/danailatanasov3333-lab/cobot-nesting/internal/viamcell"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/robot/client"
	"go.viam.com/utils/rpc"
)

func main() {
	credsPath := flag.String("creds", "", "path to robot credentials JSON file")
	templatesPath := flag.String("templates", "", "path to workpiece templates JSON file")
	plotDir := flag.String("plot-dir", "", "directory for nesting layout plots (optional)")
	flag.Parse()

	logger := logging.NewDebugLogger("nesting")

	if *credsPath == "" {
		logger.Fatal("-creds flag is required")
	}
	if *templatesPath == "" {
		logger.Fatal("-templates flag is required")
	}

	robotCreds, err := creds.Load(*credsPath)
	if err != nil {
		logger.Fatal(err)
	}
	templates, err := nesting.LoadTemplates(*templatesPath)
	if err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	machine, err := client.New(
		ctx,
		robotCreds.Address,
		logger,
		client.WithDialOptions(rpc.WithEntityCredentials(
			robotCreds.EntityID,
			rpc.Credentials{
				Type:    rpc.CredentialsTypeAPIKey,
				Payload: robotCreds.APIKey,
			})),
	)
	if err != nil {
		logger.Fatal(err)
	}
	defer machine.Close(context.Background())

	logger.Info("Connected to robot")
	logger.Info("Resources:", machine.ResourceNames())

	deps, err := viamcell.BuildDeps(ctx, machine, viamcell.DefaultConfig(), logger)
	if err != nil {
		logger.Fatal(err)
	}

	cfg := nesting.DefaultConfig()
	cfg.PlotDir = *plotDir

	cell := nesting.NewCell(deps, cfg, logger)
	result := cell.Run(ctx, templates)
	if !result.Success {
		logger.Fatalf("Nesting failed: %s", result.Message)
	}
	logger.Infof("%s (%d workpieces placed)", result.Message, cell.State().Count)
}
