package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	nesting "github.com/danailatanasov3333-lab/cobot-nesting"
	"github.com/danailatanasov3333-lab/cobot-nesting/internal/creds"
	"github.com/danailatanasov3333-lab/cobot-nesting/internal/viamcell"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/robot/client"
	"go.viam.com/utils/rpc"
)

const validSteps = "capture, detect, measure, laser-off, nest"

func main() {
	credsPath := flag.String("creds", "", "path to robot credentials JSON file")
	step := flag.String("step", "", "step to run: "+validSteps)
	templatesPath := flag.String("templates", "", "path to workpiece templates JSON file (required for nest)")
	plotDir := flag.String("plot-dir", "", "directory for nesting layout plots (optional)")
	probeAt := flag.String("probe-at", "", "x,y robot coordinates for the measure step")
	flag.Parse()

	logger := logging.NewLogger("nesting-cli")

	if *credsPath == "" {
		logger.Fatal("-creds flag is required")
	}
	if *step == "" {
		logger.Fatal("-step flag is required; valid steps: " + validSteps)
	}

	robotCreds, err := creds.Load(*credsPath)
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

	deps, err := viamcell.BuildDeps(ctx, machine, viamcell.DefaultConfig(), logger)
	if err != nil {
		logger.Fatal(err)
	}

	cfg := nesting.DefaultConfig()
	cfg.PlotDir = *plotDir
	cell := nesting.NewCell(deps, cfg, logger)

	logger.Infof("=== Running step: %s ===", *step)

	switch *step {
	case "capture":
		if err := cell.MoveToCapture(ctx); err != nil {
			logger.Fatal(err)
		}

	case "detect":
		contours, err := cell.DetectContours(ctx)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Infof("Detected %d contours in pickup area", len(contours))
		for i, c := range contours {
			centroid, err := c.Centroid()
			if err != nil {
				logger.Warnf("  Contour %d: %d points, degenerate: %v", i, len(c), err)
				continue
			}
			logger.Infof("  Contour %d: %d points, centroid=(%.1f, %.1f)", i, len(c), centroid.X, centroid.Y)
		}

	case "measure":
		x, y, err := parseProbeAt(*probeAt)
		if err != nil {
			logger.Fatalf("-probe-at: %v", err)
		}
		height, err := cell.MeasureHeightAt(ctx, x, y)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Infof("Measured height at (%.1f, %.1f): %.2fmm", x, y, height)
		if err := cell.LaserOff(ctx); err != nil {
			logger.Fatal(err)
		}

	case "laser-off":
		if err := cell.LaserOff(ctx); err != nil {
			logger.Fatal(err)
		}

	case "nest":
		if *templatesPath == "" {
			logger.Fatal("-templates flag is required for the nest step")
		}
		templates, err := nesting.LoadTemplates(*templatesPath)
		if err != nil {
			logger.Fatal(err)
		}
		result := cell.Run(ctx, templates)
		if !result.Success {
			logger.Fatalf("Nesting failed: %s", result.Message)
		}
		logger.Infof("%s (%d workpieces placed)", result.Message, cell.State().Count)

	default:
		logger.Fatalf("unknown step %q; valid steps: %s", *step, validSteps)
	}

	logger.Infof("Step %s completed successfully", *step)
}

// parseProbeAt parses "x,y" into robot coordinates.
func parseProbeAt(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, strconv.ErrSyntax
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
