package main

import (
	"fmt"
	"os"
	"path/filepath"

	"uttt-node/build"
	cliutil "uttt-node/cmd"
	"uttt-node/node/config"
	"uttt-node/node/deploy"
	"uttt-node/node/repo"
	"uttt-node/store"
	"uttt-node/types"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("deploy")

var FlagRepo = &cli.StringFlag{
	Name:    "repo",
	Usage:   "repo directory for the uttt node",
	EnvVars: []string{"UTTT_NODE_PATH"},
	Value:   "~/.uttt-node",
}

func before(_ *cli.Context) error {
	_ = logging.SetLogLevel("deploy", "INFO")
	_ = logging.SetLogLevel("store", "INFO")
	_ = logging.SetLogLevel("repo", "INFO")
	if cliutil.IsVeryVerbose {
		_ = logging.SetLogLevel("deploy", "DEBUG")
		_ = logging.SetLogLevel("store", "DEBUG")
		_ = logging.SetLogLevel("repo", "DEBUG")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:                 cliutil.APP_NAME_DEPLOY,
		Usage:                "Build and publish the uttt site once",
		EnableBashCompletion: true,
		Version:              build.UserVersion(),
		Before:               before,
		Flags: []cli.Flag{
			FlagRepo,
			cliutil.FlagVeryVerbose,
		},
		Commands: []*cli.Command{
			runCmd,
			cliutil.GenerateDocCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "execute a single pipeline run and wait for it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "local",
			Usage:    "build a local working tree instead of cloning the configured remote",
			Required: false,
		},
		&cli.StringFlag{
			Name:     "remote",
			Usage:    "override the configured source remote",
			Required: false,
		},
		&cli.StringFlag{
			Name:     "branch",
			Usage:    "override the configured source branch",
			Required: false,
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		r, err := repo.PrepareRepo(cctx.String("repo"))
		if err != nil {
			return err
		}

		c, err := r.Config()
		if err != nil {
			return err
		}
		cfg, ok := c.(*config.Node)
		if !ok {
			return types.Wrapf(types.ErrDecodeConfigFailed, "invalid config for repo, got: %T", c)
		}

		if local := cctx.String("local"); local != "" {
			cfg.Source.LocalPath = local
		}
		if remote := cctx.String("remote"); remote != "" {
			cfg.Source.Remote = remote
		}
		if branch := cctx.String("branch"); branch != "" {
			cfg.Source.Branch = branch
		}
		// one-shot runs never watch
		cfg.Deploy.WatchEnable = false

		storeMgr := store.NewStoreManager(nil)
		localBackend, err := store.NewLocalFsBackend(filepath.Join(r.CachePath(), "blobs"))
		if err != nil {
			return err
		}
		storeMgr.AddBackend(localBackend)
		if err = storeMgr.Open(); err != nil {
			return err
		}
		defer storeMgr.Close(ctx) //nolint:errcheck

		svc, err := deploy.NewDeploySvc(ctx, cfg, r, storeMgr, nil, nil)
		if err != nil {
			return err
		}
		defer svc.Stop(ctx) //nolint:errcheck

		record, err := svc.RunNow(ctx)
		if record != nil {
			fmt.Printf("deploy %s: %s in %v\n", record.Id, record.Status, record.Duration())
			for _, step := range record.Steps {
				line := fmt.Sprintf("  %-14s %-10s %v", step.Name, step.Status, step.FinishedAt.Sub(step.StartedAt).Round(10e6))
				if step.Error != "" {
					line += " " + step.Error
				}
				fmt.Println(line)
			}
			if record.PublishedCommit != "" {
				fmt.Printf("published commit: %s\n", record.PublishedCommit)
			}
		}
		return err
	},
}
