package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uttt-node/api"
	"uttt-node/build"
	cliutil "uttt-node/cmd"
	"uttt-node/node"
	"uttt-node/node/config"
	"uttt-node/node/repo"
	"uttt-node/types"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/gbrlsnchs/jwt/v3"
	"github.com/joho/godotenv"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("node")

const (
	FlagNodeRepo        = "repo"
	FlagNodeDefaultRepo = "~/.uttt-node"
)

var NodeApi string
var FlagNodeApi = &cli.StringFlag{
	Name:        "node",
	Usage:       "node connection",
	EnvVars:     []string{"UTTT_NODE_API"},
	Required:    false,
	Destination: &NodeApi,
}

var FlagRepo = &cli.StringFlag{
	Name:    FlagNodeRepo,
	Usage:   "repo directory for the uttt node",
	EnvVars: []string{"UTTT_NODE_PATH"},
	Value:   FlagNodeDefaultRepo,
}

func before(_ *cli.Context) error {
	_ = logging.SetLogLevel("cache", "INFO")
	_ = logging.SetLogLevel("node", "INFO")
	_ = logging.SetLogLevel("rpc", "INFO")
	_ = logging.SetLogLevel("repo", "INFO")
	_ = logging.SetLogLevel("deploy", "INFO")
	_ = logging.SetLogLevel("store", "INFO")
	_ = logging.SetLogLevel("history", "INFO")
	_ = logging.SetLogLevel("graphql", "INFO")
	_ = logging.SetLogLevel("site", "INFO")
	if cliutil.IsVeryVerbose {
		_ = logging.SetLogLevel("cache", "DEBUG")
		_ = logging.SetLogLevel("node", "DEBUG")
		_ = logging.SetLogLevel("rpc", "DEBUG")
		_ = logging.SetLogLevel("repo", "DEBUG")
		_ = logging.SetLogLevel("deploy", "DEBUG")
		_ = logging.SetLogLevel("store", "DEBUG")
		_ = logging.SetLogLevel("history", "DEBUG")
		_ = logging.SetLogLevel("graphql", "DEBUG")
		_ = logging.SetLogLevel("site", "DEBUG")
	}

	return nil
}

func main() {
	app := &cli.App{
		Name:                 cliutil.APP_NAME_NODE,
		Usage:                "Command line for the uttt site node",
		EnableBashCompletion: true,
		Version:              build.UserVersion(),
		Before:               before,
		Flags: []cli.Flag{
			FlagRepo,
			cliutil.FlagVeryVerbose,
			FlagNodeApi,
			cliutil.FlagToken,
		},
		Commands: []*cli.Command{
			initCmd,
			runCmd,
			cleanCmd,
			infoCmd,
			authCmd,
			deployCmd,
			cacheCmd,
			configCmd,
			cliutil.GenerateDocCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "initialize a uttt node repo",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "remote",
			Usage:    "git remote holding the site source",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     "skip-token",
			Usage:    "do not prompt for a publish token",
			Required: false,
		},
	},
	Action: func(cctx *cli.Context) error {
		repoPath := cctx.String(FlagNodeRepo)
		remote := cctx.String("remote")

		r, err := initRepo(repoPath, remote)
		if err != nil {
			return err
		}

		c, err := r.Config()
		if err != nil {
			return types.Wrapf(types.ErrReadConfigFailed, "invalid config for repo, got: %T", c)
		}
		cfg, ok := c.(*config.Node)
		if !ok {
			return types.Wrapf(types.ErrDecodeConfigFailed, "invalid config for repo, got: %T", c)
		}

		if !cctx.Bool("skip-token") {
			token, err := cliutil.AskForToken(fmt.Sprintf("Publish token (%s, optional, stored in the repo .env file): ", cfg.Publish.TokenEnv))
			if err != nil {
				return types.Wrap(types.ErrInvalidParameters, err)
			}
			if token != "" {
				envPath := filepath.Join(r.Path(), ".env")
				if err = godotenv.Write(map[string]string{cfg.Publish.TokenEnv: token}, envPath); err != nil {
					return types.Wrap(types.ErrInitRepoFailed, err)
				}
				fmt.Printf("Publish token written to %s\n", envPath)
			}
		}

		fmt.Printf("Repo initialized at %s\n", r.Path())
		return nil
	},
}

func initRepo(repoPath string, remote string) (*repo.Repo, error) {
	r, err := repo.NewRepo(repoPath)
	if err != nil {
		return nil, err
	}

	ok, err := r.Exists()
	if err != nil {
		return nil, types.Wrap(types.ErrOpenRepoFailed, err)
	}

	if ok {
		return nil, types.Wrapf(types.ErrInitRepoFailed, "repo at '%s' is already initialized", repoPath)
	}

	log.Info("Initializing repo")
	if err = r.Init(remote); err != nil {
		return nil, err
	}
	return r, nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start node",
	Action: func(cctx *cli.Context) error {
		myFigure := figure.NewFigure("Uttt Node", "", true)
		myFigure.Print()

		ctx := cctx.Context

		repo, err := prepareRepo(cctx)
		if err != nil {
			return err
		}

		snode, err := node.NewNode(ctx, repo)
		if err != nil {
			return err
		}

		finishCh := node.MonitorShutdown(
			snode.ShutdownChan,
			node.ShutdownHandler{Component: "node", StopFunc: snode.Stop},
		)
		<-finishCh
		return nil
	},
}

var cleanCmd = &cli.Command{
	Name:  "clean",
	Usage: "clean up the derived local state",
	Action: func(cctx *cli.Context) error {
		console := color.New(color.FgRed, color.Bold)
		console.Println("!!!BE CAREFULL!!!")
		console.Print("It'll remove the local datastores, staging trees, build caches and the latest build output. The config and keystore are kept. Confirm with 'yes' :")
		reader := bufio.NewReader(os.Stdin)
		indata, err := reader.ReadBytes('\n')
		if err != nil {
			return types.Wrap(types.ErrInvalidParameters, err)
		}
		if strings.ToLower(strings.Replace(string(indata), "\n", "", -1)) != "yes" {
			return nil
		}

		repo, err := prepareRepo(cctx)
		if err != nil {
			return err
		}

		for _, dir := range []string{
			filepath.Join(repo.Path(), "datastore"),
			repo.StagingPath(),
			repo.CachePath(),
			repo.DistPath(),
		} {
			if err := os.RemoveAll(dir); err != nil {
				return types.Wrapf(types.ErrInvalidParameters, "remove %s: %v", dir, err)
			}
			console.Printf("%s has been deleted!\n", dir)
		}
		return nil
	},
}

var infoCmd = &cli.Command{
	Name:  "info",
	Usage: "show node information",
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		status, err := apiClient.NodeStatus(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Version        : %s\n", status.Version)
		fmt.Printf("Source remote  : %s\n", status.SourceRemote)
		fmt.Printf("Source branch  : %s\n", status.SourceBranch)
		fmt.Printf("Deploy module  : %v\n", status.DeployEnabled)
		fmt.Printf("Site module    : %v\n", status.SiteEnabled)
		fmt.Printf("History module : %v\n", status.HistoryEnabled)
		fmt.Printf("Pending deploys: %d\n", status.PendingDeploys)
		return nil
	},
}

var authCmd = &cli.Command{
	Name:  "api-token-gen",
	Usage: "Generate API tokens",
	Action: func(cctx *cli.Context) error {
		repo, err := prepareRepo(cctx)
		if err != nil {
			return err
		}

		key, err := repo.GetKeyBytes()
		if err != nil {
			return err
		}

		console := color.New(color.FgMagenta, color.Bold)

		rb, err := jwt.Sign(&node.JwtPayload{Allow: api.AllPermissions[:2]}, jwt.NewHS256(key))
		if err != nil {
			return types.Wrap(types.ErrSignedFailed, err)
		}
		fmt.Print(" Read permission token   : ")
		console.Println(string(rb))

		wb, err := jwt.Sign(&node.JwtPayload{Allow: api.AllPermissions[:3]}, jwt.NewHS256(key))
		if err != nil {
			return types.Wrap(types.ErrSignedFailed, err)
		}
		fmt.Print(" Write permission token  : ")
		console.Println(string(wb))

		ab, err := jwt.Sign(&node.JwtPayload{Allow: api.AllPermissions[:4]}, jwt.NewHS256(key))
		if err != nil {
			return types.Wrap(types.ErrSignedFailed, err)
		}
		fmt.Print(" Admin permission token  : ")
		console.Println(string(ab))

		return nil
	},
}

var deployCmd = &cli.Command{
	Name:  "deploy",
	Usage: "manage deploys",
	Subcommands: []*cli.Command{
		deployRunCmd,
		deployListCmd,
		deployShowCmd,
	},
}

var deployRunCmd = &cli.Command{
	Name:  "run",
	Usage: "trigger a deploy",
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		record, err := apiClient.DeployNow(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("deploy %s enqueued\n", record.Id)
		return nil
	},
}

var deployListCmd = &cli.Command{
	Name:  "list",
	Usage: "list deploys, newest first",
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		records, err := apiClient.DeployList(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-38s %-8s %-10s %-12s %s\n", "ID", "TRIGGER", "STATUS", "DURATION", "COMMIT")
		for _, r := range records {
			fmt.Printf("%-38s %-8s %-10s %-12s %s\n", r.Id, r.Trigger, r.Status, r.Duration().Round(10e6), shortCommit(r.Commit))
		}
		return nil
	},
}

var deployShowCmd = &cli.Command{
	Name:      "show",
	Usage:     "show one deploy record",
	ArgsUsage: "<deploy id>",
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		if cctx.Args().Len() != 1 {
			return types.Wrapf(types.ErrInvalidParameters, "missing deploy id parameter")
		}

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		record, err := apiClient.DeployStatus(ctx, cctx.Args().First())
		if err != nil {
			return err
		}

		fmt.Printf("Id              : %s\n", record.Id)
		fmt.Printf("Trigger         : %s\n", record.Trigger)
		fmt.Printf("Status          : %s\n", record.Status)
		fmt.Printf("Remote          : %s\n", record.Remote)
		fmt.Printf("Branch          : %s\n", record.Branch)
		fmt.Printf("Commit          : %s\n", record.Commit)
		fmt.Printf("Cache key       : %s\n", record.CacheKey)
		fmt.Printf("Cache hit       : %v\n", record.CacheHit)
		fmt.Printf("Artifact cid    : %s\n", record.ArtifactCid)
		fmt.Printf("Published commit: %s\n", record.PublishedCommit)
		fmt.Printf("Duration        : %v\n", record.Duration())
		if record.Error != "" {
			fmt.Printf("Error           : %s\n", record.Error)
		}
		fmt.Println("Steps:")
		for _, step := range record.Steps {
			line := fmt.Sprintf("  %-14s %-10s %v", step.Name, step.Status, step.FinishedAt.Sub(step.StartedAt).Round(10e6))
			if step.Error != "" {
				line += " " + step.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

var cacheCmd = &cli.Command{
	Name:  "cache",
	Usage: "manage the build cache index",
	Subcommands: []*cli.Command{
		cacheLsCmd,
		cacheRmCmd,
		cachePruneCmd,
	},
}

var FlagCacheName = &cli.StringFlag{
	Name:     "name",
	Usage:    "cache pool name",
	Value:    "deploy",
	Required: false,
}

var cacheLsCmd = &cli.Command{
	Name:  "ls",
	Usage: "list cache keys",
	Flags: []cli.Flag{FlagCacheName},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		stats, err := apiClient.CacheStats(ctx, cctx.String("name"))
		if err != nil {
			return err
		}

		fmt.Printf("Cache %s: %d/%d\n", stats.Name, stats.Size, stats.Capacity)
		for _, key := range stats.Keys {
			fmt.Println(key)
		}
		return nil
	},
}

var cacheRmCmd = &cli.Command{
	Name:      "rm",
	Usage:     "drop one cache key",
	ArgsUsage: "<key>",
	Flags:     []cli.Flag{FlagCacheName},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		if cctx.Args().Len() != 1 {
			return types.Wrapf(types.ErrInvalidParameters, "missing cache key parameter")
		}

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		return apiClient.CacheEvict(ctx, cctx.String("name"), cctx.Args().First())
	},
}

var cachePruneCmd = &cli.Command{
	Name:  "prune",
	Usage: "drop every key of a cache pool",
	Flags: []cli.Flag{FlagCacheName},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		apiClient, closer, err := cliutil.GetNodeApi(cctx, cctx.String(FlagNodeRepo), NodeApi, cliutil.ApiToken)
		if err != nil {
			return err
		}
		defer closer()

		return apiClient.CachePrune(ctx, cctx.String("name"))
	},
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "inspect node configuration",
	Subcommands: []*cli.Command{
		configDefaultCmd,
		configShowCmd,
	},
}

var configDefaultCmd = &cli.Command{
	Name:  "default",
	Usage: "print the default commented config",
	Action: func(cctx *cli.Context) error {
		b, err := config.ConfigComment(config.DefaultNode())
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

var configShowCmd = &cli.Command{
	Name:  "show",
	Usage: "print the repo's effective config",
	Action: func(cctx *cli.Context) error {
		repo, err := prepareRepo(cctx)
		if err != nil {
			return err
		}

		c, err := repo.Config()
		if err != nil {
			return err
		}
		cfg, ok := c.(*config.Node)
		if !ok {
			return types.Wrapf(types.ErrDecodeConfigFailed, "invalid config for repo, got: %T", c)
		}

		b, err := config.ConfigUpdate(cfg, config.DefaultNode(), true)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func prepareRepo(cctx *cli.Context) (*repo.Repo, error) {
	return repo.PrepareRepo(cctx.String(FlagNodeRepo))
}
