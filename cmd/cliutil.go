package cliutil

import (
	"fmt"
	"os"
	"syscall"

	"uttt-node/api"
	apiclient "uttt-node/api/client"
	clidoc "uttt-node/gen/clidoc"
	"uttt-node/node/config"
	"uttt-node/node/repo"
	"uttt-node/types"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

const (
	APP_NAME_NODE   = "utttnode"
	APP_NAME_DEPLOY = "utttdeploy"
	APP_NAME_GAME   = "uttt"
)

// IsVeryVerbose is a global var signalling if the CLI is running in very
// verbose mode or not (default: false).
var IsVeryVerbose bool

// FlagVeryVerbose enables very verbose mode, which is useful when debugging
// the CLI itself. It should be included as a flag on the top-level command
// (e.g. utttnode -vv).
var FlagVeryVerbose = &cli.BoolFlag{
	Name:        "vv",
	Usage:       "enables very verbose mode, useful for debugging the CLI",
	Destination: &IsVeryVerbose,
}

var ApiToken string
var FlagToken = &cli.StringFlag{
	Name:        "token",
	Usage:       "api token",
	EnvVars:     []string{"UTTT_API_TOKEN"},
	Required:    false,
	Destination: &ApiToken,
}

// AskForToken prompts for a secret without echoing it.
func AskForToken(prompt string) (string, error) {
	fmt.Print(prompt)
	token, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// GetNodeApi dials the node's json-rpc endpoint. An empty nodeApi falls back
// to the api listen address in the repo config.
func GetNodeApi(cctx *cli.Context, repoPath string, nodeApi string, token string) (api.UtttApi, jsonrpc.ClientCloser, error) {
	if nodeApi == "" {
		r, err := repo.PrepareRepo(repoPath)
		if err != nil {
			return nil, nil, err
		}
		c, err := r.Config()
		if err != nil {
			return nil, nil, err
		}
		cfg, ok := c.(*config.Node)
		if !ok {
			return nil, nil, types.Wrapf(types.ErrDecodeConfigFailed, "invalid config for repo, got: %T", c)
		}
		nodeApi, err = ApiAddress(cfg.Api.ListenAddress)
		if err != nil {
			return nil, nil, err
		}
	}

	apiClient, closer, err := apiclient.NewNodeApi(cctx.Context, nodeApi, token)
	if err != nil {
		return nil, nil, types.Wrap(types.ErrCreateClientFailed, err)
	}
	return apiClient, closer, nil
}

// ApiAddress converts the node's multiaddr listen address into the http url
// the json-rpc client dials.
func ApiAddress(listenAddress string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(listenAddress)
	if err != nil {
		return "", types.Wrapf(types.ErrInvalidServerAddress, "%s: %v", listenAddress, err)
	}
	_, addr, err := manet.DialArgs(ma)
	if err != nil {
		return "", types.Wrapf(types.ErrInvalidServerAddress, "%s: %v", listenAddress, err)
	}
	return fmt.Sprintf("http://%s/rpc/v0", addr), nil
}

var GenerateDocCmd = &cli.Command{
	Name:   "clidoc",
	Hidden: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "output",
			Usage:    "file path to export to",
			Required: false,
		},
		&cli.StringFlag{
			Name:     "doctype",
			Usage:    "current supported type: markdown / man",
			Required: false,
			Value:    "markdown",
		},
	},
	Action: func(cctx *cli.Context) error {
		var output string
		var err error
		if cctx.String("doctype") == "markdown" {
			output, err = clidoc.ToMarkdown(cctx.App)
		} else {
			output, err = cctx.App.ToMan()
		}
		if err != nil {
			return err
		}
		outputFile := cctx.String("output")
		if outputFile == "" {
			outputFile = fmt.Sprintf("./docs/%s.md", cctx.App.Name)
		}
		err = os.WriteFile(outputFile, []byte(output), 0644)
		if err != nil {
			return err
		}
		fmt.Printf("markdown clidoc is exported to %s", outputFile)
		fmt.Println()
		return nil
	},
}
