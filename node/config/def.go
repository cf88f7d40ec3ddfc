package config

import "time"

func DefaultNode() *Node {
	return &Node{
		Common: Common{
			Source: Source{
				Remote: "",
				Branch: "main",
			},
			Module: Module{
				DeployEnable:  true,
				SiteEnable:    true,
				HistoryEnable: true,
			},
		},
		Api: API{
			ListenAddress:    "/ip4/127.0.0.1/tcp/5151/http",
			Timeout:          30 * time.Second,
			EnablePermission: false,
		},
		Deploy: Deploy{
			WatchEnable:  true,
			PollInterval: time.Minute,
			Manifest:     "uttt-site.yaml",
		},
		Build: Build{
			Package:        "./cmd/web",
			WebDir:         "web",
			WasmOptVersion: "110",
		},
		Publish: Publish{
			PagesBranch:   "gh-pages",
			CommitMessage: "deploy",
			AuthorName:    "uttt-node",
			AuthorEmail:   "uttt-node@localhost",
			TokenEnv:      "UTTT_PUBLISH_TOKEN",
		},
		Cache: Cache{
			EnableCache:   true,
			CacheCapacity: 1000,
			ContentLimit:  2097152,
		},
		Site: Site{
			ListenAddress: "127.0.0.1:5152",
			TokenPeriod:   24 * time.Hour,
		},
		History: History{
			DbPath:        "history.db",
			ListenAddress: "127.0.0.1:5155",
		},
	}
}
