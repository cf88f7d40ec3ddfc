package config

type DocField struct {
	Name    string
	Type    string
	Comment string
}

// Doc backs the comments emitted into the default config.toml.
var Doc = map[string][]DocField{
	"Node": {
		{Name: "Api", Type: "API"},
		{Name: "Deploy", Type: "Deploy"},
		{Name: "Build", Type: "Build"},
		{Name: "Publish", Type: "Publish"},
		{Name: "Cache", Type: "Cache"},
		{Name: "Site", Type: "Site"},
		{Name: "History", Type: "History"},
		{Name: "Ipfs", Type: "Ipfs"},
	},
	"Common": {
		{Name: "Source", Type: "Source"},
		{Name: "Module", Type: "Module"},
	},
	"Source": {
		{Name: "Remote", Type: "string", Comment: "git remote holding the site source"},
		{Name: "Branch", Type: "string", Comment: "branch whose pushes trigger deploys"},
		{Name: "LocalPath", Type: "string", Comment: "build a local working tree instead of cloning Remote"},
	},
	"Module": {
		{Name: "DeployEnable", Type: "bool", Comment: "enable the deploy pipeline and watcher"},
		{Name: "SiteEnable", Type: "bool", Comment: "enable the site preview server"},
		{Name: "HistoryEnable", Type: "bool", Comment: "enable deploy history and the graphql service"},
	},
	"API": {
		{Name: "ListenAddress", Type: "string", Comment: "multiaddress the json-rpc API binds to"},
		{Name: "Timeout", Type: "time.Duration"},
		{Name: "EnablePermission", Type: "bool", Comment: "require JWT bearer tokens on API calls"},
	},
	"Deploy": {
		{Name: "WatchEnable", Type: "bool", Comment: "watch the source branch and deploy each new head"},
		{Name: "PollInterval", Type: "time.Duration", Comment: "remote head poll interval"},
		{Name: "Manifest", Type: "string", Comment: "site manifest file name, relative to the source root"},
		{Name: "RulesPath", Type: "string", Comment: "grule json rule set gating deploys; empty allows everything"},
	},
	"Build": {
		{Name: "GoBin", Type: "string", Comment: "go binary to build with; looked up on PATH when empty"},
		{Name: "GoVersion", Type: "string", Comment: "pinned toolchain version, e.g. 1.19.3"},
		{Name: "Package", Type: "string", Comment: "go package of the wasm binary"},
		{Name: "WebDir", Type: "string", Comment: "static asset directory copied into the output"},
		{Name: "WasmOptVersion", Type: "string", Comment: "binaryen release to fetch wasm-opt from; empty skips post-processing"},
		{Name: "WasmOptDigest", Type: "string", Comment: "expected sha256 of the binaryen release archive"},
	},
	"Publish": {
		{Name: "PagesBranch", Type: "string", Comment: "branch receiving the built site, history replaced on each deploy"},
		{Name: "Remote", Type: "string", Comment: "remote to push to; Source.Remote when empty"},
		{Name: "CommitMessage", Type: "string"},
		{Name: "AuthorName", Type: "string"},
		{Name: "AuthorEmail", Type: "string"},
		{Name: "TokenEnv", Type: "string", Comment: "env var holding the publish token, read from the environment or .env"},
		{Name: "IpfsPin", Type: "bool", Comment: "also pin the dist archive to the configured ipfs backends"},
	},
	"Cache": {
		{Name: "EnableCache", Type: "bool"},
		{Name: "CacheCapacity", Type: "int"},
		{Name: "ContentLimit", Type: "int"},
		{Name: "RedisConn", Type: "string"},
		{Name: "RedisPassword", Type: "string"},
		{Name: "RedisPoolSize", Type: "int"},
		{Name: "MemcachedConn", Type: "string"},
	},
	"Site": {
		{Name: "ListenAddress", Type: "string", Comment: "binding address for the site server"},
		{Name: "EnableSiteLog", Type: "bool"},
		{Name: "TokenProtected", Type: "bool", Comment: "require a share token query parameter"},
		{Name: "TokenPeriod", Type: "time.Duration"},
	},
	"History": {
		{Name: "DbPath", Type: "string", Comment: "sqlite db file, relative to the repo when not absolute"},
		{Name: "ListenAddress", Type: "string", Comment: "binding address for the graphql service"},
	},
	"Ipfs": {
		{Name: "Conn", Type: "[]string", Comment: "ipfs connection strings, e.g. ipfs+http://127.0.0.1:5001"},
	},
}
