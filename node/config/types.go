package config

import "time"

type Common struct {
	Source Source
	Module Module
}

// Node is the toml config for a uttt node repo.
type Node struct {
	Common

	Api     API
	Deploy  Deploy
	Build   Build
	Publish Publish
	Cache   Cache
	Site    Site
	History History
	Ipfs    Ipfs
}

// Source describes the tree the pipeline builds.
type Source struct {

	// git remote holding the site source
	Remote string

	// branch whose pushes trigger deploys
	Branch string

	// build a local working tree instead of cloning Remote
	LocalPath string
}

// Module contains toggles for submodules
type Module struct {

	// Enable deploy module
	DeployEnable bool

	// Enable site preview server
	SiteEnable bool

	// Enable deploy history and graphql service
	HistoryEnable bool
}

// API contains configs for the json-rpc endpoint
type API struct {

	// Binding address for the node API
	ListenAddress string

	Timeout time.Duration

	EnablePermission bool
}

// Deploy contains configs for the deploy service
type Deploy struct {

	// watch Source.Branch and deploy each new head
	WatchEnable bool

	// remote head poll interval
	PollInterval time.Duration

	// site manifest file name, relative to the source root
	Manifest string

	// path to a grule GRL rule set gating deploys; empty allows everything
	RulesPath string
}

// Build contains configs for toolchain provisioning and the site build
type Build struct {

	// go binary to build with; looked up on PATH when empty
	GoBin string

	// pinned toolchain version, e.g. "1.19.3"; the system go is accepted
	// when it already matches
	GoVersion string

	// go package of the wasm binary
	Package string

	// static asset directory copied into the output
	WebDir string

	// binaryen release to fetch wasm-opt from, e.g. "110"; empty skips the
	// post-processing step
	WasmOptVersion string

	// expected sha256 of the binaryen release archive; empty skips the check
	WasmOptDigest string
}

// Publish contains configs for the force-orphan pages publish
type Publish struct {

	// branch receiving the built site
	PagesBranch string

	// remote to push to; Source.Remote when empty
	Remote string

	CommitMessage string
	AuthorName    string
	AuthorEmail   string

	// env var holding the publish token; read from the environment or the
	// repo .env file, never from this config
	TokenEnv string

	// also pin the dist archive to the configured ipfs backends
	IpfsPin bool
}

type Cache struct {
	EnableCache   bool
	CacheCapacity int
	ContentLimit  int
	RedisConn     string
	RedisPassword string
	RedisPoolSize int
	MemcachedConn string
}

// Site contains configs for the preview server
type Site struct {

	// Binding address for the site server
	ListenAddress string

	EnableSiteLog bool

	// require a share token query parameter
	TokenProtected bool

	TokenPeriod time.Duration
}

// History contains configs for deploy history and the graphql service
type History struct {

	// sqlite db file, relative to the repo when not absolute
	DbPath string

	// Binding address for the graphql service
	ListenAddress string
}

// Ipfs contains configs for backend ipfs blob stores
type Ipfs struct {

	// ipfs connection strings, e.g. "ipfs+http://127.0.0.1:5001"
	Conn []string
}
