package apitypes

type NodeStatusResp struct {
	Version string

	SourceRemote string
	SourceBranch string

	DeployEnabled  bool
	SiteEnabled    bool
	HistoryEnabled bool

	PendingDeploys int
}

type GenerateTokenResp struct {
	Server string
	Token  string
}

type CacheStatsResp struct {
	Name     string
	Size     int
	Capacity int
	Keys     []string
}
