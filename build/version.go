package build

// CurrentCommit is set through ldflags at build time.
var CurrentCommit string

const BuildVersion = "0.1.0"

func UserVersion() string {
	return BuildVersion + CurrentCommit
}
