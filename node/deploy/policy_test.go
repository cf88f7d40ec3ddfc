package deploy

import (
	"testing"

	"uttt-node/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

const denyWatchRules = `
rule DenyWatchDeploys "manual deploys only" salience 10 {
    when
        Deploy.Allow && Deploy.Trigger == "watch"
    then
        Deploy.Deny("watch deploys are disabled");
        Retract("DenyWatchDeploys");
}
`

func TestPolicyDefaultAllowsEverything(t *testing.T) {
	ps, err := NewPolicySvc("")
	require.NoError(t, err)

	require.NoError(t, ps.Evaluate(&types.DeployRecord{Trigger: types.TriggerWatch}))
	require.NoError(t, ps.Evaluate(&types.DeployRecord{Trigger: types.TriggerManual}))
}

func TestPolicyDenyRule(t *testing.T) {
	ps, err := NewPolicySvc("")
	require.NoError(t, err)
	require.NoError(t, ps.LoadRules([]byte(denyWatchRules)))

	err = ps.Evaluate(&types.DeployRecord{Trigger: types.TriggerWatch, Branch: "main"})
	require.Error(t, err)
	require.True(t, xerrors.Is(err, types.ErrDeployRejected))

	require.NoError(t, ps.Evaluate(&types.DeployRecord{Trigger: types.TriggerManual, Branch: "main"}))
}

func TestPolicyRejectsBrokenRules(t *testing.T) {
	ps, err := NewPolicySvc("")
	require.NoError(t, err)
	require.Error(t, ps.LoadRules([]byte("rule Broken {")))
}
