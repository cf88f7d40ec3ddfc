package deploy

import (
	"os"
	"time"

	"uttt-node/types"

	"github.com/hyperjumptech/grule-rule-engine/ast"
	"github.com/hyperjumptech/grule-rule-engine/builder"
	"github.com/hyperjumptech/grule-rule-engine/engine"
	"github.com/hyperjumptech/grule-rule-engine/pkg"
)

const (
	policyKnowledgeBase = "deploy-policy"
	policyVersion       = "0.0.1"
)

// DeployFact is the working memory handed to the policy rules. Rules call
// Deny to veto the run; without rules (or with none firing) the run is
// allowed.
type DeployFact struct {
	Trigger string
	Branch  string
	Commit  string
	Hour    int
	Weekday string

	Allow  bool
	Reason string
}

func (f *DeployFact) Deny(reason string) {
	f.Allow = false
	f.Reason = reason
}

// PolicySvc evaluates operator-supplied GRL rules before each run.
type PolicySvc struct {
	library   *ast.KnowledgeLibrary
	haveRules bool
}

// NewPolicySvc loads rules from rulesPath. An empty path or missing file
// yields an allow-everything policy.
func NewPolicySvc(rulesPath string) (*PolicySvc, error) {
	ps := &PolicySvc{
		library: ast.NewKnowledgeLibrary(),
	}
	if rulesPath == "" {
		return ps, nil
	}

	raw, err := os.ReadFile(rulesPath)
	if os.IsNotExist(err) {
		log.Warnf("deploy rules %s not found, allowing all deploys", rulesPath)
		return ps, nil
	}
	if err != nil {
		return nil, types.Wrap(types.ErrRuleEvaluationFailed, err)
	}
	if err = ps.LoadRules(raw); err != nil {
		return nil, err
	}
	return ps, nil
}

// LoadRules compiles a GRL ruleset into the knowledge library.
func (ps *PolicySvc) LoadRules(grl []byte) error {
	rb := builder.NewRuleBuilder(ps.library)
	if err := rb.BuildRuleFromResource(policyKnowledgeBase, policyVersion, pkg.NewBytesResource(grl)); err != nil {
		return types.Wrap(types.ErrRuleEvaluationFailed, err)
	}
	ps.haveRules = true
	return nil
}

// Evaluate runs the rules against a deploy record and returns
// ErrDeployRejected when a rule denied it.
func (ps *PolicySvc) Evaluate(record *types.DeployRecord) error {
	if !ps.haveRules {
		return nil
	}

	now := time.Now()
	fact := &DeployFact{
		Trigger: string(record.Trigger),
		Branch:  record.Branch,
		Commit:  record.Commit,
		Hour:    now.Hour(),
		Weekday: now.Weekday().String(),
		Allow:   true,
	}

	dataCtx := ast.NewDataContext()
	if err := dataCtx.Add("Deploy", fact); err != nil {
		return types.Wrap(types.ErrRuleEvaluationFailed, err)
	}
	kb := ps.library.NewKnowledgeBaseInstance(policyKnowledgeBase, policyVersion)
	if err := engine.NewGruleEngine().Execute(dataCtx, kb); err != nil {
		return types.Wrap(types.ErrRuleEvaluationFailed, err)
	}

	if !fact.Allow {
		return types.Wrapf(types.ErrDeployRejected, "%s", fact.Reason)
	}
	return nil
}
