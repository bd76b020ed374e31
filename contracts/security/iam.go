package security

import (
	"context"
	"fmt"
	"reflect"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// Authorizer decides whether a principal may perform an action on a
// resource under the policy set the fixture was configured with.
type Authorizer interface {
	IsAllowed(ctx context.Context, principal, action, resource string) (bool, error)
}

// IAMContract defines the compliance suite for providers of the
// Authorizer capability. Each clause builds its own policy set and
// passes it through the required "policy_set" param.
func IAMContract() *tck.Contract {
	c := tck.NewContract("security", "iam", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Authorizer]()},
		Params: []tck.ParamSpec{
			tck.Param[model.PolicySet]("policy_set"),
		},
	})
	c.Clause("explicit_allow_grants",
		"A matching allow statement grants access.", iamExplicitAllow)
	c.Clause("unmatched_action_denied",
		"An action no statement covers is denied.", iamUnmatchedAction)
	c.Clause("empty_policy_set_denies",
		"With no statements every request is denied.", iamEmptySet)
	c.Clause("empty_resource_denied",
		"A request with an empty resource is denied even under a wildcard allow.", iamEmptyResource)
	c.Clause("deny_overrides_allow",
		"An explicit deny wins over a matching allow.", iamDenyOverrides)
	c.Clause("action_wildcards_match",
		"Action wildcards like s3:Get* cover their prefix.", iamActionWildcard)
	return c
}

func authorizer(ctx context.Context, tc *tck.TC, policies model.PolicySet) (Authorizer, error) {
	env, err := tc.Env(ctx, tck.Params{"policy_set": policies})
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[Authorizer](env)
}

func checkDecision(ctx context.Context, az Authorizer, principal, action, resource string, want bool) error {
	got, err := az.IsAllowed(ctx, principal, action, resource)
	if err != nil {
		return fmt.Errorf("is_allowed(%s, %s, %s): %w", principal, action, resource, err)
	}
	if got != want {
		return tck.Violated(
			fmt.Sprintf("decision for (%s, %s, %s)", principal, action, resource),
			want, got)
	}
	return nil
}

func iamExplicitAllow(ctx context.Context, tc *tck.TC) error {
	az, err := authorizer(ctx, tc, model.PolicySet{
		{Effect: model.EffectAllow, Principal: "alice", Action: "s3:GetObject", Resource: "bucket/reports/*"},
	})
	if err != nil {
		return err
	}
	if err := checkDecision(ctx, az, "alice", "s3:GetObject", "bucket/reports/q3.csv", true); err != nil {
		return err
	}
	// A different principal gets nothing from alice's statement.
	return checkDecision(ctx, az, "bob", "s3:GetObject", "bucket/reports/q3.csv", false)
}

func iamUnmatchedAction(ctx context.Context, tc *tck.TC) error {
	az, err := authorizer(ctx, tc, model.PolicySet{
		{Effect: model.EffectAllow, Principal: "alice", Action: "s3:GetObject", Resource: "*"},
	})
	if err != nil {
		return err
	}
	return checkDecision(ctx, az, "alice", "s3:DeleteObject", "bucket/reports/q3.csv", false)
}

func iamEmptySet(ctx context.Context, tc *tck.TC) error {
	az, err := authorizer(ctx, tc, model.PolicySet{})
	if err != nil {
		return err
	}
	return checkDecision(ctx, az, "alice", "s3:GetObject", "bucket/reports/q3.csv", false)
}

func iamEmptyResource(ctx context.Context, tc *tck.TC) error {
	az, err := authorizer(ctx, tc, model.PolicySet{
		{Effect: model.EffectAllow, Principal: "alice", Action: "*", Resource: "*"},
	})
	if err != nil {
		return err
	}
	return checkDecision(ctx, az, "alice", "s3:GetObject", "", false)
}

func iamDenyOverrides(ctx context.Context, tc *tck.TC) error {
	az, err := authorizer(ctx, tc, model.PolicySet{
		{Effect: model.EffectAllow, Principal: "alice", Action: "*", Resource: "bucket/*"},
		{Effect: model.EffectDeny, Principal: "alice", Action: "s3:DeleteObject", Resource: "bucket/*"},
	})
	if err != nil {
		return err
	}
	if err := checkDecision(ctx, az, "alice", "s3:GetObject", "bucket/reports/q3.csv", true); err != nil {
		return err
	}
	return checkDecision(ctx, az, "alice", "s3:DeleteObject", "bucket/reports/q3.csv", false)
}

func iamActionWildcard(ctx context.Context, tc *tck.TC) error {
	az, err := authorizer(ctx, tc, model.PolicySet{
		{Effect: model.EffectAllow, Principal: "alice", Action: "s3:Get*", Resource: "bucket/*"},
	})
	if err != nil {
		return err
	}
	if err := checkDecision(ctx, az, "alice", "s3:GetObject", "bucket/a", true); err != nil {
		return err
	}
	if err := checkDecision(ctx, az, "alice", "s3:GetObjectTagging", "bucket/a", true); err != nil {
		return err
	}
	return checkDecision(ctx, az, "alice", "s3:PutObject", "bucket/a", false)
}
