package memory

import (
	"context"
	"reflect"
	"strings"

	"github.com/openomni/tck/contracts/security"
	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// Authorizer evaluates a static policy set. Denies override allows, a
// request no statement matches is denied, and an empty resource is
// always denied.
type Authorizer struct {
	policies model.PolicySet
}

// NewAuthorizer returns an authorizer over a fixed policy set.
func NewAuthorizer(policies model.PolicySet) *Authorizer {
	return &Authorizer{policies: policies}
}

func (a *Authorizer) IsAllowed(_ context.Context, principal, action, resource string) (bool, error) {
	if resource == "" {
		return false, nil
	}
	allowed := false
	for _, stmt := range a.policies {
		if stmt.Principal != principal {
			continue
		}
		if !globMatch(stmt.Action, action) || !globMatch(stmt.Resource, resource) {
			continue
		}
		if stmt.Effect == model.EffectDeny {
			return false, nil
		}
		allowed = true
	}
	return allowed, nil
}

// globMatch matches value against pattern where '*' matches any run of
// characters, including separators.
func globMatch(pattern, value string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == value
	}
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(value, part)
		if idx < 0 {
			return false
		}
		value = value[idx+len(part):]
	}
	return strings.HasSuffix(value, parts[len(parts)-1])
}

// IAMFixture builds a fixture constructing one authorizer per env from
// the "policy_set" param.
func IAMFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*Authorizer)(nil)),
			Params: []tck.ParamSpec{
				tck.Param[model.PolicySet]("policy_set"),
			},
		},
		New: func(context.Context) (tck.Factory, error) {
			return func(_ context.Context, params tck.Params) (*tck.Env, error) {
				policies, err := tck.ParamValue[model.PolicySet](params, "policy_set")
				if err != nil {
					return nil, err
				}
				return &tck.Env{Provider: NewAuthorizer(policies)}, nil
			}, nil
		},
	}
}

var _ security.Authorizer = (*Authorizer)(nil)
