package primitives

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/model"
	"github.com/openomni/tck/tck"
)

// Default seed used when a clause does not override the seeded secret.
const (
	DefaultSecretName  = "tck/secrets/seeded"
	DefaultSecretValue = "super-secret-tck-value"
)

// SecretsContract defines the compliance suite for any provider exposing
// the Secrets capability. The fixture factory must seed the secret named
// by the secret_name parameter with secret_value before returning the
// provider.
func SecretsContract() *tck.Contract {
	c := tck.NewContract("primitives", "secrets", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[Secrets]()},
		Params: []tck.ParamSpec{
			tck.ParamWithDefault[string]("secret_name", DefaultSecretName),
			tck.ParamWithDefault[string]("secret_value", DefaultSecretValue),
		},
	})
	c.Clause("get_seeded_secret",
		"A pre-configured secret is retrievable with its exact value.", secretsGetSeeded)
	c.Clause("get_missing_secret_is_not_found",
		"Retrieving a missing secret surfaces ErrSecretNotFound, not an empty value.", secretsGetMissing)
	c.Clause("repeated_get_is_consistent",
		"Reading the same secret twice yields the same value.", secretsRepeatedGet)
	return c
}

func secretsGetSeeded(ctx context.Context, tc *tck.TC) error {
	name := "tck/secrets/" + uuid.NewString()
	want := "secret-value-" + uuid.NewString()
	env, err := tc.Env(ctx, tck.Params{"secret_name": name, "secret_value": want})
	if err != nil {
		return err
	}
	provider, err := tck.ProviderAs[Secrets](env)
	if err != nil {
		return err
	}
	got, err := provider.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("get seeded secret: %w", err)
	}
	if got != want {
		return tck.Violated("get seeded secret", fmt.Sprintf("%q", want), fmt.Sprintf("%q", got))
	}
	return nil
}

func secretsGetMissing(ctx context.Context, tc *tck.TC) error {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return err
	}
	provider, err := tck.ProviderAs[Secrets](env)
	if err != nil {
		return err
	}
	got, err := provider.Get(ctx, "tck/non-existent/"+uuid.NewString())
	if err == nil {
		return tck.Violated("get of missing secret", "ErrSecretNotFound", fmt.Sprintf("value %q with no error", got))
	}
	if !errors.Is(err, model.ErrSecretNotFound) {
		return tck.Violated("get of missing secret", "ErrSecretNotFound", err.Error())
	}
	return nil
}

func secretsRepeatedGet(ctx context.Context, tc *tck.TC) error {
	name := "tck/secrets/" + uuid.NewString()
	want := "secret-value-" + uuid.NewString()
	env, err := tc.Env(ctx, tck.Params{"secret_name": name, "secret_value": want})
	if err != nil {
		return err
	}
	provider, err := tck.ProviderAs[Secrets](env)
	if err != nil {
		return err
	}
	first, err := provider.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("first get: %w", err)
	}
	second, err := provider.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("second get: %w", err)
	}
	if first != want || second != first {
		return tck.Violated("repeated get", fmt.Sprintf("%q both times", want),
			fmt.Sprintf("%q then %q", first, second))
	}
	return nil
}
