// Package provider defines the interface implemented by secret stores that
// supply repository credentials.
//
// A store is configured under credentials.stores in mvnops.yaml and is
// addressed by a Reference whose Key is store specific: a secret name, a
// parameter path, a keychain account. Keys may carry a JSON field selector
// after '#', for example "ci/nexus#.password".
//
// Implementations must be safe for concurrent use and must never log
// resolved values.
package provider

import (
	"context"
	"time"
)

// Provider resolves secret values from one configured store.
type Provider interface {
	// Name returns the store name from configuration.
	Name() string

	// Resolve fetches the value addressed by ref. A missing secret is
	// reported as NotFoundError.
	Resolve(ctx context.Context, ref Reference) (SecretValue, error)

	// Validate checks configuration and connectivity without reading a secret.
	Validate(ctx context.Context) error
}

// Reference addresses a value inside a store.
type Reference struct {
	Store   string
	Key     string
	Version string
}

// SecretValue is a resolved value. Callers seal Value into a secure buffer
// as soon as they receive it.
type SecretValue struct {
	Value     string
	Version   string
	UpdatedAt time.Time
}

// NotFoundError is returned when the addressed secret does not exist.
type NotFoundError struct {
	Provider string
	Key      string
}

func (e NotFoundError) Error() string {
	return "secret not found: " + e.Key + " in " + e.Provider
}

// AuthError is returned when a store rejects the configured identity.
type AuthError struct {
	Provider string
	Message  string
}

func (e AuthError) Error() string {
	return "authentication failed for " + e.Provider + ": " + e.Message
}
