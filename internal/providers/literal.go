package providers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/systmms/mvnops/pkg/provider"
)

// LiteralProvider serves values written directly in the configuration.
// It is meant for local setups and tests.
type LiteralProvider struct {
	name   string
	values map[string]string
}

func NewLiteralProvider(name string, values map[string]string) *LiteralProvider {
	if values == nil {
		values = make(map[string]string)
	}
	return &LiteralProvider{name: name, values: values}
}

func (l *LiteralProvider) Name() string { return l.name }

func (l *LiteralProvider) Resolve(_ context.Context, ref provider.Reference) (provider.SecretValue, error) {
	value, ok := l.values[ref.Key]
	if !ok {
		return provider.SecretValue{}, provider.NotFoundError{Provider: l.name, Key: ref.Key}
	}
	return provider.SecretValue{Value: value, Version: "1", UpdatedAt: time.Now()}, nil
}

func (l *LiteralProvider) Validate(context.Context) error { return nil }

func NewLiteralProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	values := make(map[string]string)
	raw, ok := cfg["values"].(map[string]interface{})
	if !ok && cfg["values"] != nil {
		return nil, fmt.Errorf("values must be a mapping")
	}
	for k, v := range raw {
		values[k] = fmt.Sprint(v)
	}
	return NewLiteralProvider(name, values), nil
}

// EnvProvider reads values from the mvnops process environment. An optional
// prefix is prepended to every key.
type EnvProvider struct {
	name   string
	prefix string
	lookup func(string) (string, bool)
}

func NewEnvProvider(name, prefix string, lookup func(string) (string, bool)) *EnvProvider {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvProvider{name: name, prefix: prefix, lookup: lookup}
}

func (e *EnvProvider) Name() string { return e.name }

func (e *EnvProvider) Resolve(_ context.Context, ref provider.Reference) (provider.SecretValue, error) {
	key := e.prefix + ref.Key
	value, ok := e.lookup(key)
	if !ok {
		return provider.SecretValue{}, provider.NotFoundError{Provider: e.name, Key: key}
	}
	return provider.SecretValue{Value: value, UpdatedAt: time.Now()}, nil
}

func (e *EnvProvider) Validate(context.Context) error { return nil }

func NewEnvProviderFactory(name string, cfg map[string]interface{}) (provider.Provider, error) {
	return NewEnvProvider(name, stringOpt(cfg, "prefix"), nil), nil
}
