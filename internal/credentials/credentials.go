// Package credentials resolves repository server credentials from secret
// stores and hands them to Maven through the child environment.
package credentials

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/systmms/mvnops/internal/config"
	dserrors "github.com/systmms/mvnops/internal/errors"
	"github.com/systmms/mvnops/internal/logging"
	"github.com/systmms/mvnops/internal/providers"
	"github.com/systmms/mvnops/internal/secure"
	"github.com/systmms/mvnops/pkg/provider"
)

const (
	envPrefix             = "MVNOPS_SERVER_"
	defaultStoreTimeout   = 30 * time.Second
	maxConcurrentLookups  = 10
	storeTimeoutConfigKey = "timeout_ms"
)

// EnvName returns the variable that carries one credential field of a
// server, for example MVNOPS_SERVER_NEXUS_RELEASES_PASSWORD.
func EnvName(serverID, field string) string {
	return envPrefix + config.ServerEnvKey(serverID) + "_" + strings.ToUpper(field)
}

// Resolver turns configured server references into sealed values.
type Resolver struct {
	cfg      config.CredentialsConfig
	registry *providers.Registry
	logger   *logging.Logger

	mu     sync.Mutex
	stores map[string]provider.Provider
}

// New returns a resolver. Stores are instantiated lazily on first use.
func New(cfg config.CredentialsConfig, registry *providers.Registry, logger *logging.Logger) *Resolver {
	if registry == nil {
		registry = providers.NewRegistry()
	}
	if logger == nil {
		logger = logging.New(false, true)
	}
	return &Resolver{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		stores:   make(map[string]provider.Provider),
	}
}

// ServerIDs returns the configured repository ids, sorted.
func (r *Resolver) ServerIDs() []string {
	ids := make([]string, 0, len(r.cfg.Servers))
	for id := range r.cfg.Servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StoreNames returns the configured store names, sorted.
func (r *Resolver) StoreNames() []string {
	names := make([]string, 0, len(r.cfg.Stores))
	for n := range r.cfg.Stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve fetches the username and password of every configured server
// concurrently. The caller owns the returned bag and must Destroy it.
func (r *Resolver) Resolve(ctx context.Context) (*secure.Bag, error) {
	bag := secure.NewBag()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for _, id := range r.ServerIDs() {
		server := r.cfg.Servers[id]
		for field, ref := range map[string]config.SecretRef{"username": server.Username, "password": server.Password} {
			g.Go(func() error {
				value, err := r.resolveRef(gctx, ref)
				if err != nil {
					return dserrors.UserError{
						Message:    fmt.Sprintf("Failed to resolve %s for server '%s'", field, id),
						Details:    err.Error(),
						Suggestion: "Run 'mvnops doctor' to check store connectivity",
						Err:        err,
					}
				}
				return bag.Put(EnvName(id, field), value)
			})
		}
	}

	if err := g.Wait(); err != nil {
		bag.Destroy()
		return nil, err
	}
	r.logger.Debug("Resolved credentials for %d server(s)", len(r.cfg.Servers))
	return bag, nil
}

func (r *Resolver) resolveRef(ctx context.Context, ref config.SecretRef) (string, error) {
	if ref.Store == "" {
		return ref.Literal, nil
	}
	p, err := r.store(ref.Store)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout(ref.Store))
	defer cancel()

	v, err := p.Resolve(ctx, provider.Reference{Store: ref.Store, Key: ref.Key, Version: ref.Version})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", dserrors.UserError{
				Message:    "Secret store operation timed out",
				Details:    fmt.Sprintf("store '%s' exceeded %s", ref.Store, r.storeTimeout(ref.Store)),
				Suggestion: fmt.Sprintf("Raise %s on credentials.stores.%s", storeTimeoutConfigKey, ref.Store),
				Err:        err,
			}
		}
		return "", dserrors.ProviderError(r.cfg.Stores[ref.Store].Type, "resolve", err)
	}
	r.logger.Debug("Resolved %s from store %s", ref.Key, ref.Store)
	return v.Value, nil
}

func (r *Resolver) storeTimeout(name string) time.Duration {
	switch v := r.cfg.Stores[name].Config[storeTimeoutConfigKey].(type) {
	case int:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultStoreTimeout
}

func (r *Resolver) store(name string) (provider.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.stores[name]; ok {
		return p, nil
	}
	sc, ok := r.cfg.Stores[name]
	if !ok {
		return nil, dserrors.ConfigError{
			Field:      "credentials.stores",
			Value:      name,
			Message:    "secret store not found in configuration",
			Suggestion: fmt.Sprintf("Add store '%s' to the 'credentials.stores' section of mvnops.yaml", name),
		}
	}
	p, err := r.registry.Create(name, sc)
	if err != nil {
		return nil, dserrors.ConfigError{
			Field:   "credentials.stores." + name,
			Value:   sc.Type,
			Message: err.Error(),
			Err:     err,
		}
	}
	r.stores[name] = p
	return p, nil
}

// StoreStatus is the outcome of validating one store.
type StoreStatus struct {
	Name string
	Type string
	Err  error
}

// Validate checks every configured store without reading a secret. Errors
// are returned raw; callers pass them through errors.ProviderError for display.
func (r *Resolver) Validate(ctx context.Context) []StoreStatus {
	names := r.StoreNames()
	statuses := make([]StoreStatus, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		statuses[i] = StoreStatus{Name: name, Type: r.cfg.Stores[name].Type}
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			p, err := r.store(name)
			if err == nil {
				vctx, cancel := context.WithTimeout(ctx, r.storeTimeout(name))
				err = p.Validate(vctx)
				cancel()
			}
			statuses[i].Err = err
		}(i, name)
	}
	wg.Wait()
	return statuses
}
