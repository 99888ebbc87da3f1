package fakes

import (
	"context"
	"errors"
	"sync"
)

// ErrAkeylessNotFound mirrors the not-found result of the SDK client.
var ErrAkeylessNotFound = errors.New("akeyless secret not found")

// FakeAkeylessClient counts authentications so token caching can be tested.
type FakeAkeylessClient struct {
	mu        sync.Mutex
	Secrets   map[string]string
	AuthErr   error
	AuthCalls int
	Token     string
	NotFound  error
}

func NewFakeAkeylessClient() *FakeAkeylessClient {
	return &FakeAkeylessClient{Secrets: make(map[string]string), Token: "t-123"}
}

func (f *FakeAkeylessClient) Authenticate(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AuthCalls++
	if f.AuthErr != nil {
		return "", f.AuthErr
	}
	return f.Token, nil
}

func (f *FakeAkeylessClient) GetSecret(_ context.Context, token, path string) (string, error) {
	if token != f.Token {
		return "", errors.New("401 Unauthorized")
	}
	v, ok := f.Secrets[path]
	if !ok {
		if f.NotFound != nil {
			return "", f.NotFound
		}
		return "", ErrAkeylessNotFound
	}
	return v, nil
}
