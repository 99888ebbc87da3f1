package fakes

import (
	"github.com/zalando/go-keyring"
)

// FakeKeychainClient stores items as service -> account -> value.
type FakeKeychainClient struct {
	Items map[string]map[string]string
	Err   error
}

func NewFakeKeychainClient() *FakeKeychainClient {
	return &FakeKeychainClient{Items: make(map[string]map[string]string)}
}

func (f *FakeKeychainClient) Set(service, account, value string) {
	if f.Items[service] == nil {
		f.Items[service] = make(map[string]string)
	}
	f.Items[service][account] = value
}

func (f *FakeKeychainClient) Get(service, account string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	v, ok := f.Items[service][account]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}
