package fakes

import (
	"context"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FakeGCPSecretManagerClient serves secret versions keyed by full resource name.
type FakeGCPSecretManagerClient struct {
	Versions map[string][]byte
	Errors   map[string]error
	ListErr  error
}

func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Versions: make(map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// AddSecretVersion registers the value under both the numbered and the
// "latest" resource names.
func (f *FakeGCPSecretManagerClient) AddSecretVersion(project, secret, version string, value []byte) {
	base := "projects/" + project + "/secrets/" + secret + "/versions/"
	f.Versions[base+version] = value
	f.Versions[base+"latest"] = value
}

func (f *FakeGCPSecretManagerClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	if err, ok := f.Errors[req.GetName()]; ok {
		return nil, err
	}
	data, ok := f.Versions[req.GetName()]
	if !ok {
		return nil, GCPNotFoundError(req.GetName())
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.GetName(),
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	}, nil
}

func (f *FakeGCPSecretManagerClient) ListFirstSecret(context.Context, string) error {
	return f.ListErr
}

func GCPNotFoundError(resourceName string) error {
	return status.Errorf(codes.NotFound, "Resource %s not found", resourceName)
}

func GCPPermissionDeniedError(message string) error {
	return status.Error(codes.PermissionDenied, message)
}

func GCPUnavailableError() error {
	return status.Error(codes.Unavailable, "connection reset")
}
