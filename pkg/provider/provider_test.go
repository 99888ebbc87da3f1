package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("resolve password: %w", NotFoundError{Provider: "vault", Key: "ci/nexus"})
	assert.Equal(t, "resolve password: secret not found: ci/nexus in vault", err.Error())

	var nf NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "ci/nexus", nf.Key)
}

func TestAuthError(t *testing.T) {
	t.Parallel()

	err := AuthError{Provider: "aws", Message: "expired token"}
	assert.Equal(t, "authentication failed for aws: expired token", err.Error())
}
