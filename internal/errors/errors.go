package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/mvnops/pkg/coordinate"
	"github.com/systmms/mvnops/pkg/descriptor"
	"github.com/systmms/mvnops/pkg/invoker"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
	Err        error
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents a failed Maven invocation
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
	Err        error
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

func (e CommandError) Unwrap() error {
	return e.Err
}

// ProviderError enhances secret store errors with context
func ProviderError(provider string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s store error during %s", provider, operation),
		Suggestion: getProviderSuggestion(provider, err),
		Err:        err,
	}
}

// getProviderSuggestion returns helpful suggestions based on store type and error
func getProviderSuggestion(provider string, err error) string {
	errStr := err.Error()

	switch provider {
	case "aws.secretsmanager", "aws.ssm":
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for secretsmanager:GetSecretValue or ssm:GetParameter"
		}
		if strings.Contains(errStr, "ResourceNotFoundException") || strings.Contains(errStr, "ParameterNotFound") {
			return "Verify the secret name and region"
		}
		if strings.Contains(errStr, "credentials") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "ThrottlingException") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case "gcp.secretmanager":
		if strings.Contains(errStr, "PermissionDenied") {
			return "Grant roles/secretmanager.secretAccessor to the active account"
		}
		if strings.Contains(errStr, "could not find default credentials") {
			return "Run 'gcloud auth application-default login' or set credentials_file"
		}

	case "azure.keyvault":
		if strings.Contains(errStr, "SecretNotFound") {
			return "Verify the secret name with 'az keyvault secret list'"
		}
		if strings.Contains(errStr, "Forbidden") {
			return "Check the Key Vault access policy for get permission on secrets"
		}

	case "keychain":
		if strings.Contains(errStr, "not found") {
			return "Add the item to the OS keychain under the configured service"
		}

	case "akeyless":
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "Unauthorized") {
			return "Check the Akeyless access ID and access key"
		}
	}

	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and store configuration"
	}

	return ""
}

// WrapMavenNotFound explains how to make Maven available.
func WrapMavenNotFound(executable string, err error) error {
	return CommandError{
		Command:    executable,
		Message:    "maven executable not found",
		Suggestion: "Install Maven from https://maven.apache.org/ or set maven.invoker.maven_home in mvnops.yaml",
		Err:        err,
	}
}

// Explain maps invocation errors onto user-facing errors with suggestions.
// Errors that are already user-facing, and unknown errors, are returned as is.
func Explain(err error) error {
	if err == nil {
		return nil
	}
	if isUserFacing(err) {
		return err
	}

	var exitErr *invoker.ExitError
	var notFound *invoker.ExecutableNotFoundError
	var timeout *invoker.TimeoutError
	var dirErr *invoker.DirectoryCreationError
	var malformed *coordinate.MalformedCoordinateError

	switch {
	case errors.As(err, &notFound):
		return WrapMavenNotFound(notFound.Path, err)
	case errors.As(err, &exitErr):
		return CommandError{
			Command:    "mvn",
			ExitCode:   exitErr.Code,
			Message:    "build failed",
			Suggestion: "Check the Maven output above; rerun with --debug for the full command line",
			Err:        err,
		}
	case errors.As(err, &timeout):
		return UserError{
			Message:    fmt.Sprintf("Maven did not finish within %s", timeout.After),
			Suggestion: "Raise maven.invoker.timeout or pass --timeout",
			Err:        err,
		}
	case errors.As(err, &dirErr):
		return UserError{
			Message:    "Cannot create the local repository",
			Details:    dirErr.Err.Error(),
			Suggestion: fmt.Sprintf("Check permissions on %s or change maven.invoker.local_repository", dirErr.Path),
			Err:        err,
		}
	case errors.As(err, &malformed):
		return UserError{
			Message:    fmt.Sprintf("Invalid coordinates %q", malformed.Input),
			Details:    malformed.Reason,
			Suggestion: "Use groupId:artifactId[:extension[:classifier]]:version",
			Err:        err,
		}
	case errors.Is(err, descriptor.ErrNotABuildArtifact):
		return UserError{
			Message:    "The archive does not contain a pom.xml",
			Suggestion: "Pass a jar, war or ear produced by a Maven build",
			Err:        err,
		}
	case errors.Is(err, descriptor.ErrDescriptorParse):
		return UserError{
			Message: "The embedded pom.xml could not be parsed",
			Details: err.Error(),
			Err:     err,
		}
	case errors.Is(err, invoker.ErrInvalidRequest):
		return UserError{
			Message:    "Invalid Maven invocation",
			Details:    err.Error(),
			Suggestion: "Check the base directory and maven.invoker options",
			Err:        err,
		}
	}
	return err
}

func isUserFacing(err error) bool {
	var ue UserError
	var ce ConfigError
	var cmd CommandError
	return errors.As(err, &ue) || errors.As(err, &ce) || errors.As(err, &cmd)
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	if isUserFacing(err) {
		return err
	}
	if explained := Explain(err); isUserFacing(explained) {
		return explained
	}

	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
