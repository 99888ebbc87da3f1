package exec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const versionBanner = "\x1b[1mApache Maven 3.9.6 (bc0240f3c744dd6b6ec2920b3cd08dcc295161ae)\x1b[m\n" +
	"Maven home: /opt/maven\n" +
	"Java version: 17.0.9, vendor: Eclipse Adoptium, runtime: /opt/java/openjdk\n" +
	"Default locale: en_US, platform encoding: UTF-8\n" +
	"OS name: \"linux\", version: \"6.1.0\", arch: \"amd64\", family: \"unix\"\n"

func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion([]byte(versionBanner))
	require.NoError(t, err)
	assert.Equal(t, &MavenVersion{
		Maven:       "3.9.6",
		MavenHome:   "/opt/maven",
		Java:        "17.0.9",
		JavaVendor:  "Eclipse Adoptium",
		JavaRuntime: "/opt/java/openjdk",
		OS:          `"linux", version: "6.1.0", arch: "amd64", family: "unix"`,
	}, v)

	_, err = ParseVersion([]byte("bash: mvn: command not found\n"))
	assert.Error(t, err)
}

func TestDetectVersion(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string
	ok := ExecutorFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		gotName, gotArgs = name, args
		return []byte(versionBanner), nil, nil
	})

	v, err := DetectVersion(context.Background(), ok, "/opt/maven/bin/mvn")
	require.NoError(t, err)
	assert.Equal(t, "3.9.6", v.Maven)
	assert.Equal(t, "/opt/maven/bin/mvn", gotName)
	assert.Equal(t, []string{"--batch-mode", "--version"}, gotArgs)

	failing := ExecutorFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("Error: JAVA_HOME is not defined correctly.\n"), errors.New("exit status 1")
	})
	_, err = DetectVersion(context.Background(), failing, "mvn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JAVA_HOME is not defined correctly")
}
