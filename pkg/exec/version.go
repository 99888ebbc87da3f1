package exec

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	ansiEscape   = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	mavenVersion = regexp.MustCompile(`^Apache Maven (\S+)`)
)

// MavenVersion is the parsed output of `mvn --version`.
type MavenVersion struct {
	Maven       string `json:"maven" yaml:"maven"`
	MavenHome   string `json:"maven_home,omitempty" yaml:"maven_home,omitempty"`
	Java        string `json:"java,omitempty" yaml:"java,omitempty"`
	JavaVendor  string `json:"java_vendor,omitempty" yaml:"java_vendor,omitempty"`
	JavaRuntime string `json:"java_runtime,omitempty" yaml:"java_runtime,omitempty"`
	OS          string `json:"os,omitempty" yaml:"os,omitempty"`
}

// DetectVersion runs `<mvn> --batch-mode --version` and parses the banner.
func DetectVersion(ctx context.Context, executor CommandExecutor, mvn string) (*MavenVersion, error) {
	if executor == nil {
		executor = DefaultExecutor()
	}
	stdout, stderr, err := executor.Execute(ctx, mvn, "--batch-mode", "--version")
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return nil, fmt.Errorf("%s --version: %w", mvn, err)
		}
		return nil, fmt.Errorf("%s --version: %w: %s", mvn, err, msg)
	}
	return ParseVersion(stdout)
}

// ParseVersion extracts version details from `mvn --version` output.
func ParseVersion(out []byte) (*MavenVersion, error) {
	v := &MavenVersion{}
	sc := bufio.NewScanner(bytes.NewReader(ansiEscape.ReplaceAll(out, nil)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case mavenVersion.MatchString(line):
			v.Maven = mavenVersion.FindStringSubmatch(line)[1]
		case strings.HasPrefix(line, "Maven home:"):
			v.MavenHome = strings.TrimSpace(strings.TrimPrefix(line, "Maven home:"))
		case strings.HasPrefix(line, "Java version:"):
			parseJava(v, strings.TrimPrefix(line, "Java version:"))
		case strings.HasPrefix(line, "OS name:"):
			v.OS = strings.TrimSpace(strings.TrimPrefix(line, "OS name:"))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if v.Maven == "" {
		return nil, fmt.Errorf("unrecognised maven version output")
	}
	return v, nil
}

// parseJava handles "17.0.9, vendor: Eclipse Adoptium, runtime: /opt/java".
func parseJava(v *MavenVersion, rest string) {
	for i, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if i == 0 {
			v.Java = part
			continue
		}
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "vendor":
			v.JavaVendor = strings.TrimSpace(val)
		case "runtime":
			v.JavaRuntime = strings.TrimSpace(val)
		}
	}
}
