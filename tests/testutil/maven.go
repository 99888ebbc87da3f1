package testutil

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeMavenScript appends one record per invocation to $FAKE_MVN_LOG:
// a "--" separator, then cwd, args, the content of a -s settings file on
// one line and the environment variables tests inspect. FAKE_MVN_EXIT
// and FAKE_MVN_SLEEP control how it finishes.
const fakeMavenScript = `#!/bin/sh
{
  echo "--"
  echo "cwd=$(pwd)"
  prev=""
  for a in "$@"; do
    echo "arg=$a"
    if [ "$prev" = "-s" ] && [ -f "$a" ]; then printf 'settings=%s\n' "$(tr -d '\n' < "$a")"; fi
    prev="$a"
  done
  env | grep -E '^(MAVEN_OPTS|JAVA_HOME|MVNOPS_SERVER_[A-Z0-9_]*)=' | sort | sed 's/^/env=/'
} >> "%LOG%"
if [ "$1" = "--batch-mode" ] && [ "$2" = "--version" ]; then
  echo "Apache Maven 3.9.6 (fake)"
  echo "Maven home: %HOME%"
  echo "Java version: 21.0.2, vendor: Fake, runtime: /opt/java"
  exit 0
fi
echo "[INFO] BUILD $*"
echo "[WARNING] from stderr" >&2
if [ -n "$FAKE_MVN_SLEEP" ]; then sleep "$FAKE_MVN_SLEEP"; fi
exit ${FAKE_MVN_EXIT:-0}
`

// FakeMaven is a shell script installed as <Home>/bin/mvn.
type FakeMaven struct {
	Home string
	Log  string
}

// Invocation is one recorded run of the fake.
type Invocation struct {
	Dir      string
	Args     []string
	Env      map[string]string
	Settings string
}

// NewFakeMaven installs a fake mvn in a temporary Maven home. Tests using
// it are skipped on Windows.
func NewFakeMaven(t *testing.T) *FakeMaven {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake maven requires a POSIX shell")
	}

	home := t.TempDir()
	log := filepath.Join(t.TempDir(), "mvn.log")
	script := strings.NewReplacer("%LOG%", log, "%HOME%", home).Replace(fakeMavenScript)

	if err := os.MkdirAll(filepath.Join(home, "bin"), 0o755); err != nil {
		t.Fatalf("create fake maven home: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, "bin", "mvn"), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake maven: %v", err)
	}
	return &FakeMaven{Home: home, Log: log}
}

// Executable returns the path of the fake mvn.
func (f *FakeMaven) Executable() string {
	return filepath.Join(f.Home, "bin", "mvn")
}

// Invocations parses the log written so far.
func (f *FakeMaven) Invocations(t *testing.T) []Invocation {
	t.Helper()

	file, err := os.Open(f.Log)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("open fake maven log: %v", err)
	}
	defer file.Close()

	var out []Invocation
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := sc.Text()
		if line == "--" {
			out = append(out, Invocation{Env: map[string]string{}})
			continue
		}
		if len(out) == 0 {
			continue
		}
		cur := &out[len(out)-1]
		key, val, _ := strings.Cut(line, "=")
		switch key {
		case "cwd":
			cur.Dir = val
		case "arg":
			cur.Args = append(cur.Args, val)
		case "settings":
			cur.Settings = val
		case "env":
			k, v, _ := strings.Cut(val, "=")
			cur.Env[k] = v
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("read fake maven log: %v", err)
	}
	return out
}

// Last returns the most recent invocation and fails the test if none ran.
func (f *FakeMaven) Last(t *testing.T) Invocation {
	t.Helper()
	all := f.Invocations(t)
	if len(all) == 0 {
		t.Fatal("fake maven was not invoked")
	}
	return all[len(all)-1]
}
