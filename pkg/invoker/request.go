package invoker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/systmms/mvnops/pkg/coordinate"
)

// Request is a fully described Maven invocation. It is built from Options
// with NewRequest and then narrowed with the With* helpers.
type Request struct {
	BaseDirectory string
	Goals         []string

	AlsoMake           bool
	AlsoMakeDependents bool
	BatchMode          bool
	Debug              bool
	NonPluginUpdates   bool
	Offline            bool
	Recursive          bool
	ShowErrors         bool
	ShowVersion        bool
	UpdateSnapshots    bool

	GlobalChecksumPolicy   ChecksumPolicy
	ReactorFailureBehavior ReactorFailureBehavior
	Threads                int

	GlobalSettings   string
	GlobalToolchains string
	JavaHome         string
	LocalRepository  string
	MavenExecutable  string
	MavenHome        string
	MavenOpts        string
	PomFile          string
	ResumeFrom       string
	UserSettings     string

	Profiles   []string
	Projects   []string
	Properties map[string]string

	ShellEnvironmentInherited bool
	Environment               map[string]string

	Timeout time.Duration
}

// NewRequest copies options into a new request. Blank path options are
// left unset. It does not touch the filesystem.
func NewRequest(o Options) (*Request, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	rfb, _ := ParseReactorFailureBehavior(string(o.ReactorFailureBehavior))
	policy, _ := ParseChecksumPolicy(string(o.GlobalChecksumPolicy))

	r := &Request{
		AlsoMake:                  o.AlsoMake,
		AlsoMakeDependents:        o.AlsoMakeDependents,
		BatchMode:                 o.BatchMode,
		Debug:                     o.Debug,
		NonPluginUpdates:          o.NonPluginUpdates,
		Offline:                   o.Offline,
		Recursive:                 o.Recursive,
		ShowErrors:                o.ShowErrors,
		ShowVersion:               o.ShowVersion,
		UpdateSnapshots:           o.UpdateSnapshots,
		GlobalChecksumPolicy:      policy,
		ReactorFailureBehavior:    rfb,
		Threads:                   o.Threads,
		LocalRepository:           o.LocalRepository,
		Profiles:                  nonBlank(o.Profiles),
		Projects:                  nonBlank(o.Projects),
		Properties:                copyMap(o.Properties),
		ShellEnvironmentInherited: o.ShellEnvironmentInherited,
		Environment:               copyMap(o.ShellEnvironments),
		Timeout:                   o.Timeout,
	}

	setPath(&r.GlobalSettings, o.GlobalSettings)
	setPath(&r.GlobalToolchains, o.GlobalToolchains)
	setPath(&r.JavaHome, o.JavaHome)
	setPath(&r.MavenExecutable, o.MavenExecutable)
	setPath(&r.MavenHome, o.MavenHome)
	setPath(&r.PomFile, o.PomFilename)
	setPath(&r.UserSettings, o.UserSettings)
	setPath(&r.MavenOpts, o.MavenOpts)
	setPath(&r.ResumeFrom, o.ResumeFrom)

	return r, nil
}

// NewRequest builds a request for baseDir running goals.
func (o Options) NewRequest(baseDir string, goals ...string) (*Request, error) {
	r, err := NewRequest(o)
	if err != nil {
		return nil, err
	}
	return r.WithBaseDirectory(baseDir).WithGoals(goals...), nil
}

func setPath(dst *string, v string) {
	if !isBlank(v) {
		*dst = strings.TrimSpace(v)
	}
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy so callers can derive requests from a template.
func (r *Request) Clone() *Request {
	c := *r
	c.Goals = append([]string(nil), r.Goals...)
	c.Profiles = append([]string(nil), r.Profiles...)
	c.Projects = append([]string(nil), r.Projects...)
	c.Properties = copyMap(r.Properties)
	c.Environment = copyMap(r.Environment)
	return &c
}

// WithGoals replaces the goal list.
func (r *Request) WithGoals(goals ...string) *Request {
	r.Goals = append([]string(nil), goals...)
	return r
}

// WithBaseDirectory sets the project directory or pom file to run against.
func (r *Request) WithBaseDirectory(dir string) *Request {
	r.BaseDirectory = dir
	return r
}

// WithLocalRepository points the request at another local repository.
func (r *Request) WithLocalRepository(path string) *Request {
	setPath(&r.LocalRepository, path)
	return r
}

// WithUserSettings replaces the user settings file.
func (r *Request) WithUserSettings(path string) *Request {
	r.UserSettings = strings.TrimSpace(path)
	return r
}

// WithProperty adds a -D system property.
func (r *Request) WithProperty(key, value string) *Request {
	if r.Properties == nil {
		r.Properties = map[string]string{}
	}
	r.Properties[key] = value
	return r
}

// WithEnv adds an environment variable for the child process.
func (r *Request) WithEnv(key, value string) *Request {
	if r.Environment == nil {
		r.Environment = map[string]string{}
	}
	r.Environment[key] = value
	return r
}

// InstallFileRequest narrows r to an install:install-file invocation.
func (r *Request) InstallFileRequest(a coordinate.Artifact) *Request {
	r.Goals = []string{
		"install:install-file",
		"-Dfile=" + a.File,
		"-DgroupId=" + a.Group,
		"-DartifactId=" + a.Coordinate.Artifact,
		"-Dversion=" + a.Version,
		"-Dpackaging=" + a.Extension,
		"-DgeneratePom=" + strconv.FormatBool(a.GeneratePom),
		"-DcreateChecksum=" + strconv.FormatBool(a.CreateChecksum),
	}
	if a.Classifier != "" {
		r.Goals = append(r.Goals, "-Dclassifier="+a.Classifier)
	}
	return r
}

// DeployFileRequest narrows r to a deploy:deploy-file invocation.
func (r *Request) DeployFileRequest(a coordinate.Artifact) *Request {
	r.Goals = []string{
		"deploy:deploy-file",
		"-DgroupId=" + a.Group,
		"-DartifactId=" + a.Coordinate.Artifact,
		"-Dversion=" + a.Version,
		"-Dpackaging=" + a.Extension,
		"-Dfile=" + a.File,
		"-Durl=" + a.RepositoryURL,
		"-DrepositoryId=" + a.RepositoryID,
	}
	if a.Classifier != "" {
		r.Goals = append(r.Goals, "-Dclassifier="+a.Classifier)
	}
	return r
}

// Args renders the Maven command line, flags first and goals last.
func (r *Request) Args() []string {
	var args []string
	add := func(a ...string) { args = append(args, a...) }

	if r.PomFile != "" {
		add("-f", r.PomFile)
	}
	if r.UserSettings != "" {
		add("-s", r.UserSettings)
	}
	if r.GlobalSettings != "" {
		add("-gs", r.GlobalSettings)
	}
	if r.GlobalToolchains != "" {
		add("-gt", r.GlobalToolchains)
	}
	if r.LocalRepository != "" {
		add("-Dmaven.repo.local=" + r.LocalRepository)
	}

	flags := []struct {
		on   bool
		flag string
	}{
		{r.BatchMode, "-B"},
		{r.Offline, "-o"},
		{r.Debug, "-X"},
		{r.ShowErrors, "-e"},
		{r.ShowVersion, "-V"},
		{r.UpdateSnapshots, "-U"},
		{r.NonPluginUpdates, "-npu"},
		{!r.Recursive, "-N"},
	}
	for _, f := range flags {
		if f.on {
			add(f.flag)
		}
	}

	switch r.ReactorFailureBehavior {
	case FailAtEnd:
		add("-fae")
	case FailNever:
		add("-fn")
	default:
		add("-ff")
	}
	switch r.GlobalChecksumPolicy {
	case ChecksumFail:
		add("-C")
	default:
		add("-c")
	}

	if r.AlsoMake {
		add("-am")
	}
	if r.AlsoMakeDependents {
		add("-amd")
	}
	if len(r.Projects) > 0 {
		add("-pl", strings.Join(r.Projects, ","))
	}
	if r.ResumeFrom != "" {
		add("-rf", r.ResumeFrom)
	}
	if len(r.Profiles) > 0 {
		add("-P", strings.Join(r.Profiles, ","))
	}

	threads := r.Threads
	if threads < 1 {
		threads = 1
	}
	add("-T", strconv.Itoa(threads))

	for _, k := range sortedKeys(r.Properties) {
		add(fmt.Sprintf("-D%s=%s", k, r.Properties[k]))
	}

	add(r.Goals...)
	return args
}

// Environ builds the child environment. When the shell environment is not
// inherited only the explicit variables are passed. MAVEN_OPTS and
// JAVA_HOME from the request take precedence over everything else.
func (r *Request) Environ(parent []string) []string {
	env := map[string]string{}
	if r.ShellEnvironmentInherited {
		for _, kv := range parent {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}
	for k, v := range r.Environment {
		env[k] = v
	}
	if r.MavenOpts != "" {
		env["MAVEN_OPTS"] = r.MavenOpts
	}
	if r.JavaHome != "" {
		env["JAVA_HOME"] = r.JavaHome
	}

	out := make([]string, 0, len(env))
	for _, k := range sortedKeys(env) {
		out = append(out, k+"="+env[k])
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
