package descriptor

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePom = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>org.springframework.boot</groupId>
    <artifactId>spring-boot-starter-parent</artifactId>
    <version>2.7.0</version>
  </parent>
  <artifactId>demo</artifactId>
  <name>Demo</name>
  <dependencies>
    <dependency>
      <groupId>org.other</groupId>
      <artifactId>lib</artifactId>
      <version>9.9</version>
    </dependency>
  </dependencies>
</project>
`

type entry struct {
	name string
	body string
}

func writeZip(t *testing.T, entries ...entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestRead(t *testing.T) {
	t.Parallel()

	path := writeZip(t,
		entry{"META-INF/MANIFEST.MF", "Manifest-Version: 1.0\n"},
		entry{"META-INF/maven/com.example/demo/pom.xml", samplePom},
	)

	d, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "org.springframework.boot", d.GroupID)
	assert.Equal(t, "demo", d.ArtifactID)
	assert.Equal(t, "2.7.0", d.Version)
	assert.Equal(t, "jar", d.Packaging)
	assert.Equal(t, "Demo", d.Name)
	assert.Equal(t, "org.springframework.boot:demo:jar:2.7.0", d.ID)
	assert.Equal(t, "META-INF/maven/com.example/demo/pom.xml", d.Entry)
	require.NotNil(t, d.Parent)
	assert.Equal(t, "spring-boot-starter-parent", d.Parent.ArtifactID)
}

func TestRead_FirstMatchWins(t *testing.T) {
	t.Parallel()

	first := `<project><groupId>a</groupId><artifactId>first</artifactId><version>1</version><packaging>war</packaging></project>`
	second := `<project><groupId>b</groupId><artifactId>second</artifactId><version>2</version></project>`
	path := writeZip(t,
		entry{"not-a-pom.xml", "<broken"},
		entry{"pom.xml", first},
		entry{"nested/pom.xml", second},
	)

	d, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "a:first:war:1", d.ID)
}

func TestRead_NoDescriptor(t *testing.T) {
	t.Parallel()

	path := writeZip(t, entry{"com/example/Main.class", "cafebabe"})
	_, err := Read(path)
	assert.ErrorIs(t, err, ErrNotABuildArtifact)
}

func TestRead_ParseFailure(t *testing.T) {
	t.Parallel()

	path := writeZip(t, entry{"META-INF/maven/g/a/pom.xml", "<project><artifactId>x</project>"})
	_, err := Read(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDescriptorParse)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "META-INF/maven/g/a/pom.xml", pe.Entry)
	assert.Equal(t, path, pe.Archive)
}

func TestRead_NotAnArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	_, err := Read(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotABuildArtifact)

	_, err = Read(filepath.Join(t.TempDir(), "missing.jar"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_MissingArtifactID(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("<project><groupId>g</groupId></project>"))
	assert.ErrorIs(t, err, ErrDescriptorParse)
}

func TestParse_ExplicitValuesOverrideParent(t *testing.T) {
	t.Parallel()

	d, err := Parse(strings.NewReader(`<project>
  <parent><groupId>p</groupId><artifactId>parent</artifactId><version>1</version></parent>
  <groupId> own </groupId><artifactId>child</artifactId><version>2</version><packaging>pom</packaging>
</project>`))
	require.NoError(t, err)
	assert.Equal(t, "own:child:pom:2", d.ID)
}
