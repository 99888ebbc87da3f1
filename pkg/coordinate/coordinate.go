// Package coordinate models Maven artifact coordinates.
//
// A coordinate is written as
//
//	<groupId>:<artifactId>[:<extension>[:<classifier>]]:<version>
//
// The extension defaults to "jar" and the classifier to the empty string.
// Coordinate values are immutable and comparable, so they can be used
// directly as map keys.
package coordinate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultExtension is used when a coordinate omits the extension segment.
	DefaultExtension = "jar"

	// URIScheme is the scheme used when a coordinate is rendered as a URI.
	URIScheme = "maven"
)

// ErrMalformedCoordinate is returned when a coordinate string cannot be parsed.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// MalformedCoordinateError carries the rejected input.
type MalformedCoordinateError struct {
	Input  string
	Reason string
}

func (e *MalformedCoordinateError) Error() string {
	return fmt.Sprintf("bad artifact coordinates %q: %s, expected format is <groupId>:<artifactId>[:<extension>[:<classifier>]]:<version>", e.Input, e.Reason)
}

func (e *MalformedCoordinateError) Unwrap() error {
	return ErrMalformedCoordinate
}

var pattern = regexp.MustCompile(`^([^: ]+):([^: ]+)(:([^: ]*)(:([^: ]+))?)?:([^: ]+)$`)

// Coordinate identifies a build artifact.
type Coordinate struct {
	Group      string
	Artifact   string
	Extension  string
	Classifier string
	Version    string
}

// Parse parses a colon-delimited coordinate string.
func Parse(text string) (Coordinate, error) {
	if strings.TrimSpace(text) == "" {
		return Coordinate{}, &MalformedCoordinateError{Input: text, Reason: "coordinates are required"}
	}

	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return Coordinate{}, &MalformedCoordinateError{Input: text, Reason: "pattern does not match"}
	}

	c := Coordinate{
		Group:      m[1],
		Artifact:   m[2],
		Extension:  m[4],
		Classifier: m[6],
		Version:    m[7],
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	return c, nil
}

// Validate checks that the identity fields are present.
func (c Coordinate) Validate() error {
	var missing []string
	if c.Group == "" {
		missing = append(missing, "groupId")
	}
	if c.Artifact == "" {
		missing = append(missing, "artifactId")
	}
	if c.Extension == "" {
		missing = append(missing, "extension")
	}
	if c.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return &MalformedCoordinateError{
			Input:  c.String(),
			Reason: strings.Join(missing, ", ") + " must not be blank",
		}
	}
	return nil
}

// String renders the coordinate; the classifier segment only appears when set.
func (c Coordinate) String() string {
	if c.Classifier != "" {
		return fmt.Sprintf("%s:%s:%s:%s:%s", c.Group, c.Artifact, c.Extension, c.Classifier, c.Version)
	}
	return fmt.Sprintf("%s:%s:%s:%s", c.Group, c.Artifact, c.Extension, c.Version)
}

// URI renders the coordinate as maven://<coordinate>.
func (c Coordinate) URI() string {
	return URIScheme + "://" + c.String()
}

// Filename returns the file name Maven uses for the artifact in a repository.
func (c Coordinate) Filename() string {
	if c.Classifier != "" {
		return fmt.Sprintf("%s-%s-%s.%s", c.Artifact, c.Version, c.Classifier, c.Extension)
	}
	return fmt.Sprintf("%s-%s.%s", c.Artifact, c.Version, c.Extension)
}

// Equal compares all five fields.
func (c Coordinate) Equal(other Coordinate) bool {
	return c == other
}

// Hash is consistent with Equal: every field, including an empty classifier,
// contributes to the digest.
func (c Coordinate) Hash() uint64 {
	d := xxhash.New()
	for _, field := range []string{c.Group, c.Artifact, c.Extension, c.Classifier, c.Version} {
		_, _ = d.WriteString(field)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
