package coordinate

// Artifact is a coordinate together with the transient fields needed to
// install or deploy a file. Only the embedded Coordinate takes part in
// identity.
type Artifact struct {
	Coordinate

	File           string
	RepositoryURL  string
	RepositoryID   string
	GeneratePom    bool
	CreateChecksum bool
}

// ParseArtifact parses coordinates and attaches the source file.
func ParseArtifact(file, coordinates string) (Artifact, error) {
	c, err := Parse(coordinates)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Coordinate: c, File: file}, nil
}

// Builder assembles an Artifact field by field.
type Builder struct {
	a Artifact
}

// NewBuilder returns a builder with the default extension preset.
func NewBuilder() *Builder {
	return &Builder{a: Artifact{Coordinate: Coordinate{Extension: DefaultExtension}}}
}

func (b *Builder) Group(v string) *Builder {
	b.a.Group = v
	return b
}

func (b *Builder) Artifact(v string) *Builder {
	b.a.Coordinate.Artifact = v
	return b
}

func (b *Builder) Extension(v string) *Builder {
	b.a.Extension = v
	return b
}

func (b *Builder) Classifier(v string) *Builder {
	b.a.Classifier = v
	return b
}

func (b *Builder) Version(v string) *Builder {
	b.a.Version = v
	return b
}

func (b *Builder) File(v string) *Builder {
	b.a.File = v
	return b
}

func (b *Builder) RepositoryURL(v string) *Builder {
	b.a.RepositoryURL = v
	return b
}

func (b *Builder) RepositoryID(v string) *Builder {
	b.a.RepositoryID = v
	return b
}

func (b *Builder) GeneratePom(v bool) *Builder {
	b.a.GeneratePom = v
	return b
}

func (b *Builder) CreateChecksum(v bool) *Builder {
	b.a.CreateChecksum = v
	return b
}

// Build validates the identity fields and returns the artifact.
func (b *Builder) Build() (Artifact, error) {
	if err := b.a.Coordinate.Validate(); err != nil {
		return Artifact{}, err
	}
	return b.a, nil
}
