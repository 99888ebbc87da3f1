package credentials

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const settingsNamespace = "http://maven.apache.org/SETTINGS/1.0.0"

type settingsDocument struct {
	XMLName xml.Name         `xml:"settings"`
	Xmlns   string           `xml:"xmlns,attr"`
	Servers []settingsServer `xml:"servers>server"`
}

type settingsServer struct {
	XMLName  xml.Name `xml:"server"`
	ID       string   `xml:"id"`
	Username string   `xml:"username"`
	Password string   `xml:"password"`
}

func serverEntries(serverIDs []string) []settingsServer {
	servers := make([]settingsServer, 0, len(serverIDs))
	for _, id := range serverIDs {
		servers = append(servers, settingsServer{
			ID:       id,
			Username: fmt.Sprintf("${env.%s}", EnvName(id, "username")),
			Password: fmt.Sprintf("${env.%s}", EnvName(id, "password")),
		})
	}
	return servers
}

// RenderSettings renders a settings file whose server entries reference
// the credential environment variables instead of carrying values.
func RenderSettings(serverIDs []string) ([]byte, error) {
	doc := settingsDocument{Xmlns: settingsNamespace, Servers: serverEntries(serverIDs)}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// MergeSettings inserts server entries for serverIDs into an existing
// settings document. Everything else in base is kept byte for byte. The
// entries go first inside <servers> so they win over servers with the same
// id.
func MergeSettings(base []byte, serverIDs []string) ([]byte, error) {
	var existing settingsDocument
	if err := xml.Unmarshal(base, &existing); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	var entries bytes.Buffer
	for _, s := range serverEntries(serverIDs) {
		out, err := xml.MarshalIndent(s, "    ", "  ")
		if err != nil {
			return nil, err
		}
		entries.WriteString("\n")
		entries.Write(out)
	}
	entries.WriteString("\n  ")

	d := xml.NewDecoder(bytes.NewReader(base))
	depth := 0
	for {
		before := d.InputOffset()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("settings document has no root element")
		}
		if err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 || t.Name.Local != "servers" {
				continue
			}
			after := d.InputOffset()
			if selfClosing(base, after) {
				return splice(base, before, after, "<servers>"+entries.String()+"</servers>"), nil
			}
			return splice(base, after, after, entries.String()), nil
		case xml.EndElement:
			depth--
			if depth == 0 {
				if !bytes.HasPrefix(base[before:], []byte("</")) {
					return RenderSettings(serverIDs)
				}
				return splice(base, before, before, "<servers>"+entries.String()+"</servers>\n"), nil
			}
		}
	}
}

// selfClosing reports whether the start tag ending at offset was written
// as <x/>.
func selfClosing(data []byte, offset int64) bool {
	return offset >= 2 && string(data[offset-2:offset]) == "/>"
}

func splice(data []byte, from, to int64, insert string) []byte {
	out := make([]byte, 0, len(data)+len(insert))
	out = append(out, data[:from]...)
	out = append(out, insert...)
	return append(out, data[to:]...)
}

// WriteSettings writes a private settings file into a fresh temporary
// directory. When base names an existing settings file, its content is kept
// and the server entries are merged in. The returned cleanup removes the
// file.
func WriteSettings(serverIDs []string, base string) (path string, cleanup func(), err error) {
	data, err := settingsContent(serverIDs, base)
	if err != nil {
		return "", nil, err
	}
	dir, err := os.MkdirTemp("", "mvnops-settings-")
	if err != nil {
		return "", nil, fmt.Errorf("create settings directory: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	path = filepath.Join(dir, "settings.xml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write settings: %w", err)
	}
	return path, cleanup, nil
}

func settingsContent(serverIDs []string, base string) ([]byte, error) {
	if base == "" {
		return RenderSettings(serverIDs)
	}
	existing, err := os.ReadFile(base)
	if errors.Is(err, os.ErrNotExist) {
		return RenderSettings(serverIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", base, err)
	}
	merged, err := MergeSettings(existing, serverIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	return merged, nil
}
