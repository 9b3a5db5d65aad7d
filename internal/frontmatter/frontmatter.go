// Package frontmatter reads and writes the YAML block at the top of
// Markdown pages.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta holds the page fields that influence navigation.
type Meta struct {
	Title  string `yaml:"title,omitempty"`
	Weight int    `yaml:"weight,omitempty"`
	Draft  bool   `yaml:"draft,omitempty"`
	// Sidebar set to false hides the page from generated sidebars.
	Sidebar *bool `yaml:"sidebar,omitempty"`
}

// Hidden reports whether the page should be left out of generated sidebars.
func (m Meta) Hidden() bool {
	return m.Draft || (m.Sidebar != nil && !*m.Sidebar)
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. Both \n and \r\n line endings are accepted.
func Split(content []byte) (front []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line has no trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the navigation fields of its frontmatter.
// Unknown fields are ignored.
func Parse(content []byte) (Meta, []byte, error) {
	front, body, had, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}
	var meta Meta
	if !had || len(bytes.TrimSpace(front)) == 0 {
		return meta, body, nil
	}
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	return meta, body, nil
}

// Compose renders meta as a frontmatter block followed by body. A zero Meta
// produces body unchanged.
func Compose(meta Meta, body []byte) ([]byte, error) {
	if meta == (Meta{}) {
		return body, nil
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
