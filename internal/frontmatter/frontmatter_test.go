package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: Scheduler\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Scheduler\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: x\n# Title\n"))
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: x\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Empty(t, body)
}

func TestParse_ReadsNavigationFields(t *testing.T) {
	meta, body, err := Parse([]byte("---\ntitle: Task Scheduling\nweight: 20\nauthor: someone\n---\nBody\n"))
	require.NoError(t, err)
	require.Equal(t, "Task Scheduling", meta.Title)
	require.Equal(t, 20, meta.Weight)
	require.False(t, meta.Hidden())
	require.Equal(t, []byte("Body\n"), body)
}

func TestParse_Hidden(t *testing.T) {
	meta, _, err := Parse([]byte("---\nsidebar: false\n---\n"))
	require.NoError(t, err)
	require.True(t, meta.Hidden())

	meta, _, err = Parse([]byte("---\ndraft: true\n---\n"))
	require.NoError(t, err)
	require.True(t, meta.Hidden())

	meta, _, err = Parse([]byte("---\nsidebar: true\n---\n"))
	require.NoError(t, err)
	require.False(t, meta.Hidden())
}

func TestParse_InvalidYAML_ReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unterminated\n---\n"))
	require.Error(t, err)
}

func TestCompose_RoundTrip(t *testing.T) {
	in := Meta{Title: "Memory Management", Weight: 10}
	out, err := Compose(in, []byte("# Memory\n"))
	require.NoError(t, err)
	require.Equal(t, "---\ntitle: Memory Management\nweight: 10\n---\n# Memory\n", string(out))

	meta, body, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, in, meta)
	require.Equal(t, []byte("# Memory\n"), body)
}

func TestCompose_ZeroMetaReturnsBody(t *testing.T) {
	out, err := Compose(Meta{}, []byte("plain\n"))
	require.NoError(t, err)
	require.Equal(t, []byte("plain\n"), out)
}
