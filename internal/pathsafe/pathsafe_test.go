package pathsafe

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanValid(t *testing.T) {
	cases := map[string][]string{
		"src/main.py":       {"src", "main.py"},
		"./src/./main.py":   {"src", "main.py"},
		"/src/main.py/":     nil, // leading slash is absolute, see below
		"a\\b\\c.txt":       {"a", "b", "c.txt"},
		"deep//nested/f.go": {"deep", "nested", "f.go"},
	}
	for in, want := range cases {
		parts, err := Clean(in)
		if want == nil {
			assert.Error(t, err, in)
			continue
		}
		require.NoError(t, err, in)
		assert.Equal(t, want, parts, in)
	}
}

func TestCleanRejections(t *testing.T) {
	cases := map[string]error{
		"":                 ErrEmpty,
		".":                ErrEmpty,
		"./":               ErrEmpty,
		"../escape.py":     ErrTraversal,
		"a/../../b.py":     ErrTraversal,
		"..\\escape.py":    ErrTraversal,
		"/abs/path.py":     ErrAbsolute,
		"\\abs\\path.py":   ErrAbsolute,
		"C:/abs/path.py":   ErrInvalidChars, // the drive colon is also an illegal character
		`bad<name>.py`:     ErrInvalidChars,
		`que?stion.py`:     ErrInvalidChars,
		`pipe|name.py`:     ErrInvalidChars,
		`star*.py`:         ErrInvalidChars,
		`quote"d.py`:       ErrInvalidChars,
	}
	for in, want := range cases {
		_, err := Clean(in)
		assert.ErrorIs(t, err, want, "input %q", in)
	}
}

func TestWithinRoot(t *testing.T) {
	root := t.TempDir()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)

	dest, ok := WithinRoot(absRoot, []string{"a", "b.py"})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(absRoot, "a", "b.py"), dest)

	// Joining never escapes once segments are cleaned, but the containment
	// check must still hold for adversarial segment lists.
	_, ok = WithinRoot(absRoot, []string{".."})
	assert.False(t, ok)
}
