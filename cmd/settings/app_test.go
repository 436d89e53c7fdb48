package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret_PipedInput(t *testing.T) {
	pipe := func(t *testing.T, input string) io.Reader {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		t.Cleanup(func() { r.Close() })
		_, err = io.WriteString(w, input)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return r
	}

	sources := []struct {
		name string
		in   func(t *testing.T, input string) io.Reader
	}{
		{"reader", func(_ *testing.T, input string) io.Reader { return strings.NewReader(input) }},
		{"pipe", pipe},
	}

	for _, src := range sources {
		t.Run(src.name, func(t *testing.T) {
			var out bytes.Buffer
			a := newApp(src.in(t, "s3cret-pass\r\nnext\n"), &out, io.Discard)
			a.ui = newPresenter(&out)

			got, err := a.readSecret("Current password")
			require.NoError(t, err)
			assert.Equal(t, "s3cret-pass", got)
			assert.Contains(t, out.String(), "Current password:")

			next, err := a.readLine("Email")
			require.NoError(t, err)
			assert.Equal(t, "next", next, "the secret must not swallow the following answer")

			_, err = a.readSecret("Password")
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}
