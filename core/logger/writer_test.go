package logger

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncWriterFlushCoversQueuedLines(t *testing.T) {
	var a, b bytes.Buffer
	w := newAsyncWriter([]io.Writer{&a, nil, &b}, 16)

	for i := 0; i < 100; i++ {
		require.NoError(t, w.Write([]byte(fmt.Sprintf("line %d\n", i))))
	}
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(a.String()), "\n")
	require.Len(t, lines, 100)
	assert.Equal(t, "line 99", lines[99])
	assert.Equal(t, a.String(), b.String())
	require.NoError(t, w.Close())
}

type brokenSink struct{}

func (brokenSink) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterKeepsFirstError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{brokenSink{}}, 1)
	require.NoError(t, w.Write([]byte("x\n")))

	err := w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Error(t, w.Write([]byte("y\n")))
}
