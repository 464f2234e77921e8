package logsink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, time.March, 9, 14, 5, 33, 0, time.Local)

func TestFormat(t *testing.T) {
	got := Format(Entry{Time: fixedTime, Text: "Nike hoodie, good condition"})

	want := "\n[2024-03-09 14:05] - Nike hoodie, good condition\n" + strings.Repeat("-", 50) + "\n"
	assert.Equal(t, want, got)
}

func TestAppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	sink := NewFileSink(path)

	require.NoError(t, sink.Append(context.Background(), Entry{Time: fixedTime, Text: "first"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Format(Entry{Time: fixedTime, Text: "first"}), string(data))
}

func TestAppendNeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing content\n"), 0644))
	sink := NewFileSink(path)

	require.NoError(t, sink.Append(context.Background(), Entry{Time: fixedTime, Text: "one"}))
	require.NoError(t, sink.Append(context.Background(), Entry{Time: fixedTime, Text: "two"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "existing content\n" +
		Format(Entry{Time: fixedTime, Text: "one"}) +
		Format(Entry{Time: fixedTime, Text: "two"})
	assert.Equal(t, want, string(data))
}

func TestAppendConcurrentBlocksStayWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	sink := NewFileSink(path)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, sink.Append(context.Background(), Entry{Time: fixedTime, Text: fmt.Sprintf("entry %02d", i)}))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	for i := 0; i < writers; i++ {
		assert.Contains(t, content, Format(Entry{Time: fixedTime, Text: fmt.Sprintf("entry %02d", i)}))
	}
	assert.Equal(t, writers, strings.Count(content, strings.Repeat("-", 50)))
}

func TestAppendUnwritablePath(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "missing", "log.txt"))

	err := sink.Append(context.Background(), Entry{Time: fixedTime, Text: "x"})
	assert.Error(t, err)
}

func TestAppendCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	sink := NewFileSink(path)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sink.Append(ctx, Entry{Time: fixedTime, Text: "x"}), context.Canceled)
	assert.NoFileExists(t, path)
}
