package file

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_Writer(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.Printf("<击杀> 用户[%d] 击杀 用户[%d]", 1, 2)
	l.Infow("enter", "uid", 3)
	require.NoError(t, l.Close())

	out := buf.String()
	assert.Contains(t, out, "<击杀> 用户[1] 击杀 用户[2]")
	assert.Contains(t, out, `"uid"`)
	assert.Regexp(t, `^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\]`, out)
}

func TestLog_File(t *testing.T) {
	name := filepath.Join(t.TempDir(), "room.log")
	l := New(name, WithMaxSizeMB(1), WithMaxBackups(1), WithMaxAgeDays(1))
	l.Printf("hello %s", "room")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello room")
}

func TestLog_Nil(t *testing.T) {
	var l *Log
	l.Printf("ignored")
	l.Infow("ignored")
	assert.NoError(t, l.Sync())
	assert.NoError(t, l.Close())
}
