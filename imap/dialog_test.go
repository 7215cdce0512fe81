package imap

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is the minimal net.Conn-shaped pipe Dialog needs for tests:
// writes are collected in written, reads come from a fixed buffer.
type fakeConn struct {
	io.Reader
	written bytes.Buffer
}

func (f *fakeConn) Write(p []byte) (int, error) { return f.written.Write(p) }

func newTestDialog(serverText string) (*Dialog, *fakeConn) {
	fc := &fakeConn{Reader: bytes.NewBufferString(serverText)}
	d := &Dialog{br: bufio.NewReaderSize(fc, readBufferSize)}
	d.t = nil
	return d, fc
}

func TestDialogGreeting(t *testing.T) {
	d, _ := newTestDialog("* OK IMAP4rev1 server ready\r\n")
	line, err := d.Greeting()
	require.NoError(t, err)
	assert.Equal(t, "* OK IMAP4rev1 server ready\r\n", line)
}

func TestDialogGreetingRejectsTagged(t *testing.T) {
	d, _ := newTestDialog("A001 OK not a greeting\r\n")
	_, err := d.Greeting()
	require.Error(t, err)
	assert.True(t, Is(err, KindProtocol))
}

func TestNextTagStringWidensPastThreeDigits(t *testing.T) {
	d := &Dialog{nextTag: 999}
	assert.Equal(t, "A1000", d.nextTagString())
}

func TestNextTagStringStartsAtA001(t *testing.T) {
	d := &Dialog{}
	assert.Equal(t, "A001", d.nextTagString())
	assert.Equal(t, "A002", d.nextTagString())
}
