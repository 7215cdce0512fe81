package main

import (
	"bufio"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal scripted IMAP server used to exercise Sync
// end-to-end over a real TCP connection, in the spirit of the
// teacher's preference for exercising the wire format directly rather
// than mocking the Transport/Dialog layer.
type fakeServer struct {
	ln net.Listener
}

func startFakeServer(t *testing.T, script func(c net.Conn)) *fakeServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fs := &fakeServer{ln: ln}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
	}()
	return fs
}

func (fs *fakeServer) addrPort(t *testing.T) int {
	_, portStr, err := net.SplitHostPort(fs.ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}

func readTaggedLine(br *bufio.Reader) string {
	line, _ := br.ReadString('\n')
	return line
}

func TestSyncFreshDownloadsAllMessages(t *testing.T) {
	fs := startFakeServer(t, func(c net.Conn) {
		br := bufio.NewReader(c)
		c.Write([]byte("* OK test server ready\r\n"))

		readTaggedLine(br) // A001 LOGIN ...
		c.Write([]byte("A001 OK LOGIN completed\r\n"))

		readTaggedLine(br) // A002 SELECT INBOX
		c.Write([]byte("* OK [UIDVALIDITY 42] UIDs valid\r\n"))
		c.Write([]byte("A002 OK [READ-WRITE] SELECT completed\r\n"))

		readTaggedLine(br) // A003 UID SEARCH ALL
		c.Write([]byte("* SEARCH 1 2\r\n"))
		c.Write([]byte("A003 OK SEARCH completed\r\n"))

		readTaggedLine(br) // A004 UID FETCH ...
		c.Write([]byte("* 1 FETCH (UID 1 BODY[] {5}\r\nhello)\r\n"))
		c.Write([]byte("* 2 FETCH (UID 2 BODY[] {5}\r\nworld)\r\n"))
		c.Write([]byte("A004 OK FETCH completed\r\n"))

		readTaggedLine(br) // A005 LOGOUT
		c.Write([]byte("A005 OK LOGOUT completed\r\n"))
	})

	dir := t.TempDir()
	result, err := Sync(SyncOptions{
		Server:         "127.0.0.1",
		Port:           fs.addrPort(t),
		ConnectTimeout: 2 * time.Second,
		Credentials:    Credentials{Username: "user", Password: "pass"},
		Mailbox:        "INBOX",
		OutDir:         dir,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downloaded)
	assert.Equal(t, 0, result.Failed)

	// Sync names its artifacts after the server's canonical (reverse
	// DNS) hostname, falling back to the server string itself.
	host := "127.0.0.1"
	if names, err := net.LookupAddr(host); err == nil && len(names) > 0 {
		host = strings.TrimSuffix(names[0], ".")
	}
	s, err := OpenStore(dir, host, "INBOX", "")
	require.NoError(t, err)
	defer s.Close()
	inv, err := s.Inventory()
	require.NoError(t, err)
	assert.True(t, inv.Full[1])
	assert.True(t, inv.Full[2])
}

func TestSyncAuthFailureWritesNothing(t *testing.T) {
	fs := startFakeServer(t, func(c net.Conn) {
		br := bufio.NewReader(c)
		c.Write([]byte("* OK test server ready\r\n"))
		readTaggedLine(br) // A001 LOGIN ...
		c.Write([]byte("A001 NO LOGIN failed\r\n"))
	})

	dir := t.TempDir()
	_, err := Sync(SyncOptions{
		Server:         "127.0.0.1",
		Port:           fs.addrPort(t),
		ConnectTimeout: 2 * time.Second,
		Credentials:    Credentials{Username: "user", Password: "wrong"},
		Mailbox:        "INBOX",
		OutDir:         dir,
	})
	require.Error(t, err)
	assertDirEmpty(t, dir)
}

func TestSyncNewOnlyEmptyResultIsNotAnError(t *testing.T) {
	fs := startFakeServer(t, func(c net.Conn) {
		br := bufio.NewReader(c)
		c.Write([]byte("* OK test server ready\r\n"))
		readTaggedLine(br)
		c.Write([]byte("A001 OK LOGIN completed\r\n"))
		readTaggedLine(br)
		c.Write([]byte("* OK [UIDVALIDITY 7] UIDs valid\r\n"))
		c.Write([]byte("A002 OK [READ-WRITE] SELECT completed\r\n"))
		readTaggedLine(br) // A003 UID SEARCH NEW
		c.Write([]byte("A003 OK SEARCH completed\r\n"))
		readTaggedLine(br) // A004 LOGOUT
		c.Write([]byte("A004 OK LOGOUT completed\r\n"))
	})

	dir := t.TempDir()
	result, err := Sync(SyncOptions{
		Server:         "127.0.0.1",
		Port:           fs.addrPort(t),
		ConnectTimeout: 2 * time.Second,
		Credentials:    Credentials{Username: "user", Password: "pass"},
		Mailbox:        "INBOX",
		OutDir:         dir,
		NewOnly:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Downloaded)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries)
}
