package imap

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultReadTimeout bounds every individual socket read, per §4.1.
	defaultReadTimeout = 5 * time.Second
	// readBufferSize bounds individual Transport.Read calls, per §4.1.
	readBufferSize = 4096
	defaultCADir   = "/etc/ssl/certs"
)

// TransportOptions configures Dial.
type TransportOptions struct {
	Server         string
	Port           int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UseTLS         bool
	CAFile         string
	CADir          string
}

// Transport owns one plaintext or TLS socket to an IMAP server. It
// does no line framing of its own: Read returns whatever bytes are
// currently available, bounded by readBufferSize and a per-read
// deadline.
type Transport struct {
	conn   net.Conn
	isTLS  bool
	host   string // canonical hostname, used by Store for filenames
	rdline time.Duration
	netmon *NetMon
}

// Dial opens the transport: TCP connect bounded by ConnectTimeout,
// then canonical hostname resolution, then an optional TLS handshake.
func Dial(opts TransportOptions) (*Transport, error) {
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.CADir == "" {
		opts.CADir = defaultCADir
	}

	addr := net.JoinHostPort(opts.Server, portString(opts.Port, opts.UseTLS))
	conn, err := net.DialTimeout("tcp", addr, opts.ConnectTimeout)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return nil, newError(KindConnectTimeout, err, "connecting to %s", addr)
		}
		if _, ok := err.(*net.DNSError); ok {
			return nil, newError(KindDNS, err, "resolving %s", opts.Server)
		}
		return nil, newError(KindConnect, err, "connecting to %s", addr)
	}

	t := &Transport{conn: conn, rdline: opts.ReadTimeout}
	t.host = canonicalHostname(conn, opts.Server)

	if opts.UseTLS {
		if err := t.startTLS(opts); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return t, nil
}

func portString(port int, useTLS bool) string {
	if port == 0 {
		if useTLS {
			port = 993
		} else {
			port = 143
		}
	}
	return strconv.Itoa(port)
}

// canonicalHostname resolves the reverse DNS name of the connected
// peer, per §4.1. If resolution yields nothing, the server string the
// caller passed in is used verbatim.
func canonicalHostname(conn net.Conn, fallback string) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return fallback
	}
	names, err := net.LookupAddr(host)
	if err != nil || len(names) == 0 {
		return fallback
	}
	return strings.TrimSuffix(names[0], ".")
}

func (t *Transport) startTLS(opts TransportOptions) error {
	pool, err := loadCAPool(opts.CAFile, opts.CADir)
	if err != nil {
		return newError(KindTLS, err, "loading CA trust anchors")
	}

	cfg := &tls.Config{
		ServerName: opts.Server,
		RootCAs:    pool,
	}
	tlsConn := tls.Client(t.conn, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return newError(KindTLS, err, "TLS handshake with %s", opts.Server)
	}
	t.conn = tlsConn
	t.isTLS = true
	return nil
}

func loadCAPool(caFile, caDir string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, err
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, newError(KindTLS, nil, "no usable certificates in %s", caFile)
		}
	}

	if caDir != "" {
		entries, err := os.ReadDir(caDir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				pem, err := os.ReadFile(filepath.Join(caDir, entry.Name()))
				if err != nil {
					continue
				}
				pool.AppendCertsFromPEM(pem)
			}
		}
	}

	return pool, nil
}

// Host returns the canonical hostname discovered at Dial time.
func (t *Transport) Host() string {
	return t.host
}

// EnableNetmon attaches a bandwidth estimator that every Read feeds,
// consulted by the CLI's progress reporting.
func (t *Transport) EnableNetmon() *NetMon {
	t.netmon = newNetmonReader()
	return t.netmon
}

// Write implements io.Writer.
func (t *Transport) Write(p []byte) (int, error) {
	n, err := t.conn.Write(p)
	if err != nil {
		return n, newError(KindIO, err, "writing to connection")
	}
	return n, nil
}

// Read implements io.Reader, bounded by a per-call read deadline. A
// deadline expiry surfaces as KindReadTimeout, which is fatal to the
// run per §5.
func (t *Transport) Read(p []byte) (int, error) {
	if len(p) > readBufferSize {
		p = p[:readBufferSize]
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.rdline)); err != nil {
		return 0, newError(KindIO, err, "setting read deadline")
	}
	n, err := t.conn.Read(p)
	if t.netmon != nil && n > 0 {
		t.netmon.observe(n)
	}
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return n, newError(KindReadTimeout, err, "reading from connection")
		}
		return n, err
	}
	return n, nil
}

// Close tears down the connection. For a TLS session it sends a
// close_notify alert, trying a second time if the first attempt fails,
// before closing the underlying socket; it does not wait for the
// peer's close_notify.
func (t *Transport) Close() error {
	if tlsConn, ok := t.conn.(*tls.Conn); ok {
		for i := 0; i < 2; i++ {
			if err := tlsConn.CloseWrite(); err == nil {
				break
			}
		}
	}
	return t.conn.Close()
}
