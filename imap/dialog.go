package imap

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Dialog issues tagged commands over a Transport and collects the
// complete reply for each, per §4.2. Exactly one command is ever
// outstanding: there is no concurrent use of a single Dialog.
type Dialog struct {
	t       *Transport
	br      *bufio.Reader
	nextTag int
	Log     *logrus.Logger // optional; nil disables protocol debug logging
}

// NewDialog wraps a Transport in a Dialog, ready to read the server's
// initial greeting.
func NewDialog(t *Transport) *Dialog {
	return &Dialog{t: t, br: bufio.NewReaderSize(t, readBufferSize)}
}

// Greeting reads the server's untagged hello line, the first thing
// sent on a new connection, and returns its text.
func (d *Dialog) Greeting() (string, error) {
	line, err := readLogicalLine(d.br)
	if err != nil {
		return "", wrapReadErr(err)
	}
	if !strings.HasPrefix(line, "* ") {
		return "", newError(KindProtocol, nil, "expected untagged greeting, got %q", line)
	}
	if d.Log != nil {
		logReceived(d.Log, "*", line)
	}
	return line, nil
}

// nextTagString allocates the next command tag: "A" followed by a
// zero-padded decimal counter, per §4.2 ("A001", "A002", ...). The
// counter is never reset and is never reused within a Connection's
// lifetime (§3). Unlike the historical three-digit-only format, the
// field simply grows past three digits once the counter exceeds 999
// rather than failing the run — the tag is an opaque token as far as
// the protocol is concerned, so there is no fixed width to overflow.
func (d *Dialog) nextTagString() string {
	d.nextTag++
	return fmt.Sprintf("A%03d", d.nextTag)
}

// Send writes a tagged command (command should not include the tag or
// the terminating CRLF) and returns the full accumulated response,
// unparsed, once the matching tagged completion line has been seen.
func (d *Dialog) Send(command string) (string, error) {
	tag := d.nextTagString()

	if d.Log != nil {
		logSent(d.Log, tag, command)
	}

	if _, err := fmt.Fprintf(d.t, "%s %s\r\n", tag, command); err != nil {
		return "", err
	}

	tagPrefix := tag + " "
	var out strings.Builder
	for {
		line, err := readLogicalLine(d.br)
		if err != nil {
			return "", wrapReadErr(err)
		}
		out.WriteString(line)
		if strings.HasPrefix(line, tagPrefix) {
			break
		}
	}

	response := out.String()
	if d.Log != nil {
		logReceived(d.Log, tag, response)
	}
	return response, nil
}

// wrapReadErr normalizes an error surfaced while reading a response.
// Transport.Read already classifies read-deadline expiry as
// KindReadTimeout; anything else reading the connection is an IOError,
// unless it is already one of our typed errors (e.g. that
// KindReadTimeout).
func wrapReadErr(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return newError(KindIO, err, "reading server response")
}
