package imap

import (
	"strconv"
	"strings"
)

// ParseSearchUIDs parses the untagged "* SEARCH ..." line(s) out of a
// UID SEARCH response into the ordered UID sequence the server
// reported, per §3's ServerUIDSet and §4.4 step 4. Order is preserved
// as received; duplicates are not removed since the server is not
// expected to produce any.
func ParseSearchUIDs(response string) ([]uint32, error) {
	status, err := TaggedStatus(response)
	if err != nil {
		return nil, err
	}
	if status.Status != "OK" {
		return nil, newError(KindProtocol, nil, "SEARCH failed: %s", status.Text)
	}

	var uids []uint32
	for _, line := range splitLines(response) {
		if !strings.HasPrefix(line, "* SEARCH") {
			continue
		}
		fields := strings.Fields(line)
		for _, f := range fields[2:] {
			n, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, newError(KindMalformedResponse, err, "non-numeric UID %q in SEARCH response", f)
			}
			if n == 0 {
				return nil, newError(KindMalformedResponse, nil, "SEARCH response contained invalid UID 0")
			}
			uids = append(uids, uint32(n))
		}
	}
	return uids, nil
}

// ExtractUIDValidity scans a SELECT response for its untagged
// "OK [UIDVALIDITY <n>]" line, per §4.4 step 1. It is an error for the
// value to be absent (MailboxHandle's invariant, §3): the caller must
// not proceed to FETCH without one.
func ExtractUIDValidity(response string) (uint32, error) {
	status, err := TaggedStatus(response)
	if err != nil {
		return 0, err
	}
	if status.Status != "OK" {
		return 0, newError(KindProtocol, nil, "SELECT failed: %s", status.Text)
	}

	for _, line := range splitLines(response) {
		idx := strings.Index(line, "UIDVALIDITY ")
		if idx < 0 {
			continue
		}
		rest := line[idx+len("UIDVALIDITY "):]
		end := strings.IndexAny(rest, "] ")
		if end < 0 {
			end = len(rest)
		}
		n, err := strconv.ParseUint(rest[:end], 10, 32)
		if err != nil {
			continue
		}
		return uint32(n), nil
	}
	return 0, newError(KindProtocol, nil, "UIDVALIDITY missing from SELECT response")
}

// Status describes a tagged completion line: its status word (OK, NO,
// or BAD) and any trailing human-readable text.
type Status struct {
	Status string
	Text   string
}

// TaggedStatus locates the final tagged completion line of response
// (the line beginning with the command's own tag, not "*") and
// reports its status word and text. Any untagged lines preceding it
// are ignored here; callers needing their content use
// ParseSearchUIDs/ExtractUIDValidity/ParseFetchResponse instead.
func TaggedStatus(response string) (Status, error) {
	lines := splitLines(response)
	for i := len(lines) - 1; i >= 0; i-- {
		tag, status, text, ok := splitTagStatus(lines[i])
		if ok && tag != untaggedMarker {
			return Status{Status: status, Text: text}, nil
		}
	}
	return Status{}, newError(KindTruncated, nil, "response has no tagged completion line")
}

// splitLines splits response on CRLF, discarding the trailing empty
// element a CRLF-terminated string otherwise produces.
func splitLines(response string) []string {
	lines := strings.Split(response, "\r\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
