package main

import (
	"bufio"
	"os"
	"strings"

	"imapsync/imap"
)

// Credentials is a (username, password) pair loaded from the file
// named by -a, per spec's Credentials entity: opaque bytes once
// parsed, never normalized or trimmed beyond the `=` split.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials parses a file of "username = <value>" and
// "password = <value>" lines. Whitespace around "=" is discarded; the
// value is everything after the first "=". Both keys must appear, in
// either order; a missing or unreadable file, or a file missing
// either key, is a CredentialError.
func LoadCredentials(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, newError(imap.KindCredential, err, "opening credentials file %s", path)
	}
	defer f.Close()

	var creds Credentials
	var haveUser, havePass bool

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		switch key {
		case "username":
			creds.Username = value
			haveUser = true
		case "password":
			creds.Password = value
			havePass = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, newError(imap.KindCredential, err, "reading credentials file %s", path)
	}
	if !haveUser || !havePass {
		return Credentials{}, newError(imap.KindCredential, nil, "credentials file %s missing username or password", path)
	}
	return creds, nil
}
