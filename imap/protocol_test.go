package imap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literalLine(tag int, uid int, body string) string {
	return fmt.Sprintf("* %d FETCH (UID %d BODY[] {%d}\r\n%s)\r\n", tag, uid, len(body), body)
}

func TestParseFetchResponseSingle(t *testing.T) {
	body := "hello world"
	resp := literalLine(1, 7, body) + "A005 OK FETCH completed\r\n"

	results, err := ParseFetchResponse(resp)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 7, results[0].UID)
	assert.Equal(t, body, string(results[0].Message))
}

func TestParseFetchResponseMultiple(t *testing.T) {
	a, b := "aaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbb"
	resp := literalLine(1, 1, a) + literalLine(2, 2, b) + "A005 OK FETCH completed\r\n"

	results, err := ParseFetchResponse(resp)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.EqualValues(t, 1, results[0].UID)
	assert.Equal(t, a, string(results[0].Message))
	assert.EqualValues(t, 2, results[1].UID)
	assert.Equal(t, b, string(results[1].Message))
}

// TestParseFetchResponseEmbeddedCompletion covers scenario S5: a
// literal body containing a CRLF-terminated substring that looks like
// a tagged OK completion must not terminate the scan early.
func TestParseFetchResponseEmbeddedCompletion(t *testing.T) {
	body := "line one\r\nA001 OK not actually the end\r\nmore body"
	resp := literalLine(1, 9, body) + "A001 OK FETCH completed\r\n"

	results, err := ParseFetchResponse(resp)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, body, string(results[0].Message))
}

func TestParseFetchResponseServerError(t *testing.T) {
	resp := "A005 NO invalid UID set\r\n"
	_, err := ParseFetchResponse(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindServer))
}

// TestParseFetchResponseTruncated covers a literal whose announced
// byte count does not fit in what's left of the response: the
// exchange was cut off mid-literal, not malformed.
func TestParseFetchResponseTruncated(t *testing.T) {
	resp := "* 1 FETCH (UID 1 BODY[] {5}\r\nab"
	_, err := ParseFetchResponse(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindTruncated))
}

// TestParseFetchResponseMalformedLiteral covers a "{n}" introducer
// whose content isn't a valid non-negative integer, which is a
// structural defect rather than a short read.
func TestParseFetchResponseMalformedLiteral(t *testing.T) {
	resp := "* 1 FETCH (UID 1 BODY[] {-5}\r\nshort)\r\nA005 OK FETCH completed\r\n"
	_, err := ParseFetchResponse(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindMalformedResponse))
}

func TestParseFetchResponseZeroUID(t *testing.T) {
	resp := "* 1 FETCH (UID 0 BODY[] {5}\r\nhello)\r\nA005 OK FETCH completed\r\n"
	_, err := ParseFetchResponse(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindMalformedResponse))
}

func TestParseFetchResponseNoLiteral(t *testing.T) {
	resp := "* 1 FETCH (UID 3 FLAGS (\\Seen))\r\nA005 OK FETCH completed\r\n"
	results, err := ParseFetchResponse(resp)
	require.NoError(t, err)
	assert.Empty(t, results)
}
