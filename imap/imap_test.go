package imap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUIDValidity(t *testing.T) {
	resp := "* FLAGS (\\Answered \\Flagged)\r\n" +
		"* OK [UIDVALIDITY 42] UIDs valid\r\n" +
		"* 5 EXISTS\r\n" +
		"A002 OK [READ-WRITE] SELECT completed\r\n"

	v, err := ExtractUIDValidity(resp)
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestExtractUIDValidityMissing(t *testing.T) {
	resp := "* 5 EXISTS\r\nA002 OK SELECT completed\r\n"
	_, err := ExtractUIDValidity(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindProtocol))
}

func TestExtractUIDValiditySelectFailed(t *testing.T) {
	resp := "A002 NO no such mailbox\r\n"
	_, err := ExtractUIDValidity(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindProtocol))
}

func TestParseSearchUIDs(t *testing.T) {
	resp := "* SEARCH 1 2 3\r\nA003 OK SEARCH completed\r\n"
	uids, err := ParseSearchUIDs(resp)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, uids)
}

func TestParseSearchUIDsRejectsZero(t *testing.T) {
	resp := "* SEARCH 0 1\r\nA003 OK SEARCH completed\r\n"
	_, err := ParseSearchUIDs(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindMalformedResponse))
}

func TestParseSearchUIDsEmpty(t *testing.T) {
	resp := "A003 OK SEARCH completed\r\n"
	uids, err := ParseSearchUIDs(resp)
	require.NoError(t, err)
	assert.Empty(t, uids)
}

func TestTaggedStatusNoCompletion(t *testing.T) {
	resp := "* 5 EXISTS\r\n"
	_, err := TaggedStatus(resp)
	require.Error(t, err)
	assert.True(t, Is(err, KindTruncated))
}
