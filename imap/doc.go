/*
Package imap implements the transport, dialog, and response-framing
layers of an IMAP4rev1 client (RFC 3501).

Unlike a general-purpose client, this package does not attempt to
model the whole protocol. Commands and responses are handled as plain
strings: Dialog.Send writes a tagged command line and returns the full
accumulated server reply, unparsed, once the matching tagged
completion line has been seen. Interpretation of that reply — which
untagged lines matter, what a FETCH response's UID and literal payload
are — is the caller's job, done with the small set of extraction
helpers in this package (ParseFetchResponse, ParseSearchUIDs,
ExtractUIDValidity, TaggedStatus) rather than a general sexp decoder.

The one subtlety this package does own internally is literal framing:
an IMAP literal is introduced by "{n}\r\n" and is followed by exactly n
arbitrary bytes, which may themselves contain CRLF sequences that look
like protocol lines. Both the Dialog's read loop (deciding where the
tagged completion line begins) and the FETCH parser (deciding where a
message body ends) consume literals by byte count rather than by
scanning for a terminator, so a message whose body happens to contain
something that looks like a tagged completion can never be mistaken
for one.

Because exactly one command is ever outstanding at a time (see §5 of
the design: the core is strictly sequential), this package does not
need — and does not provide — the channel-based unsolicited-response
plumbing an asynchronous IMAP client would.
*/
package imap
