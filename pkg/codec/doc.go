// Package codec provides command serialization and deserialization for shmkv.
//
// The codec package implements the text record format that clients write into
// the shared memory channel and the server reads back out of it. The channel
// holds a single record at a time, so the format is optimised for cheap
// change detection rather than for streaming.
//
// # Record Format
//
// Records are newline-delimited text. Fields are not length-prefixed:
//
//	record    := nonce "\n" op-record
//	op-record := "i\n" key "\n" value   ; Insert
//	           | "g\n" key               ; Get
//	           | "d\n" key               ; Delete
//	           | "q\n"                   ; Shutdown (nonce omitted)
//
// Fields:
//   - nonce: decimal integer, regenerated for every publish
//   - op: single byte operation tag
//   - key: raw bytes, non-empty, no "\n" and no NUL
//   - value: raw bytes, no "\n" and no NUL (Insert only)
//
// The nonce exists only so that two identical commands published back to
// back produce different bytes. The server detects new work by comparing the
// channel against the last record it saw; without the nonce a repeated
// "g\nkey" would look like an unchanged channel.
//
// A record is terminated by a NUL byte when written into the channel. Bytes
// after the terminator are stale and must be ignored, see Trim.
//
// # Usage
//
//	c := codec.NewCommandCodec(4096)
//
//	encoded, err := c.Encode(codec.Insert([]byte("user:1"), []byte("alice")), 42)
//	if err != nil {
//	    return err
//	}
//
//	record, err := c.Decode(encoded)
//	if errors.Is(err, codec.ErrMalformedRecord) {
//	    // drop it, the channel may hold garbage
//	}
//
// # Error Handling
//
// Encode returns ErrInvalidCommand for commands that cannot be represented
// (empty key, embedded delimiters) and ErrRecordTooLarge when the record plus
// its terminator would not fit in the channel. Nothing is ever truncated.
//
// Decode returns ErrMalformedRecord, wrapped with the reason, for anything that
// does not parse. Callers are expected to log and drop such records.
//
// # Thread Safety
//
// CommandCodec instances are safe for concurrent use. Decoded commands own
// their key and value bytes and do not alias the input buffer.
package codec
