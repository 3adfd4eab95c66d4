package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// DefaultCapacity is the size of the shared memory channel in bytes
const DefaultCapacity = 4096

// Errors
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrRecordTooLarge  = errors.New("record exceeds channel capacity")
)

// Op is the single byte operation tag of a record
type Op byte

// Supported operations
const (
	OpInsert   Op = 'i'
	OpGet      Op = 'g'
	OpDelete   Op = 'd'
	OpShutdown Op = 'q'
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpGet:
		return "get"
	case OpDelete:
		return "delete"
	case OpShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("unknown(%q)", byte(o))
	}
}

// Command is a decoded channel operation
type Command struct {
	Op    Op
	Key   []byte
	Value []byte // Insert only
}

// Insert builds an insert command
func Insert(key, value []byte) Command {
	return Command{Op: OpInsert, Key: key, Value: value}
}

// Get builds a get command
func Get(key []byte) Command {
	return Command{Op: OpGet, Key: key}
}

// Delete builds a delete command
func Delete(key []byte) Command {
	return Command{Op: OpDelete, Key: key}
}

// Shutdown builds a shutdown command
func Shutdown() Command {
	return Command{Op: OpShutdown}
}

func (c Command) String() string {
	switch c.Op {
	case OpInsert:
		return fmt.Sprintf("insert %q=%q", c.Key, c.Value)
	case OpShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("%s %q", c.Op, c.Key)
	}
}

// Validate checks that the command can be represented on the wire
func (c Command) Validate() error {
	switch c.Op {
	case OpShutdown:
		return nil
	case OpInsert:
		if err := checkField("value", c.Value); err != nil {
			return err
		}
	case OpGet, OpDelete:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidCommand, byte(c.Op))
	}

	if len(c.Key) == 0 {
		return fmt.Errorf("%w: key is required for %s", ErrInvalidCommand, c.Op)
	}
	return checkField("key", c.Key)
}

func checkField(name string, b []byte) error {
	if i := bytes.IndexAny(b, "\n\x00"); i >= 0 {
		return fmt.Errorf("%w: %s contains delimiter byte %q at offset %d", ErrInvalidCommand, name, b[i], i)
	}
	return nil
}

// Record is a decoded channel record
type Record struct {
	Nonce   uint64 // Zero for shutdown markers
	Command Command
}

// CommandCodec encodes and decodes channel records
type CommandCodec struct {
	capacity int
}

// NewCommandCodec creates a codec for a channel of the given capacity
func NewCommandCodec(capacity int) *CommandCodec {
	return &CommandCodec{capacity: capacity}
}

// Capacity returns the channel capacity the codec enforces
func (c *CommandCodec) Capacity() int {
	return c.capacity
}

// Encode serializes cmd with the given nonce. The returned slice does not
// include the NUL terminator, but room for it is accounted for.
func (c *CommandCodec) Encode(cmd Command, nonce uint64) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if cmd.Op == OpShutdown {
		buf.WriteString("q\n")
	} else {
		buf.WriteString(strconv.FormatUint(nonce, 10))
		buf.WriteByte('\n')
		buf.WriteByte(byte(cmd.Op))
		buf.WriteByte('\n')
		buf.Write(cmd.Key)
		if cmd.Op == OpInsert {
			buf.WriteByte('\n')
			buf.Write(cmd.Value)
		}
	}

	if buf.Len()+1 > c.capacity {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrRecordTooLarge, buf.Len()+1, c.capacity)
	}
	return buf.Bytes(), nil
}

// Decode parses a record. data may be a full channel buffer; anything from
// the first NUL byte on is ignored.
func (c *CommandCodec) Decode(data []byte) (*Record, error) {
	data = Trim(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrMalformedRecord)
	}

	if IsShutdown(data) {
		return &Record{Command: Shutdown()}, nil
	}

	nonceEnd := bytes.IndexByte(data, '\n')
	if nonceEnd < 0 {
		return nil, fmt.Errorf("%w: missing nonce delimiter", ErrMalformedRecord)
	}
	nonce, err := strconv.ParseUint(string(data[:nonceEnd]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid nonce %q", ErrMalformedRecord, data[:nonceEnd])
	}

	rest := data[nonceEnd+1:]
	opEnd := bytes.IndexByte(rest, '\n')
	if opEnd < 0 {
		return nil, fmt.Errorf("%w: missing operation delimiter", ErrMalformedRecord)
	}
	if opEnd != 1 {
		return nil, fmt.Errorf("%w: invalid operation %q", ErrMalformedRecord, rest[:opEnd])
	}
	op := Op(rest[0])
	body := rest[opEnd+1:]

	var cmd Command
	switch op {
	case OpInsert:
		keyEnd := bytes.IndexByte(body, '\n')
		if keyEnd < 0 {
			return nil, fmt.Errorf("%w: missing value delimiter", ErrMalformedRecord)
		}
		cmd = Insert(clone(body[:keyEnd]), clone(body[keyEnd+1:]))
	case OpGet, OpDelete:
		if keyEnd := bytes.IndexByte(body, '\n'); keyEnd >= 0 {
			body = body[:keyEnd]
		}
		cmd = Command{Op: op, Key: clone(body)}
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrMalformedRecord, byte(op))
	}

	if len(cmd.Key) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrMalformedRecord)
	}

	return &Record{Nonce: nonce, Command: cmd}, nil
}

// Trim returns the logical record held in a channel buffer: everything up to
// the first NUL byte, or the whole buffer when there is none.
func Trim(buf []byte) []byte {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return buf[:i]
	}
	return buf
}

// IsShutdown reports whether a logical record is a shutdown marker
func IsShutdown(data []byte) bool {
	return len(data) > 0 && data[0] == byte(OpShutdown)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
