package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// Dump writes one line per bucket in the form
//
//	Bucket 0: (key, value) -> (key, value) -> NULL
//
// Four byte keys and values are rendered as signed decimal integers,
// everything else as text with any trailing NUL bytes trimmed.
func (t *Table) Dump(w io.Writer) error {
	var err error
	t.Walk(func(bucket int, chain []Entry) {
		if err != nil {
			return
		}
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Bucket %d: ", bucket)
		for _, e := range chain {
			fmt.Fprintf(&buf, "(%s, %s) -> ", render(e.Key), render(e.Value))
		}
		buf.WriteString("NULL\n")
		_, err = w.Write(buf.Bytes())
	})
	return err
}

// DumpString is Dump into a string
func (t *Table) DumpString() string {
	var buf bytes.Buffer
	_ = t.Dump(&buf)
	return buf.String()
}

func render(b []byte) string {
	if len(b) == IntKeySize {
		return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10)
	}
	return string(bytes.TrimRight(b, "\x00"))
}
