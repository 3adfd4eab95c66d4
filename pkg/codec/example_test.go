package codec_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/ssargent/shmkv/pkg/codec"
)

// ExampleCommandCodec_basic demonstrates encoding and decoding a command
func ExampleCommandCodec_basic() {
	c := codec.NewCommandCodec(codec.DefaultCapacity)

	encoded, err := c.Encode(codec.Insert([]byte("user:123"), []byte("john@example.com")), 1804289383)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Encoded %d bytes\n", len(encoded))

	record, err := c.Decode(encoded)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Nonce: %d\n", record.Nonce)
	fmt.Printf("Op: %s\n", record.Command.Op)
	fmt.Printf("Key: %s\n", record.Command.Key)
	fmt.Printf("Value: %s\n", record.Command.Value)

	// Output:
	// Encoded 38 bytes
	// Nonce: 1804289383
	// Op: insert
	// Key: user:123
	// Value: john@example.com
}

// ExampleCommandCodec_malformed demonstrates how a consumer drops bad records
func ExampleCommandCodec_malformed() {
	c := codec.NewCommandCodec(codec.DefaultCapacity)

	_, err := c.Decode([]byte("17\nx\nkey"))
	fmt.Println(errors.Is(err, codec.ErrMalformedRecord))

	// Output:
	// true
}
