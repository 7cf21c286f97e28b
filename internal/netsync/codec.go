package netsync

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Batch is the binary frame sent to peers.
type Batch struct {
	Tick    uint64       `msgpack:"tick"`
	Effects []Descriptor `msgpack:"fx"`
}

// Encode packs a batch with msgpack.
func Encode(b Batch) ([]byte, error) {
	data, err := msgpack.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("encode effect batch: %w", err)
	}
	return data, nil
}

// Decode unpacks a frame produced by Encode.
func Decode(data []byte) (Batch, error) {
	var b Batch
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("decode effect batch: %w", err)
	}
	return b, nil
}
