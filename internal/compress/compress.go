package compress

import "errors"

var ErrUnknownCompression = errors.New("unknown compression")

// Compress encodes stored document content.
type Compress interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

const (
	NameNop    = "none"
	NameGZip   = "gzip"
	NameBrotli = "brotli"
	NameLZ4    = "lz4"
)

// Lookup returns the compressor stored under name. Records written before
// compression was configured have an empty name and decode with Nop.
func Lookup(name string) (Compress, error) {
	switch name {
	case "", NameNop:
		return NewNop(), nil
	case NameGZip:
		return NewGZip(), nil
	case NameBrotli:
		return NewBrotli(), nil
	case NameLZ4:
		return NewLZ4(), nil
	}
	return nil, ErrUnknownCompression
}
