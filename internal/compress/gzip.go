package compress

import (
	"bytes"
	"compress/gzip"
)

type GZip struct {
	level int
}

func NewGZip() GZip {
	return GZip{level: gzip.DefaultCompression}
}

func (g GZip) Name() string {
	return NameGZip
}

func (g GZip) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g GZip) Decode(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(gr); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
