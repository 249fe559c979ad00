package lens

import (
	"bytes"
	"runtime"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
var snappyStreamMagic = []byte{0xFF, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}

// Compression identifies how a snapshot payload is compressed.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionSnappy
	// CompressionSnappyBlock is a single snappy block, recognized only by file extension.
	CompressionSnappyBlock
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionSnappy:
		return "snappy"
	case CompressionSnappyBlock:
		return "snappy_block"
	default:
		return "none"
	}
}

// DetectCompression identifies zstd frames by magic number. Block snappy has no magic number, so it is only
// detected in the framed stream format. See CompressionForPath for the block format.
func DetectCompression(data []byte) Compression {
	if bytes.HasPrefix(data, zstdMagic) {
		return CompressionZstd
	} else if bytes.HasPrefix(data, snappyStreamMagic) {
		return CompressionSnappy
	}
	return CompressionNone
}

// ZstdCompress compresses a byte slice using zstd and returns the compressed data.
func ZstdCompress(dst, data []byte) []byte {
	encOpts := []zstd.EOption{
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	}
	if len(data) > 1024*1024*100 { // update options for large payloads
		encOpts = append(encOpts, zstd.WithEncoderConcurrency(max(1, runtime.NumCPU()/2)))
	}
	encoder, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		panic(err) // theoretically not possible
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, dst)
}

// ZstdDecompress decompresses a zstd-compressed byte slice and returns the original data.
func ZstdDecompress(dst, data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, dst)
}

// SnappyCompress compresses a byte slice into a single snappy block.
func SnappyCompress(dst, data []byte) []byte {
	return s2.EncodeSnappyBest(dst, data)
}

// SnappyDecompress decompresses a single snappy block.
func SnappyDecompress(dst, data []byte) ([]byte, error) {
	return snappy.Decode(dst, data)
}

// SnappyStreamCompress compresses the data in the framed snappy stream format.
func SnappyStreamCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	} else if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SnappyStreamDecompress decompresses data in the framed snappy stream format.
func SnappyStreamDecompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(snappy.NewReader(bytes.NewReader(data))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
