package lens

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format is a snapshot payload encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ErrUnknownFormat is returned when the payload encoding can not be determined.
var ErrUnknownFormat = errors.New("unknown snapshot format")

// DecodeSnapshot decodes a snapshot payload, decompressing zstd or framed snappy data first. An empty format
// detects JSON by its leading brace and otherwise assumes msgpack.
func DecodeSnapshot(data []byte, format Format) (*Snapshot, error) {
	return decodeSnapshot(data, format, CompressionNone)
}

// decodeSnapshot decodes the payload, the hint is only used when the data carries no compression magic.
func decodeSnapshot(data []byte, format Format, hint Compression) (*Snapshot, error) {
	compression := DetectCompression(data)
	if compression == CompressionNone {
		compression = hint
	}
	var err error
	switch compression {
	case CompressionZstd:
		if data, err = ZstdDecompress(nil, data); err != nil {
			return nil, fmt.Errorf("zstd decompress failed: %w", err)
		}
	case CompressionSnappy:
		if data, err = SnappyStreamDecompress(data); err != nil {
			return nil, fmt.Errorf("snappy decompress failed: %w", err)
		}
	case CompressionSnappyBlock:
		if data, err = SnappyDecompress(nil, data); err != nil {
			return nil, fmt.Errorf("snappy block decompress failed: %w", err)
		}
	}

	if format == "" {
		format = detectFormat(data)
	}
	snap := &Snapshot{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("decode json snapshot failed: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.Unmarshal(data, snap); err != nil {
			return nil, fmt.Errorf("decode msgpack snapshot failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return snap, nil
}

// EncodeSnapshot encodes the snapshot, optionally compressing the result.
func EncodeSnapshot(snap *Snapshot, format Format, compression Compression) ([]byte, error) {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.Marshal(snap)
	case FormatMsgpack:
		data, err = msgpack.Marshal(snap)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot failed: %w", format, err)
	}

	switch compression {
	case CompressionZstd:
		return ZstdCompress(nil, data), nil
	case CompressionSnappy:
		return SnappyStreamCompress(data)
	case CompressionSnappyBlock:
		return SnappyCompress(nil, data), nil
	default:
		return data, nil
	}
}

func detectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatMsgpack
}

// FormatForPath determines the format from the file extension, ignoring a trailing compression extension.
// An empty format is returned when the extension is not recognized.
func FormatForPath(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range []string{".zst", ".zstd", ".sz", ".snappy"} {
		name = strings.TrimSuffix(name, ext)
	}
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON
	case ".msgpack", ".mp", ".mpk":
		return FormatMsgpack
	default:
		return ""
	}
}

// CompressionForPath returns the compression implied by the file extension. A ".sz" or ".snappy" file without
// the stream header is read as a single snappy block.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".sz", ".snappy":
		return CompressionSnappyBlock
	default:
		return CompressionNone
	}
}

// LoadSnapshotFile reads and decodes a snapshot file.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot failed: %w", err)
	}
	format := FormatForPath(path)
	if format == "" {
		log.Printf("WARN: Unrecognized snapshot extension, detecting format: %s", path)
	}
	snap, err := decodeSnapshot(data, format, CompressionForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
