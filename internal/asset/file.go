package asset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"blueprintcore/internal/diag"
	"blueprintcore/internal/engine"
)

// Magic starts every package file.
const Magic = "BPKG"

// FileVersion is the current header layout.
const FileVersion uint16 = 1

// header: magic, uint16 file version, compression tag, uint32 payload size.
const headerSize = len(Magic) + 2 + 1 + 4

// Header is the fixed prefix of a package file.
type Header struct {
	FileVersion      uint16
	Compression      CompressionTag
	UncompressedSize uint32
}

// Encode serializes ns into package file bytes, compressing the payload
// with tag when that makes it smaller.
func Encode(ns *engine.Namespace, tag CompressionTag) ([]byte, error) {
	payload, err := encodePayload(ns)
	if err != nil {
		return nil, err
	}
	compressed, used, err := Compress(payload, tag)
	if err != nil {
		return nil, fmt.Errorf("compress package %s: %w", ns.Path, err)
	}

	out := make([]byte, headerSize, headerSize+len(compressed))
	copy(out, Magic)
	binary.BigEndian.PutUint16(out[4:6], FileVersion)
	out[6] = byte(used)
	binary.BigEndian.PutUint32(out[7:11], uint32(len(payload)))
	return append(out, compressed...), nil
}

// ReadHeader parses the fixed prefix of a package file.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < headerSize || !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return Header{}, fmt.Errorf("not a package file")
	}
	h := Header{
		FileVersion:      binary.BigEndian.Uint16(data[4:6]),
		Compression:      CompressionTag(data[6]),
		UncompressedSize: binary.BigEndian.Uint32(data[7:11]),
	}
	if h.FileVersion > FileVersion {
		return h, fmt.Errorf("package file version %d is newer than supported %d", h.FileVersion, FileVersion)
	}
	return h, nil
}

// Decode parses package file bytes. Notes about skipped or dropped records
// go to sink, or to the default logger when sink is nil.
func Decode(data []byte, sink diag.Sink) (*engine.Namespace, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	payload, err := Decompress(data[headerSize:], h.Compression, int(h.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decompress package: %w", err)
	}
	return decodePayload(payload, diag.Or(sink, nil))
}

// WriteFile encodes ns and writes it to path.
func WriteFile(path string, ns *engine.Namespace, tag CompressionTag) error {
	data, err := Encode(ns, tag)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write package: %w", err)
	}
	return nil
}

// ReadFile reads and decodes the package at path.
func ReadFile(path string, sink diag.Sink) (*engine.Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	ns, err := Decode(data, sink)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ns, nil
}
