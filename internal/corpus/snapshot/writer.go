// Package snapshot persists a built corpus to a single cache file and loads
// it back. The file is a fixed 32-byte header followed by a zstd-compressed
// JSON body:
//
//	0:4   magic "DSX1"
//	4:8   format version
//	8:12  document count
//	12:16 distinct term count
//	16:24 body length in bytes
//	24:28 CRC32 (IEEE) of the body
//	28:32 reserved
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/language"
	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

const (
	MagicBytes    uint32 = 0x44535831
	FormatVersion uint32 = 1
	HeaderSize    int    = 32
)

// Header is the decoded fixed-size prefix of a snapshot file.
type Header struct {
	Magic     uint32
	Version   uint32
	DocCount  uint32
	TermCount uint32
	BodyLen   uint64
	Checksum  uint32
}

func (h Header) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.DocCount)
	binary.LittleEndian.PutUint32(b[12:16], h.TermCount)
	binary.LittleEndian.PutUint64(b[16:24], h.BodyLen)
	binary.LittleEndian.PutUint32(b[24:28], h.Checksum)
	return b
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:     binary.LittleEndian.Uint32(b[0:4]),
		Version:   binary.LittleEndian.Uint32(b[4:8]),
		DocCount:  binary.LittleEndian.Uint32(b[8:12]),
		TermCount: binary.LittleEndian.Uint32(b[12:16]),
		BodyLen:   binary.LittleEndian.Uint64(b[16:24]),
		Checksum:  binary.LittleEndian.Uint32(b[24:28]),
	}
}

// Payload is everything a snapshot stores.
type Payload struct {
	Docs     map[string]*document.Document `json:"docs"`
	DocFreq  map[string]int                `json:"doc_freq"`
	Language language.Tag                  `json:"language"`
}

// Write atomically replaces path with a snapshot of p. It writes to a .tmp
// file first and renames on success. Failures wrap errors.ErrCacheWrite.
func Write(path string, p *Payload) error {
	if err := write(path, p); err != nil {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrCacheWrite, path, err)
	}
	return nil
}

func write(path string, p *Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling corpus: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	body := enc.EncodeAll(raw, nil)
	enc.Close()

	header := Header{
		Magic:     MagicBytes,
		Version:   FormatVersion,
		DocCount:  uint32(len(p.Docs)),
		TermCount: uint32(len(p.DocFreq)),
		BodyLen:   uint64(len(body)),
		Checksum:  crc32.ChecksumIEEE(body),
	}

	tmpPath := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	if _, err := f.Write(header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}
