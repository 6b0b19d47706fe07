package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

// Exists reports whether a snapshot file is present at path.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Read loads the snapshot at path. Every failure, including a short file or
// checksum mismatch, wraps errors.ErrCorruptCache.
func Read(path string) (*Payload, Header, error) {
	p, h, err := read(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("%w: %s: %w", apperrors.ErrCorruptCache, path, err)
	}
	return p, h, nil
}

func read(path string) (*Payload, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	headerBytes := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("reading header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, Header{}, fmt.Errorf("bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, Header{}, fmt.Errorf("unsupported format version %d", header.Version)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, Header{}, fmt.Errorf("stat snapshot file: %w", err)
	}
	if want := uint64(info.Size()) - uint64(HeaderSize); header.BodyLen != want {
		return nil, Header{}, fmt.Errorf("body length %d does not match file (%d bytes)", header.BodyLen, want)
	}

	body := make([]byte, header.BodyLen)
	if _, err := io.ReadFull(f, body); err != nil {
		return nil, Header{}, fmt.Errorf("reading body: %w", err)
	}
	if sum := crc32.ChecksumIEEE(body); sum != header.Checksum {
		return nil, Header{}, fmt.Errorf("checksum mismatch: header %08x, body %08x", header.Checksum, sum)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, Header{}, fmt.Errorf("creating decompressor: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, Header{}, fmt.Errorf("decompressing body: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Header{}, fmt.Errorf("parsing body: %w", err)
	}
	if p.Docs == nil || p.DocFreq == nil {
		return nil, Header{}, fmt.Errorf("body is missing docs or doc_freq")
	}
	if uint32(len(p.Docs)) != header.DocCount || uint32(len(p.DocFreq)) != header.TermCount {
		return nil, Header{}, fmt.Errorf("header counts (%d docs, %d terms) disagree with body (%d, %d)",
			header.DocCount, header.TermCount, len(p.Docs), len(p.DocFreq))
	}
	for path, doc := range p.Docs {
		if err := checkDocument(path, doc); err != nil {
			return nil, Header{}, err
		}
	}
	return &p, header, nil
}

func checkDocument(path string, doc *document.Document) error {
	if doc == nil {
		return fmt.Errorf("document %q is null", path)
	}
	sum := 0
	for term, n := range doc.Terms {
		if n <= 0 {
			return fmt.Errorf("document %q: term %q has count %d", path, term, n)
		}
		sum += n
	}
	if sum != doc.TermCount {
		return fmt.Errorf("document %q: term count %d, terms sum to %d", path, doc.TermCount, sum)
	}
	return nil
}
