package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"
)

// Snapshot file layout: a fixed header, a JSON documents section, a JSON
// terms section, and a footer carrying the CRCs of both sections. All fixed
// fields are little-endian, matching the .tseg tooling.
const (
	MagicBytes    uint32 = 0x54534547 // "TSEG"
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 16
)

type snapshotHeader struct {
	Magic      uint32
	Version    uint32
	DocCount   uint32
	TermCount  uint32
	NextDocID  uint32
	NextTermID uint32
	CreatedAt  int64
	DocsOffset int64
	DocsSize   int64
	TermsSize  int64
}

type docEntry struct {
	ID   uint32 `json:"i"`
	Text string `json:"t"`
}

type termEntry struct {
	Term       string    `json:"w"`
	ID         uint32    `json:"i"`
	Popularity uint32    `json:"p"`
	Postings   []Posting `json:"r"`
}

// WriteSnapshot atomically persists the store and index to path. It writes
// to a .tmp file first and renames on success.
func WriteSnapshot(path string, store *Store, inv *Inverted) error {
	docs, nextDocID := store.snapshot()
	terms, nextTermID := inv.snapshot()

	docList := make([]docEntry, 0, len(docs))
	for id, text := range docs {
		docList = append(docList, docEntry{ID: id, Text: text})
	}
	termList := make([]termEntry, 0, len(terms))
	for term, t := range terms {
		termList = append(termList, termEntry{
			Term:       term,
			ID:         t.ID,
			Popularity: t.Popularity,
			Postings:   t.Postings,
		})
	}

	docsData, err := json.Marshal(docList)
	if err != nil {
		return fmt.Errorf("marshaling documents: %w", err)
	}
	termsData, err := json.Marshal(termList)
	if err != nil {
		return fmt.Errorf("marshaling terms: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(docList)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(termList)))
	binary.LittleEndian.PutUint32(header[16:20], nextDocID)
	binary.LittleEndian.PutUint32(header[20:24], nextTermID)
	binary.LittleEndian.PutUint64(header[24:32], uint64(time.Now().Unix()))
	binary.LittleEndian.PutUint64(header[32:40], uint64(HeaderSize))
	binary.LittleEndian.PutUint64(header[40:48], uint64(len(docsData)))
	binary.LittleEndian.PutUint64(header[48:56], uint64(len(termsData)))

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(docsData); err != nil {
		return fmt.Errorf("writing documents section: %w", err)
	}
	if _, err := f.Write(termsData); err != nil {
		return fmt.Errorf("writing terms section: %w", err)
	}

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(docsData))
	binary.LittleEndian.PutUint32(footer[4:8], crc32.ChecksumIEEE(termsData))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by WriteSnapshot into store and inv.
// Any framing or checksum mismatch is returned as an error; the caller
// treats a malformed snapshot as fatal.
func LoadSnapshot(path string, store *Store, inv *Inverted) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot file: %w", err)
	}
	if len(data) < HeaderSize+FooterSize {
		return fmt.Errorf("invalid snapshot file: truncated (%d bytes)", len(data))
	}
	header := snapshotHeader{
		Magic:      binary.LittleEndian.Uint32(data[0:4]),
		Version:    binary.LittleEndian.Uint32(data[4:8]),
		DocCount:   binary.LittleEndian.Uint32(data[8:12]),
		TermCount:  binary.LittleEndian.Uint32(data[12:16]),
		NextDocID:  binary.LittleEndian.Uint32(data[16:20]),
		NextTermID: binary.LittleEndian.Uint32(data[20:24]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(data[24:32])),
		DocsOffset: int64(binary.LittleEndian.Uint64(data[32:40])),
		DocsSize:   int64(binary.LittleEndian.Uint64(data[40:48])),
		TermsSize:  int64(binary.LittleEndian.Uint64(data[48:56])),
	}
	if header.Magic != MagicBytes {
		return fmt.Errorf("invalid snapshot file: bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return fmt.Errorf("unsupported snapshot version %d", header.Version)
	}
	docsEnd := header.DocsOffset + header.DocsSize
	termsEnd := docsEnd + header.TermsSize
	if docsEnd > int64(len(data)) || termsEnd+int64(FooterSize) > int64(len(data)) {
		return fmt.Errorf("invalid snapshot file: section bounds exceed file size")
	}
	docsData := data[header.DocsOffset:docsEnd]
	termsData := data[docsEnd:termsEnd]
	footer := data[termsEnd : termsEnd+int64(FooterSize)]

	if crc := crc32.ChecksumIEEE(docsData); crc != binary.LittleEndian.Uint32(footer[0:4]) {
		return fmt.Errorf("snapshot documents section checksum mismatch")
	}
	if crc := crc32.ChecksumIEEE(termsData); crc != binary.LittleEndian.Uint32(footer[4:8]) {
		return fmt.Errorf("snapshot terms section checksum mismatch")
	}

	var docList []docEntry
	if err := json.Unmarshal(docsData, &docList); err != nil {
		return fmt.Errorf("parsing documents section: %w", err)
	}
	var termList []termEntry
	if err := json.Unmarshal(termsData, &termList); err != nil {
		return fmt.Errorf("parsing terms section: %w", err)
	}

	docs := make(map[uint32]string, len(docList))
	for _, d := range docList {
		docs[d.ID] = d.Text
	}
	terms := make(map[string]*Term, len(termList))
	for _, t := range termList {
		terms[t.Term] = &Term{
			ID:         t.ID,
			Popularity: t.Popularity,
			Postings:   t.Postings,
		}
	}
	store.restore(docs, header.NextDocID)
	inv.restore(terms, header.NextTermID)
	return nil
}
