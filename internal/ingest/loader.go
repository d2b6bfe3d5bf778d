// Package ingest reads the line-oriented corpus file and feeds it to the
// document store and inverted index, and orchestrates the
// load-snapshot-or-rebuild decision at startup.
package ingest

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/devashish-g/titleseek/internal/index"
	"github.com/devashish-g/titleseek/pkg/metrics"
)

const progressInterval = 100_000

// LoadCorpus reads path line by line, storing each line as one document and
// indexing its normalised tokens. Ids are assigned sequentially from 0 in
// file order. Returns the number of documents ingested.
func LoadCorpus(path string, store *index.Store, inv *index.Inverted, m *metrics.Metrics) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening corpus file %s: %w", path, err)
	}
	defer f.Close()

	log := slog.Default().With("component", "ingest")
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		id := store.Add(line)
		inv.IndexDocument(id, index.Normalize(line))
		count++
		if m != nil {
			m.DocsIndexedTotal.Inc()
		}
		if count%progressInterval == 0 {
			log.Info("ingestion progress", "documents", count)
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading corpus file %s: %w", path, err)
	}
	if m != nil {
		m.IndexedTerms.Set(float64(inv.Len()))
	}
	log.Info("ingestion complete", "documents", count, "terms", inv.Len())
	return count, nil
}

// BuildOrLoad populates the store and index from the snapshot when one
// exists, otherwise ingests the corpus file and writes a fresh snapshot.
// Both failure modes are fatal to the caller: the service does not start
// without a valid index.
func BuildOrLoad(corpusPath, snapshotPath string, store *index.Store, inv *index.Inverted, m *metrics.Metrics) error {
	log := slog.Default().With("component", "ingest")

	if _, err := os.Stat(snapshotPath); err == nil {
		if err := index.LoadSnapshot(snapshotPath, store, inv); err != nil {
			return fmt.Errorf("loading snapshot %s: %w", snapshotPath, err)
		}
		if m != nil {
			m.IndexedTerms.Set(float64(inv.Len()))
		}
		log.Info("snapshot loaded", "path", snapshotPath, "documents", store.Len(), "terms", inv.Len())
		return nil
	}

	if _, err := LoadCorpus(corpusPath, store, inv, m); err != nil {
		return err
	}
	if err := index.WriteSnapshot(snapshotPath, store, inv); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", snapshotPath, err)
	}
	log.Info("snapshot written", "path", snapshotPath)
	return nil
}
