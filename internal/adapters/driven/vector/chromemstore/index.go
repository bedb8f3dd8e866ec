// Package chromemstore implements the vector index on chromem-go, an embedded
// vector database persisted to a local directory. Each document gets its
// own collection named doc_{document_id}.
package chromemstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// CollectionPrefix prefixes every document collection name.
const CollectionPrefix = "doc_"

// searchAllConcurrency bounds the SearchAll fan-out.
const searchAllConcurrency = 8

// collectionMetadata selects cosine distance for new collections.
var collectionMetadata = map[string]string{"hnsw:space": "cosine"}

// CollectionName returns the collection name for a document.
func CollectionName(documentID string) string {
	return CollectionPrefix + documentID
}

// Index is a driven.VectorIndex backed by a persistent chromem-go database.
// The database is opened on first use.
type Index struct {
	dir string

	openMu sync.Mutex
	db     *chromem.DB
	openDB func(dir string) (*chromem.DB, error)
	now    func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.RWMutex
}

// NewIndex creates an index persisted under dir. Nothing is read until the
// first operation.
func NewIndex(dir string) *Index {
	return &Index{
		dir: dir,
		openDB: func(dir string) (*chromem.DB, error) {
			return chromem.NewPersistentDB(dir, false)
		},
		now:   time.Now,
		locks: make(map[string]*sync.RWMutex),
	}
}

// Dir returns the persistence directory.
func (x *Index) Dir() string {
	return x.dir
}

// database opens the store once. A directory chromem cannot load is moved
// aside and replaced with an empty store.
func (x *Index) database() (*chromem.DB, error) {
	x.openMu.Lock()
	defer x.openMu.Unlock()

	if x.db != nil {
		return x.db, nil
	}

	db, err := x.openDB(x.dir)
	if err == nil {
		x.db = db
		return db, nil
	}

	if _, statErr := os.Stat(x.dir); statErr != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrVectorIndexUnavailable, x.dir, err)
	}

	quarantine := fmt.Sprintf("%s.corrupt-%s", x.dir, x.now().Format("20060102-150405"))
	if mvErr := os.Rename(x.dir, quarantine); mvErr != nil {
		logger.Error("vector store at %s is unreadable (%v) and could not be moved aside (%v); removing it", x.dir, err, mvErr)
		if rmErr := os.RemoveAll(x.dir); rmErr != nil {
			return nil, fmt.Errorf("%w: remove corrupt store: %w", domain.ErrVectorIndexUnavailable, rmErr)
		}
	} else {
		logger.Error("vector store at %s is unreadable (%v); moved to %s and starting empty", x.dir, err, quarantine)
	}

	db, err = x.openDB(x.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reinitialise %s: %w", domain.ErrVectorIndexUnavailable, x.dir, err)
	}
	x.db = db
	return db, nil
}

// lock returns the mutex guarding one collection.
func (x *Index) lock(name string) *sync.RWMutex {
	x.locksMu.Lock()
	defer x.locksMu.Unlock()
	l, ok := x.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		x.locks[name] = l
	}
	return l
}

// UpsertCollection creates the document's collection if it does not exist.
func (x *Index) UpsertCollection(_ context.Context, documentID string) error {
	db, err := x.database()
	if err != nil {
		return err
	}
	name := CollectionName(documentID)
	l := x.lock(name)
	l.Lock()
	defer l.Unlock()

	if _, err := db.GetOrCreateCollection(name, collectionMetadata, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// Add stores records with their vectors, overwriting existing IDs.
// Records with no ID, no content or a zero vector are skipped.
func (x *Index) Add(
	ctx context.Context, documentID string, records []domain.VectorRecord, vectors [][]float32,
) (int, error) {
	if len(records) != len(vectors) {
		return 0, fmt.Errorf("%w: %d records, %d vectors", domain.ErrCardinalityMismatch, len(records), len(vectors))
	}

	ids := make([]string, 0, len(records))
	embeddings := make([][]float32, 0, len(records))
	metadatas := make([]map[string]string, 0, len(records))
	contents := make([]string, 0, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			logger.Warn("vector index: skipping record %d of document %s (empty id)", i, documentID)
			continue
		}
		if strings.TrimSpace(rec.Content) == "" || isZero(vectors[i]) {
			logger.Warn("vector index: skipping record %q of document %s (empty content or vector)", rec.ID, documentID)
			continue
		}
		meta := make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			meta[k] = v
		}
		ids = append(ids, rec.ID)
		embeddings = append(embeddings, vectors[i])
		metadatas = append(metadatas, meta)
		contents = append(contents, rec.Content)
	}
	if len(ids) == 0 {
		return 0, domain.ErrNoValidRecords
	}

	db, err := x.database()
	if err != nil {
		return 0, err
	}
	name := CollectionName(documentID)
	l := x.lock(name)
	l.Lock()
	defer l.Unlock()

	col, err := db.GetOrCreateCollection(name, collectionMetadata, nil)
	if err != nil {
		return 0, fmt.Errorf("create collection %s: %w", name, err)
	}
	if err := col.Add(ctx, ids, embeddings, metadatas, contents); err != nil {
		return 0, fmt.Errorf("add to %s: %w", name, err)
	}
	return len(ids), nil
}

// Search returns the topK closest chunks of one document.
func (x *Index) Search(
	ctx context.Context, documentID string, query []float32, topK int,
) ([]domain.RetrievalHit, error) {
	if len(query) == 0 || isZero(query) {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	db, err := x.database()
	if err != nil {
		return nil, err
	}
	hits, err := x.query(ctx, db, documentID, query, topK)
	if err != nil {
		return nil, err
	}
	sortHits(hits)
	return hits, nil
}

// SearchAll queries every document collection concurrently and merges the
// results. A collection that fails is logged and left out.
func (x *Index) SearchAll(ctx context.Context, query []float32, topK int) ([]domain.RetrievalHit, error) {
	if len(query) == 0 || isZero(query) {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return []domain.RetrievalHit{}, nil
	}
	db, err := x.database()
	if err != nil {
		return nil, err
	}

	var documentIDs []string
	for name := range db.ListCollections() {
		if id, ok := strings.CutPrefix(name, CollectionPrefix); ok {
			documentIDs = append(documentIDs, id)
		}
	}

	results := make([][]domain.RetrievalHit, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchAllConcurrency)
	for i, id := range documentIDs {
		g.Go(func() error {
			hits, err := x.query(gctx, db, id, query, topK)
			if err != nil {
				logger.Warn("vector index: search in document %s failed: %v", id, err)
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	merged := []domain.RetrievalHit{}
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	sortHits(merged)
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

// query searches one collection with n = min(topK, count).
func (x *Index) query(
	ctx context.Context, db *chromem.DB, documentID string, query []float32, topK int,
) ([]domain.RetrievalHit, error) {
	hits := []domain.RetrievalHit{}
	if topK <= 0 {
		return hits, nil
	}

	name := CollectionName(documentID)
	l := x.lock(name)
	l.RLock()
	defer l.RUnlock()

	col := db.GetCollection(name, nil)
	if col == nil {
		return hits, nil
	}
	n := min(topK, col.Count())
	if n == 0 {
		return hits, nil
	}

	results, err := col.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	for _, r := range results {
		hits = append(hits, domain.RetrievalHit{
			ChunkID:    r.ID,
			DocumentID: documentID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Distance:   1 - float64(r.Similarity),
		})
	}
	return hits, nil
}

// Count returns the number of records in a document's collection.
func (x *Index) Count(_ context.Context, documentID string) (int, error) {
	db, err := x.database()
	if err != nil {
		return 0, err
	}
	name := CollectionName(documentID)
	l := x.lock(name)
	l.RLock()
	defer l.RUnlock()

	col := db.GetCollection(name, nil)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

// Delete drops a document's collection. A missing collection is not an error.
func (x *Index) Delete(_ context.Context, documentID string) error {
	db, err := x.database()
	if err != nil {
		return err
	}
	name := CollectionName(documentID)
	l := x.lock(name)
	l.Lock()
	defer l.Unlock()

	if db.GetCollection(name, nil) == nil {
		return nil
	}
	if err := db.DeleteCollection(name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return nil
}

// Close releases the database. chromem persists on every write, so there
// is nothing to flush.
func (x *Index) Close() error {
	x.openMu.Lock()
	defer x.openMu.Unlock()
	x.db = nil
	return nil
}

// sortHits orders by distance, then document ID, then chunk ID.
func sortHits(hits []domain.RetrievalHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ChunkID < b.ChunkID
	})
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
