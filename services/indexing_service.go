package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// defaultQuietPeriod is how long a file must go without events before it is ingested.
const defaultQuietPeriod = 2 * time.Second

// FileIndexingService ingests supported files dropped into an inbox directory.
type FileIndexingService struct {
	ragService  RAGService
	quietPeriod time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewFileIndexingService creates a new indexing service.
func NewFileIndexingService(ragService RAGService) *FileIndexingService {
	return &FileIndexingService{
		ragService:  ragService,
		quietPeriod: defaultQuietPeriod,
		pending:     make(map[string]*time.Timer),
	}
}

// WatchDirectory starts a long-running process to watch for file changes in real-time.
// It returns once ctx is cancelled.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Error("WATCHER ERROR: Failed to create file watcher")
		return
	}
	defer watcher.Close()

	// Goroutine to handle events from the watcher.
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}
				s.handleEvent(ctx, event)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Error("WATCHER ERROR")
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.WithError(err).Error("WATCHER ERROR: Failed to add path to watcher")
	}

	// Block until the context is cancelled (e.g., server shutdown).
	<-ctx.Done()
	s.cancelPending()
}

func (s *FileIndexingService) handleEvent(ctx context.Context, event fsnotify.Event) {
	log.Debugf("WATCHER EVENT: %s", event)

	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		s.schedule(ctx, event.Name)
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		s.cancel(event.Name)
		// Documents are append-only; the stored chunks stay queryable.
		log.Printf("WATCHER: File removed/renamed: %s. Its index entries are kept.", event.Name)
	}
}

// schedule ingests path once it has seen no events for the quiet period. Every new
// event for the same path restarts the wait, so a file is read only after its writer
// is done.
func (s *FileIndexingService) schedule(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[path]; ok {
		t.Reset(s.quietPeriod)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.quietPeriod, func() {
		s.mu.Lock()
		if s.pending[path] == t {
			delete(s.pending, path)
		}
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		s.indexFile(ctx, path)
	})
	s.pending[path] = t
}

func (s *FileIndexingService) cancel(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[path]; ok {
		t.Stop()
		delete(s.pending, path)
	}
}

func (s *FileIndexingService) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, t := range s.pending {
		t.Stop()
		delete(s.pending, path)
	}
}

// ScanAndIndexDirectory ingests every supported file under dirPath that has not been
// ingested before.
func (s *FileIndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !info.IsDir() && isSupportedFile(path) {
			s.indexFile(ctx, path)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Errorf("INDEXER ERROR: Error walking the path %s", dirPath)
	}
	log.Println("INDEXER: Directory scan finished.")
}

func (s *FileIndexingService) indexFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.WithError(err).Warnf("INDEXER: Skipping %s", path)
		return
	}
	if info.Size() == 0 {
		log.Debugf("INDEXER: Skipping empty file %s", path)
		return
	}

	resp, err := s.ragService.IngestFile(ctx, path)
	if err != nil {
		log.WithError(err).Errorf("INDEXER ERROR: Failed to process file %s", path)
		return
	}
	log.Printf("INDEXER: %s -> pdf_id %s (%d chunks, %s)", path, resp.PDFID, resp.Chunks, resp.Message)
}
