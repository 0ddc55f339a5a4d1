package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graevy/mag/internal/meta"
	"github.com/graevy/mag/internal/report"
	"github.com/graevy/mag/internal/util"
	"github.com/schollz/progressbar/v3"
)

// AudioExtensions are the default supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
	".wma",
	".ape",
	".wv",  // WavPack
	".mpc", // Musepack
}

const defaultBatchSize = 500

// SongAdder registers song paths, returning how many were new
type SongAdder interface {
	AddSongs(paths []string) (int, error)
}

// Scanner discovers audio files in a directory tree and adds them as songs
type Scanner struct {
	songs       SongAdder
	extensions  map[string]bool
	concurrency int
	batchSize   int
	verify      bool
	logger      *report.EventLogger
}

// Config holds scanner configuration
type Config struct {
	Songs          SongAdder
	AdditionalExts []string
	Concurrency    int
	BatchSize      int
	Verify         bool // Only add files whose embedded tags can be read
	Logger         *report.EventLogger
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[ext] = true
	}

	return &Scanner{
		songs:       cfg.Songs,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		batchSize:   cfg.BatchSize,
		verify:      cfg.Verify,
		logger:      cfg.Logger,
	}
}

// Result represents a scan result
type Result struct {
	Discovered int // Audio files found by extension
	Added      int // Songs new to the library
	Existing   int // Songs already in the library
	Skipped    int // Files rejected by verification
	Errors     []error
}

// errorList collects errors from concurrent workers
type errorList struct {
	mu   sync.Mutex
	errs []error
}

func (e *errorList) add(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

// Scan walks root and adds every audio file under it as a song, keyed by
// absolute path. Files already in the library are left untouched.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	util.InfoLog("Starting scan of: %s", absRoot)
	util.DebugLog("Audio extensions: %s", strings.Join(s.GetSupportedExtensions(), " "))

	errs := &errorList{}

	// Channel for discovered file paths
	filePaths := make(chan string, 100)

	// Channel for accepted songs to batch insert
	accepted := make(chan string, s.batchSize)

	// Counters for progress reporting
	var filesFound atomic.Int64
	var filesProcessed atomic.Int64
	var filesAccepted atomic.Int64
	var filesSkipped atomic.Int64
	var songsAdded atomic.Int64
	var songsFailed atomic.Int64

	var wg sync.WaitGroup

	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	// Check if stdout is a terminal (disable progress bar if piped/redirected)
	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		// Indeterminate: the total is unknown until the walk finishes
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				found := filesFound.Load()
				processed := filesProcessed.Load()
				added := songsAdded.Load()
				skipped := filesSkipped.Load()

				if bar != nil && found > 0 {
					bar.Describe(fmt.Sprintf("Scanning | %d found | %d new | %d skipped", found, added, skipped))
					bar.Set64(processed)
				} else if found > 0 {
					util.InfoLog("Progress: found %d audio files, processed %d (new: %d, skipped: %d)",
						found, processed, added, skipped)
				}
			}
		}
	}()

	// Batch writer: one library call per batch
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		batch := make([]string, 0, s.batchSize)

		flush := func() {
			if len(batch) == 0 {
				return
			}
			added, err := s.songs.AddSongs(batch)
			if err != nil {
				util.ErrorLog("Failed to add %d songs: %v", len(batch), err)
				errs.add(err)
				s.logger.LogError(report.EventScan, batch[0], err)
				songsFailed.Add(int64(len(batch)))
			} else {
				songsAdded.Add(int64(added))
			}
			batch = batch[:0]
		}

		for path := range accepted {
			batch = append(batch, path)
			if len(batch) >= s.batchSize {
				flush()
			}
		}
		flush()
	}()

	// Worker pool
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range filePaths {
				ok, err := s.processFile(path)
				filesProcessed.Add(1)

				if err != nil {
					util.WarnLog("Skipping %s: %v", path, err)
					errs.add(err)
					s.logger.LogError(report.EventScan, path, err)
				}
				if !ok {
					filesSkipped.Add(1)
					continue
				}

				filesAccepted.Add(1)
				select {
				case accepted <- path:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Walk directory tree
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			errs.add(fmt.Errorf("access error: %s: %w", path, err))
			s.logger.LogError(report.EventScan, path, err)
			return nil // Continue walking
		}

		if d.IsDir() || !s.isAudioFile(path) {
			return nil
		}

		filesFound.Add(1)
		select {
		case filePaths <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	close(filePaths)
	wg.Wait()

	close(accepted)
	writerWg.Wait()

	cancelProgress()
	if bar != nil {
		bar.Finish()
	}

	result := &Result{
		Discovered: int(filesFound.Load()),
		Added:      int(songsAdded.Load()),
		Skipped:    int(filesSkipped.Load()),
		Errors:     errs.errs,
	}
	result.Existing = int(filesAccepted.Load()-songsFailed.Load()) - result.Added
	if result.Existing < 0 {
		result.Existing = 0
	}

	s.logger.LogScan(absRoot, result.Discovered, result.Added, result.Skipped, time.Since(start))

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) {
			return result, walkErr
		}
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	util.SuccessLog("Scan complete: %d files found, %d new, %d already in library, %d skipped, %d errors",
		result.Discovered, result.Added, result.Existing, result.Skipped, len(result.Errors))

	return result, nil
}

// processFile decides whether a discovered file becomes a song.
// Without verification every file is accepted.
func (s *Scanner) processFile(path string) (bool, error) {
	if !s.verify {
		return true, nil
	}

	tags, err := meta.ReadFileTags(path)
	if err != nil {
		return false, err
	}

	util.DebugLog("Verified: %s (%s)", path, tags.DisplayTitle(path))
	return true, nil
}

// isAudioFile checks if a file has a supported audio extension
func (s *Scanner) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// GetSupportedExtensions returns the supported extensions, sorted
func (s *Scanner) GetSupportedExtensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
