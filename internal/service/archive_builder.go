package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"eventdrop/internal/domain"
	"eventdrop/internal/metrics"
	"eventdrop/internal/port"
)

const (
	// maxPreallocBytes caps the buffer preallocated from a fetch's Content-Length.
	maxPreallocBytes = 32 << 20
	// entrySizeSlack is tolerated on top of an object's recorded size.
	entrySizeSlack = 64 << 10

	defaultMaxEntryBytes = 64 << 20
)

// ArchiveJob describes one bulk download. It lives only for one build.
type ArchiveJob struct {
	Objects []domain.ObjectReference
	// EntryName names the archive entry of an object. Nil means DefaultEntryName.
	EntryName func(domain.ObjectReference) string
}

// ArchiveResult reports how many entries were written and skipped.
type ArchiveResult struct {
	Written int
	Skipped int
}

// ArchiveConfig holds ArchiveBuilder tuning.
type ArchiveConfig struct {
	Workers          int
	FetchTimeout     time.Duration
	SignedURLTTL     time.Duration
	CompressionLevel int
	// MaxEntryBytes bounds an entry whose recorded size is unknown.
	MaxEntryBytes int64
}

// ArchiveBuilder produces a ZIP archive of stored objects.
//
// Objects are fetched by a bounded worker pool, but entries always appear in
// job order. A fetch that fails or times out is skipped with a warning rather
// than aborting the archive; only a job where every fetch fails is an error
// (domain.ErrEmptyArchive).
type ArchiveBuilder interface {
	// Build writes the archive to w and returns once every fetch has stopped.
	// Nothing is written to w before the first entry is ready, so on
	// ErrEmptyArchive w is untouched. The result is returned alongside
	// ErrEmptyArchive so callers can report the skip count.
	Build(ctx context.Context, job ArchiveJob, w io.Writer) (*ArchiveResult, error)
	// Stream returns the archive as a lazily produced, non-restartable byte
	// stream. Closing it early cancels every in-flight fetch and waits for
	// them to stop.
	Stream(ctx context.Context, job ArchiveJob) io.ReadCloser
}

type archiveBuilder struct {
	storage port.ObjectStorage
	fetcher port.ObjectFetcher
	cfg     ArchiveConfig
	log     zerolog.Logger
}

// NewArchiveBuilder creates a new ArchiveBuilder.
func NewArchiveBuilder(storage port.ObjectStorage, fetcher port.ObjectFetcher, cfg ArchiveConfig, log zerolog.Logger) ArchiveBuilder {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxEntryBytes <= 0 {
		cfg.MaxEntryBytes = defaultMaxEntryBytes
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 15 * time.Minute
	}
	return &archiveBuilder{
		storage: storage,
		fetcher: fetcher,
		cfg:     cfg,
		log:     log.With().Str("component", "archive-builder").Logger(),
	}
}

type fetchResult struct {
	index int
	data  []byte
	err   error
}

func (b *archiveBuilder) Build(ctx context.Context, job ArchiveJob, w io.Writer) (*ArchiveResult, error) {
	result := &ArchiveResult{}
	n := len(job.Objects)
	if n == 0 {
		metrics.RecordArchive("empty", 0, 0)
		return result, domain.ErrEmptyArchive
	}
	nameFor := job.EntryName
	if nameFor == nil {
		nameFor = DefaultEntryName
	}

	// The pool size doubles as the reorder window: at most that many objects
	// are fetched or buffered ahead of the next entry to be written.
	workers := min(b.cfg.Workers, n)

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	window := make(chan struct{}, workers)
	indexes := make(chan int)
	results := make(chan fetchResult, workers)

	g.Go(func() error {
		defer close(indexes)
		for i := range job.Objects {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case indexes <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			for i := range indexes {
				if err := gctx.Err(); err != nil {
					return err
				}
				data, err := b.fetchEntry(gctx, job.Objects[i])
				select {
				case results <- fetchResult{index: i, data: data, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	var poolErr error
	go func() {
		poolErr = g.Wait()
		close(results)
	}()

	var (
		zw       *zip.Writer
		names    = newEntryNames()
		pending  = make(map[int]fetchResult, workers)
		next     int
		writeErr error
	)
	for res := range results {
		if writeErr != nil {
			continue
		}
		pending[res.index] = res
		for writeErr == nil {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			pos := next
			next++
			<-window

			ref := job.Objects[pos]
			if r.err != nil {
				result.Skipped++
				if ctx.Err() == nil {
					b.log.Warn().Err(r.err).Str("key", ref.Key).Int("index", pos).Msg("skipping archive entry")
				}
				continue
			}

			if zw == nil {
				zw = b.newZipWriter(w)
			}
			name := names.assign(nameFor(ref), path.Base(ref.Key), pos)
			if err := writeEntry(zw, name, r.data); err != nil {
				writeErr = fmt.Errorf("writing archive entry %q: %w", name, err)
				cancel()
				break
			}
			result.Written++
		}
	}

	switch {
	case writeErr != nil:
		metrics.RecordArchive("aborted", result.Written, result.Skipped)
		return result, writeErr
	case parent.Err() != nil:
		metrics.RecordArchive("cancelled", result.Written, result.Skipped)
		return result, parent.Err()
	case poolErr != nil:
		metrics.RecordArchive("aborted", result.Written, result.Skipped)
		return result, poolErr
	case result.Written == 0:
		metrics.RecordArchive("empty", 0, result.Skipped)
		b.log.Warn().Int("skipped", result.Skipped).Msg("no archive entries could be retrieved")
		return result, domain.ErrEmptyArchive
	}

	if err := zw.Close(); err != nil {
		metrics.RecordArchive("aborted", result.Written, result.Skipped)
		return result, fmt.Errorf("finalizing archive: %w", err)
	}
	metrics.RecordArchive("success", result.Written, result.Skipped)
	b.log.Info().Int("written", result.Written).Int("skipped", result.Skipped).Msg("archive built")
	return result, nil
}

// fetchEntry signs, fetches and buffers one object within the fetch timeout.
func (b *archiveBuilder) fetchEntry(ctx context.Context, ref domain.ObjectReference) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.FetchTimeout)
	defer cancel()

	signed, err := b.storage.SignedGetURL(ctx, ref.Key, b.cfg.SignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}
	obj, err := b.fetcher.Fetch(ctx, signed.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}
	defer obj.Body.Close()

	limit := b.cfg.MaxEntryBytes
	if ref.SizeBytes > 0 {
		limit = ref.SizeBytes + entrySizeSlack
	}
	if obj.ContentLength > limit {
		return nil, fmt.Errorf("object is %d bytes, limit %d", obj.ContentLength, limit)
	}

	var buf bytes.Buffer
	if obj.ContentLength > 0 && obj.ContentLength <= maxPreallocBytes {
		buf.Grow(int(obj.ContentLength))
	}
	n, err := buf.ReadFrom(io.LimitReader(obj.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("object exceeds %d bytes", limit)
	}
	return buf.Bytes(), nil
}

func (b *archiveBuilder) newZipWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	level := b.cfg.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return zw
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = entry.Write(data)
	return err
}

func (b *archiveBuilder) Stream(ctx context.Context, job ArchiveJob) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := b.Build(ctx, job, pw)
		_ = pw.CloseWithError(err)
	}()
	return &archiveStream{PipeReader: pr, cancel: cancel, done: done}
}

type archiveStream struct {
	*io.PipeReader
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *archiveStream) Close() error {
	s.cancel()
	err := s.PipeReader.Close()
	<-s.done
	return err
}

// DefaultEntryName names an entry after the submitted filename, falling back
// to the stored file name.
func DefaultEntryName(ref domain.ObjectReference) string {
	if name := sanitizeEntryName(ref.OriginalName); name != "" {
		return name
	}
	return path.Base(ref.Key)
}

// sanitizeEntryName reduces name to a bare file name so entries cannot escape
// the extraction directory.
func sanitizeEntryName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}

// entryNames hands out collision-free entry names. Names are compared
// case-insensitively since archives are commonly extracted on such filesystems.
type entryNames struct {
	used map[string]struct{}
}

func newEntryNames() *entryNames {
	return &entryNames{used: make(map[string]struct{})}
}

// assign returns name, or on collision name with the entry's 1-based position
// appended before the extension.
func (e *entryNames) assign(name, fallback string, pos int) string {
	name = sanitizeEntryName(name)
	if name == "" {
		name = sanitizeEntryName(fallback)
	}
	if name == "" {
		name = fmt.Sprintf("file_%d", pos+1)
	}
	if e.claim(name) {
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := fmt.Sprintf("%s_%d%s", stem, pos+1, ext)
	for k := 2; !e.claim(candidate); k++ {
		candidate = fmt.Sprintf("%s_%d_%d%s", stem, pos+1, k, ext)
	}
	return candidate
}

func (e *entryNames) claim(name string) bool {
	k := strings.ToLower(name)
	if _, taken := e.used[k]; taken {
		return false
	}
	e.used[k] = struct{}{}
	return true
}
