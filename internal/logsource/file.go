package logsource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tinytelemetry/httop/internal/model"
)

const (
	// DefaultFileBuffer is the default channel buffer size for a file source.
	DefaultFileBuffer = 4096

	// DefaultFileMaxLineSize is the default maximum size (in bytes) of a single line.
	DefaultFileMaxLineSize = 1024 * 1024 // 1MB

	readChunkSize = 32 * 1024
)

// FileConfig holds tunable parameters for a file source.
type FileConfig struct {
	PollInterval time.Duration
	BufferSize   int
	MaxLineSize  int
	// OnError is called once when the file becomes unavailable mid-run.
	OnError func(error)
}

// FileSource follows a growing file and emits each newly appended line.
//
// Reading starts at the end of the file as it was when the source attached;
// earlier content is never emitted. An unterminated trailing line is held
// back until its newline arrives.
type FileSource struct {
	path   string
	file   *os.File
	info   os.FileInfo
	offset int64
	conf   FileConfig

	ch     chan model.IngestEnvelope
	cancel context.CancelFunc
	done   chan struct{}

	pending  []byte
	skipping bool
	chunk    []byte

	errMu sync.Mutex
	err   error
}

// NewFileSource opens path, seeks to its end and starts following it in a
// background goroutine. Open failures wrap ErrSourceUnavailable.
func NewFileSource(ctx context.Context, path string, conf ...FileConfig) (*FileSource, error) {
	cfg := FileConfig{
		PollInterval: model.DefaultPollInterval,
		BufferSize:   DefaultFileBuffer,
		MaxLineSize:  DefaultFileMaxLineSize,
	}
	if len(conf) > 0 {
		if conf[0].PollInterval > 0 {
			cfg.PollInterval = conf[0].PollInterval
		}
		if conf[0].BufferSize > 0 {
			cfg.BufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			cfg.MaxLineSize = conf[0].MaxLineSize
		}
		cfg.OnError = conf[0].OnError
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, unavailable(path, pathCause(err))
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, unavailable(path, pathCause(err))
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, unavailable(path, errors.New("is a directory"))
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, unavailable(path, pathCause(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &FileSource{
		path:   path,
		file:   file,
		info:   info,
		offset: offset,
		conf:   cfg,
		ch:     make(chan model.IngestEnvelope, cfg.BufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
		chunk:  make([]byte, readChunkSize),
	}

	// fsnotify only shortens wake-up latency; the poll ticker bounds it.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("logsource: %s: file events unavailable, polling only: %v", path, err)
		watcher = nil
	} else if err := watcher.Add(path); err != nil {
		log.Printf("logsource: %s: cannot watch file, polling only: %v", path, err)
		_ = watcher.Close()
		watcher = nil
	}

	go s.follow(ctx, watcher)
	return s, nil
}

func (s *FileSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *FileSource) Name() string                       { return "file" }

// Stop cancels the source and waits for its goroutine to exit.
func (s *FileSource) Stop() {
	s.cancel()
	<-s.done
}

// Err returns the error that ended the source, if any.
func (s *FileSource) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *FileSource) follow(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(s.done)
	defer close(s.ch)
	defer s.file.Close()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if watcher != nil {
		defer watcher.Close()
		events = watcher.Events
		watchErrs = watcher.Errors
	}

	ticker := time.NewTicker(s.conf.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Printf("logsource: %s: watch error: %v", s.path, err)
			continue
		case <-ticker.C:
		}

		if err := s.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.fail(err)
			return
		}
	}
}

// poll checks the file is still in place, then reads everything available.
func (s *FileSource) poll(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		// Drain what was written before the file went away.
		_ = s.readAvailable(ctx)
		return unavailable(s.path, pathCause(err))
	}
	if !os.SameFile(info, s.info) {
		_ = s.readAvailable(ctx)
		return unavailable(s.path, errors.New("file was replaced"))
	}
	if info.Size() < s.offset {
		log.Printf("logsource: %s: truncated from %d to %d bytes, reading from start", s.path, s.offset, info.Size())
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			return unavailable(s.path, pathCause(err))
		}
		s.offset = 0
		s.pending = s.pending[:0]
		s.skipping = false
	}
	return s.readAvailable(ctx)
}

func (s *FileSource) readAvailable(ctx context.Context) error {
	for ctx.Err() == nil {
		n, err := s.file.Read(s.chunk)
		if n > 0 {
			s.offset += int64(n)
			if !s.consume(ctx, s.chunk[:n]) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) || n == 0 {
			return nil
		}
		if err != nil {
			return unavailable(s.path, pathCause(err))
		}
	}
	return nil
}

// consume splits chunk into lines, emitting complete ones and buffering the
// trailing partial line. It returns false once the source is shutting down.
func (s *FileSource) consume(ctx context.Context, chunk []byte) bool {
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			s.hold(chunk)
			return true
		}
		part := chunk[:i]
		chunk = chunk[i+1:]

		if s.skipping {
			s.skipping = false
			continue
		}
		if len(s.pending)+len(part) > s.conf.MaxLineSize {
			log.Printf("logsource: %s: dropped line exceeding max size (%d bytes)", s.path, s.conf.MaxLineSize)
			s.pending = s.pending[:0]
			continue
		}

		var line string
		if len(s.pending) > 0 {
			s.pending = append(s.pending, part...)
			line = string(s.pending)
			s.pending = s.pending[:0]
		} else {
			line = string(part)
		}
		if !s.emit(ctx, strings.TrimSpace(line)) {
			return false
		}
	}
	return true
}

func (s *FileSource) hold(partial []byte) {
	if s.skipping {
		return
	}
	if len(s.pending)+len(partial) > s.conf.MaxLineSize {
		log.Printf("logsource: %s: dropping line exceeding max size (%d bytes)", s.path, s.conf.MaxLineSize)
		s.pending = s.pending[:0]
		s.skipping = true
		return
	}
	s.pending = append(s.pending, partial...)
}

func (s *FileSource) emit(ctx context.Context, line string) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.ch <- model.IngestEnvelope{Source: s.path, Line: line}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *FileSource) fail(err error) {
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()

	log.Printf("logsource: %v", err)
	if s.conf.OnError != nil {
		s.conf.OnError(err)
	}
}

// pathCause strips the *fs.PathError wrapper so the path is not repeated.
func pathCause(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
