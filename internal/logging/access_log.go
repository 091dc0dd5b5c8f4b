package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// AccessRecord is one line of the access log.
type AccessRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	RemoteAddr string    `json:"remote_addr"`
	UserID     string    `json:"user_id,omitempty"`
}

// AccessLogConfig configures an AccessLog.
type AccessLogConfig struct {
	FilePathTemplate string        // e.g. "/var/log/bqadmin/access-%s.jsonl"
	MaxSize          int64         // rotate once the active file would exceed this many bytes
	MaxFiles         int           // rotated files to keep, including the active one
	BufferSize       int           // queued records before new ones are dropped
	FlushInterval    time.Duration // periodic flush of the buffered writer
}

// AccessLog writes AccessRecords as JSON lines on a background goroutine,
// rotating files by size. Record never blocks the request path.
type AccessLog struct {
	cfg AccessLogConfig

	mu          sync.Mutex
	currentFile string
	file        *os.File
	writer      *bufio.Writer
	currentSize int64

	records chan AccessRecord
	done    chan struct{}
	wg      sync.WaitGroup
	closed  bool
	dropped atomic.Int64
}

// NewAccessLog opens the first log file and starts the writer goroutine.
func NewAccessLog(cfg AccessLogConfig) (*AccessLog, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 1
	}

	l := &AccessLog{
		cfg:     cfg,
		records: make(chan AccessRecord, cfg.BufferSize),
		done:    make(chan struct{}),
	}
	if err := l.openFile(); err != nil {
		return nil, err
	}

	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Record queues a record. When the queue is full the record is dropped.
func (l *AccessLog) Record(rec AccessRecord) {
	select {
	case l.records <- rec:
	default:
		l.dropped.Add(1)
	}
}

// Dropped reports how many records were discarded because the queue was full.
func (l *AccessLog) Dropped() int64 {
	return l.dropped.Load()
}

// CurrentFile returns the path of the active log file.
func (l *AccessLog) CurrentFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentFile
}

// Shutdown drains the queue, flushes and closes the active file.
func (l *AccessLog) Shutdown() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
}

// fileName uses nanosecond precision so two rotations in the same second
// never reopen the same file.
func (l *AccessLog) fileName() string {
	return fmt.Sprintf(l.cfg.FilePathTemplate, time.Now().UTC().Format("20060102T150405.000000000"))
}

// openFile must be called with mu held (or before the goroutine starts).
func (l *AccessLog) openFile() error {
	name := l.fileName()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open access log: %w", err)
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	l.currentFile = name
	l.file = file
	l.writer = bufio.NewWriter(file)
	l.currentSize = fi.Size()
	return nil
}

func (l *AccessLog) run() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-l.records:
			l.write(rec)
		case <-ticker.C:
			l.mu.Lock()
			_ = l.writer.Flush()
			l.mu.Unlock()
		case <-l.done:
			for {
				select {
				case rec := <-l.records:
					l.write(rec)
				default:
					l.mu.Lock()
					_ = l.writer.Flush()
					_ = l.file.Close()
					l.mu.Unlock()
					return
				}
			}
		}
	}
}

func (l *AccessLog) write(rec AccessRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg.MaxSize > 0 && l.currentSize > 0 && l.currentSize+int64(len(data)) > l.cfg.MaxSize {
		if err := l.rotate(); err != nil {
			Errorf("access log rotation failed: %v", err)
			return
		}
	}

	n, _ := l.writer.Write(data)
	l.currentSize += int64(n)
}

// rotate must be called with mu held.
func (l *AccessLog) rotate() error {
	if err := l.writer.Flush(); err != nil {
		return err
	}
	if err := l.file.Close(); err != nil {
		return err
	}
	if err := l.openFile(); err != nil {
		return err
	}
	return l.pruneLocked()
}

// pruneLocked keeps only the newest MaxFiles files. File names sort
// chronologically because of the timestamp layout.
func (l *AccessLog) pruneLocked() error {
	matches, err := filepath.Glob(fmt.Sprintf(l.cfg.FilePathTemplate, "*"))
	if err != nil {
		return err
	}
	sort.Strings(matches)

	excess := len(matches) - l.cfg.MaxFiles
	for i := 0; i < excess; i++ {
		if matches[i] == l.currentFile {
			continue
		}
		_ = os.Remove(matches[i])
	}
	return nil
}
