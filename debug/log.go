package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu       sync.Mutex
	out      io.Writer
	file     *os.File // set when out is a log file we opened
	clock    func() float64
	counters = make(map[string]int)
)

// Enable starts debug logging to ~/.config/go-ambient/debug.log
func Enable() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return EnableAt(filepath.Join(homeDir, ".config", "go-ambient", "debug.log"))
}

// EnableAt starts debug logging to path, truncating it
func EnableAt(path string) error {
	if Enabled() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	enable(f, f)
	return nil
}

// EnableTo starts debug logging to w
func EnableTo(w io.Writer) {
	if Enabled() {
		return
	}
	enable(w, nil)
}

func enable(w io.Writer, f *os.File) {
	mu.Lock()
	out, file = w, f
	clear(counters)
	mu.Unlock()
	Log("debug", "=== Debug logging started ===")
}

// SetClock makes every line carry the audio time reported by now. It is
// called without the log lock held, so now may take its own locks.
func SetClock(now func() float64) {
	mu.Lock()
	clock = now
	mu.Unlock()
}

// Enabled reports whether logging is on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil
}

// Disable stops debug logging and forgets the clock
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	out = nil
	clock = nil
}

// Log writes one line: wall time, audio time when a clock is set, category
// and message
func Log(category, format string, args ...any) {
	mu.Lock()
	enabled, now := out != nil, clock
	mu.Unlock()
	if !enabled {
		return
	}

	stamp := time.Now().Format("15:04:05.000")
	if now != nil {
		stamp = fmt.Sprintf("%s t=%9.3f", stamp, now())
	}
	line := fmt.Sprintf("[%s] %-10s %s\n", stamp, category, fmt.Sprintf(format, args...))

	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	io.WriteString(out, line)
	if file != nil {
		file.Sync() // flush immediately so we see logs even on crash
	}
}

// LogEvery logs only every n calls with the same category and format (use
// for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	if out == nil {
		mu.Unlock()
		return
	}
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n <= 1 || count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
