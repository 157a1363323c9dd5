package peer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ANSI color codes for terminal output
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// ProgressRenderer redraws a one-line progress bar for a download.
type ProgressRenderer struct {
	tracker     *DownloadTracker
	out         io.Writer
	stopChan    chan struct{}
	doneChan    chan struct{}
	stopOnce    sync.Once
	refreshRate time.Duration
	useColors   bool
	width       int
}

func NewProgressRenderer(tracker *DownloadTracker, out io.Writer) *ProgressRenderer {
	return &ProgressRenderer{
		tracker:     tracker,
		out:         out,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
		refreshRate: 200 * time.Millisecond,
		useColors:   IsTerminal(out),
		width:       40,
	}
}

// IsTerminal reports whether w is a character device that understands ANSI
// escapes.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (pr *ProgressRenderer) SetRefreshRate(rate time.Duration) {
	pr.refreshRate = rate
}

// Start runs the render loop until Stop.
func (pr *ProgressRenderer) Start() {
	defer close(pr.doneChan)
	pr.Render()

	ticker := time.NewTicker(pr.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pr.Render()
		case <-pr.stopChan:
			return
		}
	}
}

// StopAndWait stops the loop and draws the final line.
func (pr *ProgressRenderer) StopAndWait(err error) {
	pr.stopOnce.Do(func() { close(pr.stopChan) })
	<-pr.doneChan
	if err != nil {
		pr.RenderError(err)
		return
	}
	pr.RenderFinal()
}

func (pr *ProgressRenderer) Render() {
	completed, total, bytes, _ := pr.tracker.GetProgress()

	percent := 100.0
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	filled := int(float64(pr.width) * percent / 100)
	if filled > pr.width {
		filled = pr.width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pr.width-filled)

	var line string
	if pr.useColors {
		line = fmt.Sprintf("\r%s[%s]%s [%s]%s %.1f%% (%d/%d chunks) %s| %s from %s",
			Cyan, pr.tracker.FileName, Reset,
			Green+bar+Reset,
			Yellow, percent, completed, total, Reset,
			formatBytes(float64(bytes)), pr.tracker.PeerAddr,
		)
	} else {
		line = fmt.Sprintf("\r[%s] [%s] %.1f%% (%d/%d chunks) | %s from %s",
			pr.tracker.FileName, bar, percent, completed, total,
			formatBytes(float64(bytes)), pr.tracker.PeerAddr,
		)
	}
	fmt.Fprint(pr.out, line)
}

func (pr *ProgressRenderer) RenderFinal() {
	_, total, bytes, _ := pr.tracker.GetProgress()
	elapsed := pr.tracker.GetElapsedTime()

	pr.clearLine()
	if pr.useColors {
		fmt.Fprintf(pr.out, "%s[%s]%s %s100%% (%d chunks, %s)%s | Completed in %s\n",
			Cyan, pr.tracker.FileName, Reset,
			Green, total, formatBytes(float64(bytes)), Reset,
			formatDuration(elapsed),
		)
		return
	}
	fmt.Fprintf(pr.out, "[%s] 100%% (%d chunks, %s) | Completed in %s\n",
		pr.tracker.FileName, total, formatBytes(float64(bytes)), formatDuration(elapsed))
}

func (pr *ProgressRenderer) RenderError(err error) {
	completed, total, _, _ := pr.tracker.GetProgress()

	pr.clearLine()
	if pr.useColors {
		fmt.Fprintf(pr.out, "%s[%s]%s %s%sDownload failed%s at %d/%d chunks: %v\n",
			Cyan, pr.tracker.FileName, Reset, Red, Bold, Reset, completed, total, err)
		return
	}
	fmt.Fprintf(pr.out, "[%s] Download failed at %d/%d chunks: %v\n",
		pr.tracker.FileName, completed, total, err)
}

func (pr *ProgressRenderer) clearLine() {
	if pr.useColors {
		fmt.Fprint(pr.out, "\r\033[K")
		return
	}
	fmt.Fprint(pr.out, "\r")
}

// formatBytes formats a byte count into a human-readable string
func formatBytes(bytes float64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%.0f B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", bytes/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", d/time.Minute, (d%time.Minute)/time.Second)
	}
	return fmt.Sprintf("%dh%dm", d/time.Hour, (d%time.Hour)/time.Minute)
}
