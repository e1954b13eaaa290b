package tasks

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// sidebandProgress matches git progress lines such as
// "Receiving objects:  45% (9/20)".
var sidebandProgress = regexp.MustCompile(`^(?:remote: )?([A-Za-z][A-Za-z ]*[A-Za-z]):\s+(\d{1,3})%`)

// progressWriter turns git sideband output into progress reports. Lines are
// terminated by either '\r' or '\n'.
type progressWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	report func(text string, percent int)
}

func newProgressWriter(report func(text string, percent int)) *progressWriter {
	return &progressWriter{report: report}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		data := w.buf.Bytes()
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			break
		}
		line := string(data[:i])
		w.buf.Next(i + 1)
		w.line(line)
	}
	return len(p), nil
}

func (w *progressWriter) line(line string) {
	line = strings.TrimSpace(line)
	m := sidebandProgress.FindStringSubmatch(line)
	if m == nil {
		return
	}
	percent, err := strconv.Atoi(m[2])
	if err != nil {
		return
	}
	w.report(m[1], percent)
}
