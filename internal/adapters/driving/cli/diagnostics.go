package cli

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/pkgsearch/internal/core/services"
)

// domainPrefix starts every diagnostic line.
const domainPrefix = services.DiagnosticPrefix

var prefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

// newDiagnosticWriter styles diagnostic prefixes when w is a terminal.
// Other writers are returned unchanged.
func newDiagnosticWriter(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return w
	}
	return &styledWriter{w: w}
}

// styledWriter highlights the diagnostic prefix of each complete line.
type styledWriter struct {
	w   io.Writer
	buf []byte
}

func (s *styledWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(s.buf[:i+1])
		s.buf = s.buf[i+1:]
		if _, err := io.WriteString(s.w, styleLine(line)); err != nil {
			return len(p), err
		}
	}
}

// Flush writes any incomplete final line.
func (s *styledWriter) Flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	_, err := io.WriteString(s.w, styleLine(string(s.buf)))
	s.buf = nil
	return err
}

// flushDiagnostics flushes w if it buffers.
func flushDiagnostics(w io.Writer) {
	if f, ok := w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

func styleLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t\n")
	if !strings.HasPrefix(trimmed, domainPrefix) {
		return line
	}
	lead := line[:len(line)-len(trimmed)]
	name := strings.TrimSuffix(domainPrefix, " ")
	return lead + prefixStyle.Render(name) + " " + trimmed[len(domainPrefix):]
}
