package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	apperrors "rxcli/internal/errors"
	"rxcli/internal/files"
)

const (
	// Delimiter separates fields in every supported file.
	Delimiter = ","

	// ChunkLines is the number of first-line widths read per chunk.
	ChunkLines = 15000

	// ctx is checked every checkEvery rows
	checkEvery = 1024
)

// Strategy selects how a Reader iterates its file.
type Strategy string

const (
	Structured Strategy = "structured"
	Chunked    Strategy = "chunked"
	Sequential Strategy = "sequential"
)

// ParseStrategy converts a configuration value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Structured:
		return Structured, nil
	case Chunked:
		return Chunked, nil
	case Sequential:
		return Sequential, nil
	}
	return "", apperrors.NewConfigError(fmt.Sprintf("unknown read strategy %q", s), nil)
}

// Reader iterates a delimited file using one of three strategies.
type Reader struct {
	path      string
	header    []string
	columns   map[string]int
	derived   bool
	strategy  Strategy
	filter    string
	lineWidth int
	lineCount int64
	logger    *slog.Logger
}

// New opens path for reading. A nil header means the column names are
// taken from the first line of the file.
func New(path string, header []string) (*Reader, error) {
	if err := files.CheckReadable(path); err != nil {
		return nil, apperrors.FileNotOpenable(path, err)
	}

	r := &Reader{
		path:     path,
		strategy: Structured,
		logger:   slog.Default(),
	}

	if header == nil {
		cols, err := readHeaderLine(path)
		if err != nil {
			return nil, err
		}
		r.header = cols
		r.derived = true
	} else {
		r.header = append([]string(nil), header...)
	}

	r.columns = make(map[string]int, len(r.header))
	for i, name := range r.header {
		r.columns[name] = i
	}
	return r, nil
}

// SetLogger replaces the logger used for iteration events.
func (r *Reader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetStrategy selects the iteration strategy. Choosing Chunked probes the
// width of the first line to size chunk reads.
func (r *Reader) SetStrategy(s Strategy) error {
	switch s {
	case Structured, Sequential:
	case Chunked:
		width, err := probeLineWidth(r.path)
		if err != nil {
			return err
		}
		r.lineWidth = width
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown read strategy %q", s), nil)
	}
	r.strategy = s
	return nil
}

// Strategy returns the selected iteration strategy.
func (r *Reader) Strategy() Strategy { return r.strategy }

// SetFilter restricts the chunked strategy to lines containing substr.
// An empty filter turns filtering off.
func (r *Reader) SetFilter(substr string) { r.filter = substr }

// Filter returns the configured filter substring.
func (r *Reader) Filter() string { return r.filter }

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// Header returns the declared or derived column names in order.
func (r *Reader) Header() []string {
	return append([]string(nil), r.header...)
}

// ColumnIndex returns the zero-based position of the named column.
func (r *Reader) ColumnIndex(name string) (int, error) {
	idx, ok := r.columns[name]
	if !ok {
		return 0, apperrors.UnknownColumn(name)
	}
	return idx, nil
}

// LineCount returns the number of lines or records read so far.
func (r *Reader) LineCount() int64 { return r.lineCount }

// LineWidth returns the byte length of the first line, newline included.
// It is zero until the chunked strategy has been selected.
func (r *Reader) LineWidth() int { return r.lineWidth }

// ChunkSize returns the number of bytes read per chunk by the chunked strategy.
func (r *Reader) ChunkSize() int {
	width := r.lineWidth
	if width < 1 {
		width = 1
	}
	return width * ChunkLines
}

// Iterate reads the file with the selected strategy and calls fn for every
// row. Iteration stops at the first error from the file or from fn.
func (r *Reader) Iterate(ctx context.Context, fn func(Row) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := r.open()
	if err != nil {
		return err
	}
	defer src.Close()

	start := time.Now()
	startCount := r.lineCount
	var rows int64

	r.logger.DebugContext(ctx, "reading delimited file",
		slog.String("path", r.path),
		slog.String("strategy", string(r.strategy)),
		slog.Int("columns", len(r.header)))

	for {
		row, err := src.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		rows++
		if rows%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := fn(row); err != nil {
			return err
		}
	}

	r.logger.InfoContext(ctx, "finished reading delimited file",
		slog.String("path", r.path),
		slog.String("strategy", string(r.strategy)),
		slog.Int64("rows", rows),
		slog.Int64("lines", r.lineCount-startCount),
		slog.Duration("elapsed", time.Since(start)))

	return nil
}

// Process feeds every row of the file into h.
func (r *Reader) Process(ctx context.Context, h RowHandler) error {
	return r.Iterate(ctx, h.Ingest)
}

func (r *Reader) row(fields []string) Row {
	return Row{fields: fields, columns: r.columns, width: len(r.header), line: r.lineCount}
}

type source interface {
	next() (Row, error)
	Close() error
}

func (r *Reader) open() (source, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, apperrors.FileNotOpenable(r.path, err)
	}

	switch r.strategy {
	case Chunked:
		src, err := newChunkedSource(r, f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return src, nil
	case Sequential:
		return newSequentialSource(r, f), nil
	default:
		src, err := newStructuredSource(r, f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return src, nil
	}
}

// readHeaderLine derives column names from the first line of path.
func readHeaderLine(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.FileNotOpenable(path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	skipBOM(br)

	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read header of %s", path), err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s has no header line", path), io.EOF)
	}

	parts := strings.Split(line, Delimiter)
	cols := make([]string, len(parts))
	for i, p := range parts {
		cols[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return cols, nil
}

// probeLineWidth returns the byte length of the first line of path.
func probeLineWidth(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, apperrors.FileNotOpenable(path, err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, apperrors.NewParsingError(fmt.Sprintf("probe line width of %s", path), err)
	}
	return len(line), nil
}

// skipBOM discards a UTF-8 byte order mark if one is present.
func skipBOM(br *bufio.Reader) {
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
}
