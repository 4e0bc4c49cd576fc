package reader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "rxcli/internal/errors"
)

const readBufferSize = 256 * 1024

// structuredSource yields quote-aware records.
type structuredSource struct {
	r    *Reader
	file *os.File
	csv  *csv.Reader
}

func newStructuredSource(r *Reader, f *os.File) (*structuredSource, error) {
	br := bufio.NewReaderSize(f, readBufferSize)
	skipBOM(br)

	cr := csv.NewReader(br)
	cr.Comma = rune(Delimiter[0])
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	s := &structuredSource{r: r, file: f, csv: cr}

	// a derived header line names the columns and is not a record
	if r.derived {
		if _, err := cr.Read(); err != nil && err != io.EOF {
			return nil, apperrors.NewParsingError(fmt.Sprintf("read header of %s", r.path), err)
		}
	}
	return s, nil
}

func (s *structuredSource) next() (Row, error) {
	rec, err := s.csv.Read()
	if err == io.EOF {
		return Row{}, io.EOF
	}
	if err != nil {
		return Row{}, apperrors.NewParsingError(fmt.Sprintf("read %s", s.r.path), err).
			WithContext("line", s.r.lineCount+1)
	}
	s.r.lineCount++
	return s.r.row(rec), nil
}

func (s *structuredSource) Close() error { return s.file.Close() }

// chunkedSource reads ChunkSize bytes at a time and splits them by hand.
type chunkedSource struct {
	r       *Reader
	file    *os.File
	buf     []byte
	carry   string
	pending []string
	eof     bool
}

// newChunkedSource sizes the buffer to ChunkSize, capped at one byte past
// the file size so a small file is read whole in a single chunk.
func newChunkedSource(r *Reader, f *os.File) (*chunkedSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.FileNotOpenable(r.path, err)
	}
	return &chunkedSource{r: r, file: f, buf: make([]byte, chunkBufferSize(r.ChunkSize(), info.Size()))}, nil
}

func chunkBufferSize(chunk int, fileSize int64) int {
	if limit := fileSize + 1; limit < int64(chunk) {
		return int(limit)
	}
	return chunk
}

func (s *chunkedSource) next() (Row, error) {
	for {
		for len(s.pending) > 0 {
			line := strings.TrimSuffix(s.pending[0], "\r")
			s.pending = s.pending[1:]
			s.r.lineCount++

			if s.r.filter != "" {
				if strings.Contains(line, s.r.filter) {
					return s.r.row(strings.Split(line, Delimiter)), nil
				}
				continue
			}

			if strings.TrimSpace(line) == "" {
				continue
			}
			fields := strings.Split(line, Delimiter)
			if len(fields) != len(s.r.header) {
				return Row{}, apperrors.MalformedRow(s.r.lineCount, len(fields), len(s.r.header)).
					WithContext("path", s.r.path)
			}
			return s.r.row(fields), nil
		}

		if s.eof {
			return Row{}, io.EOF
		}
		if err := s.fill(); err != nil {
			return Row{}, err
		}
	}
}

// fill reads the next chunk. The trailing partial line of a chunk is held
// back and prefixed to the following one.
func (s *chunkedSource) fill() error {
	n, err := io.ReadFull(s.file, s.buf)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		s.eof = true
	case err != nil:
		return apperrors.NewParsingError(fmt.Sprintf("read chunk of %s", s.r.path), err)
	}

	lines := strings.Split(s.carry+string(s.buf[:n]), "\n")
	last := lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	if s.eof {
		s.carry = ""
		if last != "" {
			lines = append(lines, last)
		}
	} else {
		s.carry = last
	}

	s.pending = lines
	return nil
}

func (s *chunkedSource) Close() error { return s.file.Close() }

// sequentialSource splits one line at a time without any checks.
type sequentialSource struct {
	r    *Reader
	file *os.File
	br   *bufio.Reader
}

func newSequentialSource(r *Reader, f *os.File) *sequentialSource {
	return &sequentialSource{r: r, file: f, br: bufio.NewReaderSize(f, readBufferSize)}
}

func (s *sequentialSource) next() (Row, error) {
	line, err := s.br.ReadString('\n')
	if err == io.EOF && line == "" {
		return Row{}, io.EOF
	}
	if err != nil && err != io.EOF {
		return Row{}, apperrors.NewParsingError(fmt.Sprintf("read %s", s.r.path), err)
	}
	s.r.lineCount++
	return s.r.row(strings.Split(strings.TrimRight(line, "\r\n"), Delimiter)), nil
}

func (s *sequentialSource) Close() error { return s.file.Close() }
