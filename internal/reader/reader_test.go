package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rxcli/internal/errors"
)

const (
	sampleFile       = "testdata/sample.csv"
	postcodeFile     = "testdata/postcode_sample.csv"
	prescriptionFile = "testdata/prescription_sample.csv"
)

// drain reads every row and returns them.
func drain(t *testing.T, r *Reader) []Row {
	t.Helper()
	var rows []Row
	err := r.Iterate(context.Background(), func(row Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	return rows
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_FileNotOpenable(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", "testdata/junk.csv"},
		{"directory", "testdata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.path, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrFileNotOpenable))
		})
	}
}

func TestNew_EmptyFileWithoutHeader(t *testing.T) {
	path := writeFile(t, "")

	_, err := New(path, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
}

func TestHeader_Derived(t *testing.T) {
	r, err := New(prescriptionFile, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"SHA", "PCT", "PRACTICE", "BNF CODE", "BNF NAME", "ITEMS", "NIC", "ACT COST", "PERIOD"},
		r.Header())
}

func TestHeader_Declared(t *testing.T) {
	header := []string{"0", "1", "2", "3", "4", "5", "6", "7"}
	r, err := New(sampleFile, header)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))

	assert.Equal(t, header, r.Header())

	// the returned slice is a copy
	got := r.Header()
	got[0] = "changed"
	assert.Equal(t, "0", r.Header()[0])
}

func TestHeader_StripsBOMAndQuotes(t *testing.T) {
	path := writeFile(t, "\xEF\xBB\xBF\"Postcode 3\", Region Name \nAB1 2CD,Scotland\n")

	r, err := New(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Postcode 3", "Region Name"}, r.Header())
}

func TestColumnIndex(t *testing.T) {
	r, err := New(prescriptionFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))

	idx, err := r.ColumnIndex("BNF NAME")
	require.NoError(t, err)
	assert.Equal(t, 4, idx)

	_, err = r.ColumnIndex("JUNK")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownColumn))
}

func TestSetStrategy(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)
	assert.Equal(t, Structured, r.Strategy(), "structured by default")
	assert.Zero(t, r.LineWidth())

	require.NoError(t, r.SetStrategy(Chunked))
	assert.Equal(t, Chunked, r.Strategy())
	assert.Equal(t, 168, r.LineWidth())
	assert.Equal(t, 168*ChunkLines, r.ChunkSize())

	err = r.SetStrategy(Strategy("mmap"))
	require.Error(t, err)
	assert.Equal(t, Chunked, r.Strategy(), "failed change keeps the previous strategy")
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"structured", Structured, false},
		{"Chunked", Chunked, false},
		{" sequential ", Sequential, false},
		{"lazy_read", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineCount_Sequential(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Sequential))

	rows := drain(t, r)

	assert.Equal(t, int64(10), r.LineCount())
	assert.Len(t, rows, 10)
	// the header line is returned as an ordinary row
	assert.Equal(t, "Period", strings.TrimSpace(rows[0].Fields()[0]))
}

func TestLineCount_Structured(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)

	rows := drain(t, r)

	assert.Equal(t, int64(9), r.LineCount())
	require.Len(t, rows, 9)
	code, err := rows[0].Value("practice_code")
	require.NoError(t, err)
	assert.Equal(t, "A81001", code)
}

func TestLineCount_Monotonic(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Sequential))

	drain(t, r)
	drain(t, r)

	assert.Equal(t, int64(20), r.LineCount())
}

func TestStructured_QuotedDelimiters(t *testing.T) {
	r, err := New(postcodeFile, nil)
	require.NoError(t, err)

	rows := drain(t, r)
	require.Len(t, rows, 8)

	la, err := rows[0].Value("Local Authority Name")
	require.NoError(t, err)
	assert.Equal(t, "Bournemouth, Christchurch and Poole", la)

	region, err := rows[0].Value("Region Name")
	require.NoError(t, err)
	assert.Equal(t, "South West", region)
}

func TestStructured_DeclaredHeaderKeepsFirstLine(t *testing.T) {
	path := writeFile(t, "a,b\nc,d\n")
	r, err := New(path, []string{"x", "y"})
	require.NoError(t, err)

	rows := drain(t, r)
	require.Len(t, rows, 2)
	v, err := rows[0].Value("x")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestChunked_CommaInFields(t *testing.T) {
	r, err := New(postcodeFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))

	err = r.Iterate(context.Background(), func(Row) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedRow))
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
}

func TestChunked_ReadsEveryLine(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))

	rows := drain(t, r)
	assert.Len(t, rows, 10)
	for _, row := range rows {
		assert.Equal(t, 8, row.Len())
	}
}

func TestChunked_Filter(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))
	r.SetFilter("LONDON")
	assert.Equal(t, "LONDON", r.Filter())

	rows := drain(t, r)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Contains(t, strings.Join(row.Fields(), ","), "LONDON")
	}
	assert.Equal(t, int64(10), r.LineCount(), "filtered lines are still counted")
}

func TestChunked_FilterSkipsArityCheck(t *testing.T) {
	r, err := New(postcodeFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))
	r.SetFilter("Bristol")

	rows := drain(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, 6, rows[0].Len())
}

func TestChunked_SkipsBlankLinesAndCRLF(t *testing.T) {
	path := writeFile(t, "a,b,c\r\n1,2,3\r\n\r\n4,5,6\r\n")
	r, err := New(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))

	rows := drain(t, r)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"4", "5", "6"}, rows[2].Fields())
}

func TestChunked_LinesAcrossChunkBoundaries(t *testing.T) {
	// a 4 byte first line gives 60000 byte chunks; the body spans several
	var b strings.Builder
	b.WriteString("a,b\n")
	const lines = 25000
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "%d,value-%d\n", i, i)
	}
	path := writeFile(t, b.String())

	r, err := New(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))
	require.Less(t, r.ChunkSize(), b.Len())

	rows := drain(t, r)
	require.Len(t, rows, lines+1)
	last := rows[len(rows)-1]
	assert.Equal(t, []string{"24999", "value-24999"}, last.Fields())
}

func TestChunkBufferSize(t *testing.T) {
	tests := []struct {
		name     string
		chunk    int
		fileSize int64
		want     int
	}{
		{"small file", 60000, 100, 101},
		{"empty file", 60000, 0, 1},
		{"file larger than a chunk", 60000, 1 << 20, 60000},
		{"file exactly one chunk", 60000, 60000, 60000},
		{"one byte short of a chunk", 60000, 59999, 60000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkBufferSize(tt.chunk, tt.fileSize))
		})
	}
}

func TestChunked_WideSingleLineIsNotOverAllocated(t *testing.T) {
	const width = 64 << 10
	path := writeFile(t, strings.Repeat("x", width))

	r, err := New(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))
	require.GreaterOrEqual(t, r.ChunkSize(), width*ChunkLines, "chunk size still follows the first line")

	src, err := r.open()
	require.NoError(t, err)
	chunked, ok := src.(*chunkedSource)
	require.True(t, ok)
	assert.LessOrEqual(t, cap(chunked.buf), width+1)
	require.NoError(t, src.Close())

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	rows := drain(t, r)
	runtime.ReadMemStats(&after)

	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Fields()[0], width)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
}

func TestChunked_NoTrailingNewline(t *testing.T) {
	path := writeFile(t, "a,b\n1,2")
	r, err := New(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))

	rows := drain(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, rows[1].Fields())
}

func TestSequential_NoArityCheck(t *testing.T) {
	r, err := New(postcodeFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Sequential))

	rows := drain(t, r)
	assert.Len(t, rows, 9)
	// quoted comma splits into an extra field without complaint
	assert.Equal(t, 6, rows[1].Len())
}

func TestIterate_HandlerErrorStops(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	calls := 0
	err = r.Iterate(context.Background(), func(Row) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestIterate_CancelledContext(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Iterate(ctx, func(Row) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, r.LineCount())
}

func TestProcess_RowHandler(t *testing.T) {
	r, err := New(sampleFile, nil)
	require.NoError(t, err)
	require.NoError(t, r.SetStrategy(Chunked))
	r.SetFilter("CLEVELAND")

	var towns []string
	h := HandlerFunc(func(row Row) error {
		town, err := row.Value("town")
		if err != nil {
			return err
		}
		towns = append(towns, town)
		return nil
	})

	require.NoError(t, r.Process(context.Background(), h))
	assert.Len(t, towns, 5)
}
