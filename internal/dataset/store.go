package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"call-analyzer-go/internal/types"
)

const DefaultPath = "call_analysis.csv"

// ErrCarriageReturn is returned by Append for text holding a '\r'.
var ErrCarriageReturn = errors.New("field contains a carriage return")

// Header is the fixed column order of the results file.
var Header = []string{"timestamp", "transcript", "summary", "sentiment", "confidence", "mode"}

// CSVStore appends analysis results to a flat CSV file. Fields follow
// RFC 4180: values holding a comma, quote or line break are quoted and inner
// quotes doubled. Timestamps are RFC 3339 (nanoseconds, UTC) and confidences
// use the shortest exact decimal form, so reading a row back gives the values
// that were written. Text fields must not contain carriage returns, which
// encoding/csv cannot round-trip; callers normalize with
// types.NormalizeNewlines. The lock only serializes appends made through one
// CSVStore: separate processes sharing a file, such as the analyze command
// running next to serve, can interleave and each write a header.
type CSVStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewCSVStore(path string) *CSVStore {
	if path == "" {
		path = DefaultPath
	}
	return &CSVStore{path: path, now: time.Now}
}

// CurrentFile returns the path of the backing file.
func (s *CSVStore) CurrentFile() string {
	return s.path
}

// Append writes one row, creating the file with a header first if needed.
// Rows are written with a single write call while holding the store lock.
func (s *CSVStore) Append(rec types.ResultRecord) error {
	if strings.ContainsRune(rec.Transcript, '\r') || strings.ContainsRune(rec.Summary, '\r') {
		return fmt.Errorf("append row: %w", ErrCarriageReturn)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat results file: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		_ = w.Write(Header)
	}
	_ = w.Write(encodeRecord(rec))
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// Ensure creates a header-only file when none exists yet.
func (s *CSVStore) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked()
}

func (s *CSVStore) ensureLocked() error {
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat results file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Header)
	w.Flush()
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	return nil
}

// Snapshot returns the current file contents. It never observes a partially
// written row.
func (s *CSVStore) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLocked(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	return b, nil
}

// ReadAll parses every stored row. A missing file yields no records.
func (s *CSVStore) ReadAll() ([]types.ResultRecord, error) {
	s.mu.Lock()
	b, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	return Decode(bytes.NewReader(b))
}

// Decode parses a results file, header included.
func Decode(r io.Reader) ([]types.ResultRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse results file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var out []types.ResultRecord
	for i, row := range rows[1:] {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func encodeRecord(rec types.ResultRecord) []string {
	return []string{
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Transcript,
		rec.Summary,
		string(rec.Sentiment),
		strconv.FormatFloat(rec.Confidence, 'f', -1, 64),
		string(rec.Mode),
	}
}

func decodeRecord(row []string) (types.ResultRecord, error) {
	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	sentiment, err := types.ParseSentiment(row[3])
	if err != nil {
		return types.ResultRecord{}, err
	}
	conf, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("confidence: %w", err)
	}
	mode, err := types.ParseMode(row[5])
	if err != nil {
		return types.ResultRecord{}, err
	}
	return types.ResultRecord{
		AnalysisResult: types.AnalysisResult{
			Summary:    row[2],
			Sentiment:  sentiment,
			Confidence: conf,
			Mode:       mode,
		},
		Transcript: row[1],
		Timestamp:  ts,
	}, nil
}
