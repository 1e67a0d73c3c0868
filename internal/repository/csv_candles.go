package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"SweepSim/internal/domain/models"
)

// CSVCandleSource streams candles out of a CSV file, one row per candle:
//
//	timestamp,open,high,low,close,volume
//
// The timestamp column accepts RFC3339 or unix seconds. A header row is
// detected and skipped. Rows must already be in ascending timestamp order;
// the stream guard downstream enforces it.
type CSVCandleSource struct {
	f      *os.File
	r      *csv.Reader
	symbol string
	line   int
}

func NewCSVCandleSource(path, symbol string) (*CSVCandleSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle csv: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = 6
	r.TrimLeadingSpace = true
	return &CSVCandleSource{f: f, r: r, symbol: symbol}, nil
}

func (s *CSVCandleSource) Next(ctx context.Context) (models.Candle, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.Candle{}, false, err
		}
		rec, err := s.r.Read()
		if err == io.EOF {
			return models.Candle{}, false, nil
		}
		if err != nil {
			return models.Candle{}, false, fmt.Errorf("read candle csv line %d: %w", s.line+1, err)
		}
		s.line++
		if s.line == 1 && strings.EqualFold(rec[0], "timestamp") {
			continue
		}
		c, err := s.parse(rec)
		if err != nil {
			return models.Candle{}, false, fmt.Errorf("candle csv line %d: %w", s.line, err)
		}
		return c, true, nil
	}
}

func (s *CSVCandleSource) parse(rec []string) (models.Candle, error) {
	ts, err := parseTimestamp(rec[0])
	if err != nil {
		return models.Candle{}, err
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parse %q: %w", rec[i+1], err)
		}
		vals[i] = v
	}
	vol, err := strconv.ParseInt(rec[5], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse volume %q: %w", rec[5], err)
	}
	c := models.Candle{
		Timestamp: ts,
		Symbol:    s.symbol,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vol,
	}
	if err := c.Validate(); err != nil {
		return models.Candle{}, err
	}
	return c, nil
}

func (s *CSVCandleSource) Close() error {
	return s.f.Close()
}

func parseTimestamp(v string) (time.Time, error) {
	if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return ts.UTC(), nil
}
