// Package prices loads closing-price series from delimited files.
package prices

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"sideways-trend/internal/errors"
	"sideways-trend/internal/models"
	"sideways-trend/pkg/utils"
)

// Options controls how a price file is interpreted.
type Options struct {
	Symbol      string // defaults to the file name without extension
	DateColumn  string
	CloseColumn string
	DateLayout  string // Go time layout
	// Scale is the number of decimals kept when converting to minor units.
	// Zero means whole units, so callers wanting cents start from
	// DefaultOptions or set 2.
	Scale int32
}

// DefaultOptions returns options for files with Date and Close columns,
// dd-MMM-yy dates and prices in cents.
func DefaultOptions() Options {
	return Options{
		DateColumn:  "Date",
		CloseColumn: "Close",
		DateLayout:  utils.DefaultDateLayout,
		Scale:       2,
	}
}

// withDefaults fills empty column names and layout. Scale is left alone
// because zero is a valid scale.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DateColumn == "" {
		o.DateColumn = def.DateColumn
	}
	if o.CloseColumn == "" {
		o.CloseColumn = def.CloseColumn
	}
	if o.DateLayout == "" {
		o.DateLayout = def.DateLayout
	}
	return o
}

// Load reads the price file at path.
func Load(path string, opts Options) (*models.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening price file")
	}
	defer f.Close()

	if opts.Symbol == "" {
		opts.Symbol = SymbolFromPath(path)
	}
	series, err := parse(f, path, opts)
	if err != nil {
		return nil, err
	}
	series.Source = path
	return series, nil
}

// Parse reads a price series from r. The first row must be a header.
func Parse(r io.Reader, opts Options) (*models.PriceSeries, error) {
	return parse(r, "input", opts)
}

func parse(r io.Reader, source string, opts Options) (*models.PriceSeries, error) {
	opts = opts.withDefaults()

	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, errors.NewDataError(source, 0, "reading csv", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewDataError(source, 0, "no price rows", errors.ErrEmptySeries)
	}

	dateKey, ok := findColumn(rows[0], opts.DateColumn)
	if !ok {
		return nil, errors.NewDataError(source, 1, "no column "+opts.DateColumn, errors.ErrMissingColumn)
	}
	closeKey, ok := findColumn(rows[0], opts.CloseColumn)
	if !ok {
		return nil, errors.NewDataError(source, 1, "no column "+opts.CloseColumn, errors.ErrMissingColumn)
	}

	points := make([]models.PricePoint, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header is line 1

		date, err := time.Parse(opts.DateLayout, strings.TrimSpace(row[dateKey]))
		if err != nil {
			return nil, errors.NewDataError(source, line, fmt.Sprintf("bad date %q", row[dateKey]), errors.ErrInvalidDate)
		}
		closing, err := ParseMinor(row[closeKey], opts.Scale)
		if err != nil {
			return nil, errors.NewDataError(source, line, fmt.Sprintf("bad close %q", row[closeKey]), err)
		}
		points = append(points, models.PricePoint{Date: date, Close: closing})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return &models.PriceSeries{
		Symbol: opts.Symbol,
		Scale:  opts.Scale,
		Points: points,
	}, nil
}

// ParseMinor converts a decimal price such as "123.456" to minor units at the
// given scale, truncating extra digits: 12345 at scale 2.
func ParseMinor(s string, scale int32) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, errors.ErrInvalidPrice
	}
	minor := d.Shift(scale).Truncate(0).IntPart()
	if minor <= 0 {
		return 0, errors.ErrInvalidPrice
	}
	return minor, nil
}

// SymbolFromPath derives a symbol from a file name: data/acme.csv is ACME.
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func findColumn(row map[string]string, name string) (string, bool) {
	for key := range row {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return key, true
		}
	}
	return "", false
}
