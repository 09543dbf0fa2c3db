package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jgpdata/emissions-backend/internal/models"
	"github.com/jgpdata/emissions-backend/internal/worker"
)

const batchSize = 100

// Store is the slice of the emissions repository the importer uses.
type Store interface {
	Truncate(ctx context.Context) error
	InsertBatch(ctx context.Context, items []models.Emission) error
}

type Importer struct {
	store Store
	pool  *worker.Pool
	log   *slog.Logger
}

func New(store Store, pool *worker.Pool, log *slog.Logger) *Importer {
	return &Importer{store: store, pool: pool, log: log}
}

type Result struct {
	Imported int
	Failed   int
}

// Run replaces the whole emissions collection with the spreadsheet
// contents. Rows that fail to parse are logged, counted and skipped;
// the batch keeps going.
func (i *Importer) Run(ctx context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return Result{}, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) == 0 {
		return Result{}, errors.New("spreadsheet is empty")
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return Result{}, err
	}

	if err := i.store.Truncate(ctx); err != nil {
		return Result{}, fmt.Errorf("truncate: %w", err)
	}

	var (
		wg       sync.WaitGroup
		imported atomic.Int64
		failed   atomic.Int64
	)
	flush := func(chunk []models.Emission) {
		wg.Add(1)
		i.pool.Submit(func() {
			defer wg.Done()
			if err := i.store.InsertBatch(ctx, chunk); err != nil {
				i.log.Error("batch insert", "rows", len(chunk), "err", err)
				failed.Add(int64(len(chunk)))
				return
			}
			imported.Add(int64(len(chunk)))
		})
	}

	batch := make([]models.Emission, 0, batchSize)
	for n, row := range rows[1:] {
		em, err := parseRow(row, cols)
		if err != nil {
			i.log.Warn("skipping row", "row", n+2, "err", err)
			failed.Add(1)
			continue
		}
		batch = append(batch, em)
		if len(batch) == batchSize {
			flush(batch)
			batch = make([]models.Emission, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		flush(batch)
	}
	wg.Wait()

	return Result{Imported: int(imported.Load()), Failed: int(failed.Load())}, nil
}

// expected spreadsheet columns; header cells are trimmed before matching
var requiredColumns = []string{"Data", "Tipo", "Emissor", "Valor"}

type columnIndex map[string]int

func headerIndex(header []string) (columnIndex, error) {
	cols := columnIndex{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func (c columnIndex) cell(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06", // excelize default short date
	"02/01/2006",
}

func parseRow(row []string, cols columnIndex) (models.Emission, error) {
	rawDate := cols.cell(row, "Data")
	if rawDate == "" {
		return models.Emission{}, errors.New("empty date")
	}
	var (
		issueDate time.Time
		err       error
	)
	for _, layout := range dateFormats {
		if issueDate, err = time.Parse(layout, rawDate); err == nil {
			break
		}
	}
	if err != nil {
		return models.Emission{}, fmt.Errorf("unparseable date %q", rawDate)
	}

	amount := 0.0
	if raw := cols.cell(row, "Valor"); raw != "" {
		amount, err = strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return models.Emission{}, fmt.Errorf("unparseable amount %q", raw)
		}
	}

	em := models.Emission{
		IssueDate: issueDate,
		Type:      cols.cell(row, "Tipo"),
		Issuer:    cols.cell(row, "Emissor"),
		Amount:    amount,
	}
	if link := cols.cell(row, "Link"); link != "" {
		em.Link = &link
	}
	return em, nil
}
