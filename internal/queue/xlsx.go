package queue

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadmart/leadgen-cli/internal/model"
)

// Spreadsheet header names. The submission UI owns the sheet, so column
// positions are resolved from the header row on every access — never
// assumed from a fixed offset.
var xlsxHeader = []string{"ID", "Timestamp", "Niche", "Location", "Max Count", "Requester", "Status"}

// XLSXQueue is a spreadsheet-backed order queue shared with an external
// submission UI.
type XLSXQueue struct {
	path  string
	sheet string
}

// NewXLSX creates a spreadsheet-backed queue. sheet selects the worksheet
// by name; empty means the first sheet.
func NewXLSX(path, sheet string) *XLSXQueue {
	return &XLSXQueue{path: path, sheet: sheet}
}

func (q *XLSXQueue) ListPending(ctx context.Context) ([]model.LeadOrder, error) {
	orders, err := q.readAll()
	if err != nil {
		if eris.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var pending []model.LeadOrder
	for _, o := range orders {
		if o.Status == model.OrderStatusPending {
			pending = append(pending, o)
		}
	}
	return pending, nil
}

func (q *XLSXQueue) MarkComplete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	f, sheet, err := q.open()
	if err != nil {
		return err
	}
	if len(sheet.Rows) == 0 {
		return nil
	}

	cols, err := resolveColumns(sheet.Rows[0])
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	for _, row := range sheet.Rows[1:] {
		if cols.id >= len(row.Cells) || cols.status >= len(row.Cells) {
			continue
		}
		if _, ok := want[row.Cells[cols.id].String()]; ok {
			row.Cells[cols.status].Value = string(model.OrderStatusComplete)
		}
	}

	return q.save(f)
}

func (q *XLSXQueue) Append(ctx context.Context, order model.LeadOrder) error {
	f, sheet, err := q.open()
	if err != nil {
		if !eris.Is(err, fs.ErrNotExist) {
			return err
		}
		f = xlsx.NewFile()
		name := q.sheet
		if name == "" {
			name = "Orders"
		}
		sheet, err = f.AddSheet(name)
		if err != nil {
			return eris.Wrap(err, "queue: add sheet")
		}
	}

	if len(sheet.Rows) == 0 {
		header := sheet.AddRow()
		for _, h := range xlsxHeader {
			header.AddCell().Value = h
		}
	}

	cols, err := resolveColumns(sheet.Rows[0])
	if err != nil {
		return err
	}

	// Write cells by resolved header position, padding the row out to the
	// widest resolved column.
	values := map[int]string{
		cols.id:        order.ID,
		cols.timestamp: order.CreatedAt,
		cols.niche:     order.Niche,
		cols.location:  order.Location,
		cols.maxCount:  strconv.Itoa(order.MaxCount),
		cols.requester: order.Requester,
		cols.status:    string(order.Status),
	}
	width := 0
	for idx := range values {
		if idx+1 > width {
			width = idx + 1
		}
	}
	row := sheet.AddRow()
	for i := 0; i < width; i++ {
		row.AddCell().Value = values[i]
	}

	return q.save(f)
}

func (q *XLSXQueue) Close() error { return nil }

func (q *XLSXQueue) open() (*xlsx.File, *xlsx.Sheet, error) {
	if _, err := os.Stat(q.path); err != nil {
		return nil, nil, eris.Wrapf(err, "queue: stat %s", q.path)
	}
	f, err := xlsx.OpenFile(q.path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "queue: open %s", q.path)
	}

	if q.sheet != "" {
		sheet, ok := f.Sheet[q.sheet]
		if !ok {
			return nil, nil, eris.Errorf("queue: sheet %q not found", q.sheet)
		}
		return f, sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("queue: %s has no sheets", q.path)
	}
	return f, f.Sheets[0], nil
}

func (q *XLSXQueue) save(f *xlsx.File) error {
	if dir := filepath.Dir(q.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "queue: create dir %s", dir)
		}
	}
	if err := f.Save(q.path); err != nil {
		return eris.Wrapf(err, "queue: save %s", q.path)
	}
	return nil
}

func (q *XLSXQueue) readAll() ([]model.LeadOrder, error) {
	_, sheet, err := q.open()
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols, err := resolveColumns(sheet.Rows[0])
	if err != nil {
		return nil, err
	}

	var orders []model.LeadOrder
	for _, row := range sheet.Rows[1:] {
		get := func(idx int) string {
			if idx < len(row.Cells) {
				return row.Cells[idx].String()
			}
			return ""
		}
		if get(cols.id) == "" {
			continue
		}
		maxCount, _ := strconv.Atoi(get(cols.maxCount))
		orders = append(orders, model.LeadOrder{
			ID:        get(cols.id),
			CreatedAt: get(cols.timestamp),
			Niche:     get(cols.niche),
			Location:  get(cols.location),
			MaxCount:  maxCount,
			Requester: get(cols.requester),
			Status:    model.OrderStatus(get(cols.status)),
		})
	}
	return orders, nil
}

type columnIndexes struct {
	id, timestamp, niche, location, maxCount, requester, status int
}

// resolveColumns maps header names to positions. The sheet may have been
// reordered or extended by the submission UI; only the named columns
// matter.
func resolveColumns(header *xlsx.Row) (columnIndexes, error) {
	found := map[string]int{}
	for i, cell := range header.Cells {
		found[cell.String()] = i
	}

	cols := columnIndexes{}
	for _, want := range []struct {
		name string
		dst  *int
	}{
		{"ID", &cols.id},
		{"Timestamp", &cols.timestamp},
		{"Niche", &cols.niche},
		{"Location", &cols.location},
		{"Max Count", &cols.maxCount},
		{"Requester", &cols.requester},
		{"Status", &cols.status},
	} {
		idx, ok := found[want.name]
		if !ok {
			return cols, eris.Errorf("queue: header column %q not found", want.name)
		}
		*want.dst = idx
	}
	return cols, nil
}
