package queue

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/leadmart/leadgen-cli/internal/model"
)

// CSVQueue is a local file-backed order queue. It assumes a single writer
// at a time; the pipeline run lock covers the pipeline side of that
// assumption.
type CSVQueue struct {
	path string
}

// NewCSV creates a CSV-file-backed queue at path. The file is created on
// first Append.
func NewCSV(path string) *CSVQueue {
	return &CSVQueue{path: path}
}

func (q *CSVQueue) ListPending(ctx context.Context) ([]model.LeadOrder, error) {
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

func (q *CSVQueue) MarkComplete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	orders, err := q.readAll()
	if err != nil {
		return err
	}

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	// Only Status changes; every other field of every row is rewritten
	// exactly as read.
	for i := range orders {
		if _, ok := want[orders[i].ID]; ok {
			orders[i].Status = model.OrderStatusComplete
		}
	}

	return q.writeAll(orders)
}

func (q *CSVQueue) Append(ctx context.Context, order model.LeadOrder) error {
	orders, err := q.readAll()
	if err != nil && !eris.Is(err, fs.ErrNotExist) {
		return err
	}
	orders = append(orders, order)
	return q.writeAll(orders)
}

func (q *CSVQueue) Close() error { return nil }

func (q *CSVQueue) readAll() ([]model.LeadOrder, error) {
	f, err := os.Open(q.path)
	if err != nil {
		return nil, eris.Wrapf(err, "queue: open %s", q.path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "queue: read header")
	}

	var orders []model.LeadOrder
	for {
		var o model.LeadOrder
		if err := dec.Decode(&o); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "queue: decode order row")
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (q *CSVQueue) writeAll(orders []model.LeadOrder) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)

	if err := enc.EncodeHeader(model.LeadOrder{}); err != nil {
		return eris.Wrap(err, "queue: encode header")
	}
	for _, o := range orders {
		if err := enc.Encode(o); err != nil {
			return eris.Wrap(err, "queue: encode order")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "queue: flush")
	}

	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "queue: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(q.path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "queue: create temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "queue: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "queue: close temp file")
	}
	if err := os.Rename(tmpPath, q.path); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "queue: rename over %s", q.path)
	}
	return nil
}
