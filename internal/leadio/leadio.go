// Package leadio reads and writes the pipeline's tabular lead resources.
//
// The verified file is the sole contract with the dashboard: it is always
// written with the full header row (zero rows is a valid state meaning
// "nothing matched"), and it is replaced atomically so a reader never
// observes a half-written file.
package leadio

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/leadmart/leadgen-cli/internal/model"
)

// ReadRaw reads the raw batch file. A missing file is returned as an error
// wrapping fs.ErrNotExist so callers can distinguish a cold start from a
// malformed file. Enrichment columns absent from the file are tolerated and
// left zero.
func ReadRaw(path string) ([]model.RawLead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: open raw batch %s", path)
	}
	defer f.Close()

	return decodeRaw(f)
}

func decodeRaw(r io.Reader) ([]model.RawLead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "leadio: read raw header")
	}

	var leads []model.RawLead
	for {
		var lead model.RawLead
		if err := dec.Decode(&lead); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "leadio: decode raw row")
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// WriteRaw writes the raw batch file, header included even when the batch
// is empty.
func WriteRaw(path string, leads []model.RawLead) error {
	data, err := encode(model.RawLead{}, len(leads), func(enc *csvutil.Encoder) error {
		for _, lead := range leads {
			if err := enc.Encode(lead); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "leadio: encode raw batch")
	}
	return writeAtomic(path, data)
}

// ReadVerified reads the verified output file.
func ReadVerified(path string) ([]model.VerifiedLead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leadio: open verified file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(reader)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "leadio: read verified header")
	}

	var leads []model.VerifiedLead
	for {
		var lead model.VerifiedLead
		if err := dec.Decode(&lead); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "leadio: decode verified row")
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// WriteVerified overwrites the verified output file. The write is never
// skipped: an empty verified set produces a zero-row file with the full
// header, which downstream readers treat as "no matches" rather than
// "pipeline never ran".
func WriteVerified(path string, leads []model.VerifiedLead) error {
	data, err := encode(model.VerifiedLead{}, len(leads), func(enc *csvutil.Encoder) error {
		for _, lead := range leads {
			if err := enc.Encode(lead); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return eris.Wrap(err, "leadio: encode verified leads")
	}
	return writeAtomic(path, data)
}

// IsMissing reports whether err is a missing-file error from ReadRaw or
// ReadVerified.
func IsMissing(err error) bool {
	return eris.Is(err, fs.ErrNotExist)
}

// encode renders the header for the given schema struct followed by rows
// produced by fill.
func encode(schema any, n int, fill func(*csvutil.Encoder) error) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)

	if err := enc.EncodeHeader(schema); err != nil {
		return nil, err
	}
	if n > 0 {
		if err := fill(enc); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it over path, so concurrent readers see either the old file or
// the new one, never a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "leadio: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "leadio: create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "leadio: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "leadio: close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return eris.Wrapf(err, "leadio: rename over %s", path)
	}
	return nil
}
