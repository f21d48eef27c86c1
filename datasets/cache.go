package datasets

import (
	"os"
	"path/filepath"

	"github.com/gomlx/nlpdatasets/internal/files"
	"github.com/gomlx/nlpdatasets/tokenizers/api"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// Encoding shapes stored in the cache.
const (
	shapeBert   = "bert"
	shapeSeqLen = "seq_len"
)

// cacheRow is how a Record is stored in the Parquet cache file.
type cacheRow struct {
	Shape      string  `parquet:"shape"`
	IDs        []int64 `parquet:"ids"`
	SegmentIDs []int64 `parquet:"segment_ids"`
	SeqLen     int64   `parquet:"seq_len"`
	HasLabel   bool    `parquet:"has_label"`
	ClassID    int64   `parquet:"class_id"`
	TagIDs     []int64 `parquet:"tag_ids"`
}

func cachePaths(dir, name string) (recordsPath, labelsPath string) {
	return filepath.Join(dir, name+".parquet"), filepath.Join(dir, name+".labels")
}

// WriteCache writes the records to "<dir>/<name>.parquet" and the labels, if any, to
// "<dir>/<name>.labels". Concurrent writers of the same cache are serialized with a file lock,
// and readers only ever see complete files.
func (d *Dataset) WriteCache(dir, name string) error {
	rows := make([]cacheRow, len(d.records))
	for i := range d.records {
		row, err := recordToRow(&d.records[i])
		if err != nil {
			return errors.WithMessagef(err, "record %d", i)
		}
		rows[i] = row
	}

	if err := os.MkdirAll(dir, files.DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create cache directory %q", dir)
	}
	recordsPath, labelsPath := cachePaths(dir, name)
	return files.ExecOnFileLock(recordsPath+".lock", func() error {
		if d.labels != nil {
			if err := files.WriteAtomic(labelsPath, d.labels.WriteLabelFile); err != nil {
				return err
			}
		} else if files.Exists(labelsPath) {
			if err := os.Remove(labelsPath); err != nil {
				return errors.Wrapf(err, "failed to remove stale labels %q", labelsPath)
			}
		}
		return files.WriteAtomic(recordsPath, func(tmpPath string) error {
			if err := parquet.WriteFile(tmpPath, rows); err != nil {
				return errors.Wrapf(err, "failed to write records cache %q", tmpPath)
			}
			return nil
		})
	})
}

// ReadCache reads a Dataset written by WriteCache. It returns ErrMissingResource if there is no
// such cache.
func ReadCache(dir, name string, task Task) (*Dataset, error) {
	recordsPath, labelsPath := cachePaths(dir, name)
	if !files.Exists(recordsPath) {
		return nil, errors.Wrapf(ErrMissingResource, "records cache %q not found", recordsPath)
	}
	rows, err := parquet.ReadFile[cacheRow](recordsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read records cache %q", recordsPath)
	}
	d := &Dataset{task: task, records: make([]Record, len(rows))}
	for i := range rows {
		d.records[i], err = rowToRecord(&rows[i], task)
		if err != nil {
			return nil, errors.WithMessagef(err, "records cache %q, row %d", recordsPath, i)
		}
	}
	if files.Exists(labelsPath) {
		d.labels, err = LoadLabelIndex(labelsPath)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func recordToRow(rec *Record) (cacheRow, error) {
	row := cacheRow{HasLabel: rec.HasLabel, ClassID: int64(rec.ClassID), TagIDs: toInt64s(rec.TagIDs)}
	switch enc := rec.Encoding.(type) {
	case *api.BertEncoding:
		row.Shape = shapeBert
		row.IDs = toInt64s(enc.InputIDs)
		row.SegmentIDs = toInt64s(enc.SegmentIDs)
	case *api.SeqLenEncoding:
		row.Shape = shapeSeqLen
		row.IDs = toInt64s(enc.Text)
		row.SeqLen = int64(enc.SeqLen)
	default:
		return cacheRow{}, errors.Errorf("can't cache encoding of type %T", rec.Encoding)
	}
	return row, nil
}

func rowToRecord(row *cacheRow, task Task) (Record, error) {
	rec := Record{HasLabel: row.HasLabel}
	switch row.Shape {
	case shapeBert:
		rec.Encoding = &api.BertEncoding{InputIDs: toInts(row.IDs), SegmentIDs: toInts(row.SegmentIDs)}
	case shapeSeqLen:
		rec.Encoding = &api.SeqLenEncoding{Text: toInts(row.IDs), SeqLen: int(row.SeqLen)}
	default:
		return Record{}, errors.Errorf("unknown encoding shape %q", row.Shape)
	}
	if row.HasLabel {
		if task == TaskSequenceLabeling {
			rec.TagIDs = toInts(row.TagIDs)
		} else {
			rec.ClassID = int(row.ClassID)
		}
	}
	return rec, nil
}

func toInt64s(values []int) []int64 {
	if values == nil {
		return nil
	}
	result := make([]int64, len(values))
	for i, v := range values {
		result[i] = int64(v)
	}
	return result
}

// toInts always returns a non-nil slice.
func toInts(values []int64) []int {
	result := make([]int, len(values))
	for i, v := range values {
		result[i] = int(v)
	}
	return result
}
