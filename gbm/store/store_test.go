package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/newsky/SparkGBM/utils"
)

var testTable = &Table{
	Columns: []string{"key", "values"},
	Rows: [][]string{
		{"weights", "1 0.5"},
		{"rawBase", "0.25"},
	},
}

func TestCsvStoreRoundTrip(t *testing.T) {
	s, err := NewCsvStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTable("extra", testTable); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadTable("extra")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, testTable) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := s.ReadTable("nothing"); !errors.Is(err, utils.ErrOpenCsv) {
		t.Fatalf("missing table: got %v", err)
	}
}

func TestCsvStoreEmptyTable(t *testing.T) {
	s, err := NewCsvStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	empty := &Table{Columns: []string{"a", "b"}}
	if err := s.WriteTable("empty", empty); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadTable("empty")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rows) != 0 || !reflect.DeepEqual(got.Columns, empty.Columns) {
		t.Fatalf("empty table mismatch: %+v", got)
	}
}

func TestGormStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.db")
	s, err := NewGormStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTable("extra", testTable); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadTable("extra")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, testTable) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// 覆盖写
	smaller := &Table{Columns: []string{"key", "values"}, Rows: [][]string{{"rawBase", "1"}}}
	if err := s.WriteTable("extra", smaller); err != nil {
		t.Fatal(err)
	}
	got, err = s.ReadTable("extra")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, smaller) {
		t.Fatalf("overwrite mismatch: %+v", got)
	}

	if _, err := s.ReadTable("nothing"); !errors.Is(err, utils.ErrCorruptState) {
		t.Fatalf("missing table: got %v", err)
	}
}
