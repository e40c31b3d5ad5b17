package discretize

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/utils"
)

func testDiscretizer(t *testing.T) *Discretizer {
	t.Helper()
	d, err := NewDiscretizer([]ColumnBins{
		{Col: 0, Kind: gbm_config.NumericCol, Bounds: []float64{1.5, 3.0, 10.0}},
		{Col: 1, Kind: gbm_config.CategoricalCol, Bounds: []float64{2, 5, 9}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestTransform(t *testing.T) {
	d := testDiscretizer(t)
	if d.NumCols() != 2 {
		t.Fatalf("numCols: got %d", d.NumCols())
	}

	cases := []struct {
		features []float64
		want     []int
	}{
		{[]float64{0.0, 2}, []int{0, 0}},
		{[]float64{1.5, 5}, []int{0, 1}},
		{[]float64{2.0, 9}, []int{1, 2}},
		{[]float64{10.0, 7}, []int{2, 0}}, // 7不在枚举里，进0号桶
		{[]float64{99.0, 2}, []int{3, 0}}, // 溢出桶
		{[]float64{math.NaN(), math.NaN()}, []int{0, 0}},
	}
	for _, c := range cases {
		if got := d.Transform(c.features); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("transform %v: got %v want %v", c.features, got, c.want)
		}
	}
}

func TestNumBins(t *testing.T) {
	d := testDiscretizer(t)
	cols := d.Columns()
	if cols[0].NumBins() != 4 {
		t.Fatalf("numeric numBins: got %d want 4", cols[0].NumBins())
	}
	if cols[1].NumBins() != 3 {
		t.Fatalf("categorical numBins: got %d want 3", cols[1].NumBins())
	}
}

func TestNewDiscretizerInvalid(t *testing.T) {
	_, err := NewDiscretizer([]ColumnBins{{Col: 1, Kind: gbm_config.NumericCol}})
	if !errors.Is(err, utils.ErrInvalidArgument) {
		t.Fatalf("out of order cols: got %v", err)
	}
	_, err = NewDiscretizer([]ColumnBins{{Col: 0, Kind: gbm_config.NumericCol, Bounds: []float64{3, 1}}})
	if !errors.Is(err, utils.ErrInvalidArgument) {
		t.Fatalf("unsorted bounds: got %v", err)
	}
	_, err = NewDiscretizer([]ColumnBins{{Col: 0, Kind: "whatever"}})
	if !errors.Is(err, utils.ErrInvalidArgument) {
		t.Fatalf("unknown kind: got %v", err)
	}
}

func TestTablesRoundTrip(t *testing.T) {
	d := testDiscretizer(t)
	cols, extra := d.SaveTables()

	restored, err := LoadTables(cols, extra)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(restored.Columns(), d.Columns()) {
		t.Fatalf("round trip mismatch: %+v", restored.Columns())
	}

	// 列行顺序倒过来也要能还原
	cols.Rows[0], cols.Rows[1] = cols.Rows[1], cols.Rows[0]
	restored, err = LoadTables(cols, extra)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(restored.Columns(), d.Columns()) {
		t.Fatalf("reordered round trip mismatch: %+v", restored.Columns())
	}
}

func TestLoadTablesCorrupt(t *testing.T) {
	d := testDiscretizer(t)

	// 少一列
	cols, extra := d.SaveTables()
	cols.Rows = cols.Rows[:1]
	if _, err := LoadTables(cols, extra); !errors.Is(err, utils.ErrCorruptState) {
		t.Fatalf("missing column row: got %v", err)
	}

	// 列号重复
	cols, extra = d.SaveTables()
	cols.Rows[1] = cols.Rows[0]
	if _, err := LoadTables(cols, extra); !errors.Is(err, utils.ErrCorruptState) {
		t.Fatalf("duplicate column: got %v", err)
	}

	// 元信息缺numCols
	cols, extra = d.SaveTables()
	extra.Rows = extra.Rows[1:]
	if _, err := LoadTables(cols, extra); !errors.Is(err, utils.ErrCorruptState) {
		t.Fatalf("missing numCols: got %v", err)
	}

	// 边界解析不了
	cols, extra = d.SaveTables()
	cols.Rows[0][2] = "abc"
	if _, err := LoadTables(cols, extra); !errors.Is(err, utils.ErrCorruptState) {
		t.Fatalf("bad bounds: got %v", err)
	}
}
