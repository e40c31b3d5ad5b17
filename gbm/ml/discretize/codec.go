package discretize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/gbm/store"
	"github.com/newsky/SparkGBM/utils"
)

// SaveTables 产出离散化器的两张逻辑表：每列一行的分桶表 + 全局元信息表
func (d *Discretizer) SaveTables() (cols *store.Table, extra *store.Table) {
	cols = &store.Table{Columns: []string{"col", "kind", "bounds"}}
	for _, c := range d.cols {
		cols.Rows = append(cols.Rows, []string{
			strconv.Itoa(c.Col),
			c.Kind,
			FormatFloats(c.Bounds),
		})
	}
	extra = &store.Table{
		Columns: []string{"key", "value"},
		Rows: [][]string{
			{gbm_config.NumColsKey, strconv.Itoa(d.NumCols())},
			{gbm_config.VersionKey, gbm_config.DiscretizerVersion},
		},
	}
	return cols, extra
}

// LoadTables 从两张逻辑表还原离散化器，行顺序随意
func LoadTables(cols *store.Table, extra *store.Table) (*Discretizer, error) {
	kv, err := readKvRows(extra)
	if err != nil {
		return nil, err
	}
	numColsStr, has := kv[gbm_config.NumColsKey]
	if !has {
		return nil, fmt.Errorf("%w: discretizer extra table missing %s", utils.ErrCorruptState, gbm_config.NumColsKey)
	}
	numCols, err := strconv.Atoi(numColsStr)
	if err != nil || numCols < 0 {
		return nil, fmt.Errorf("%w: bad %s value %q", utils.ErrCorruptState, gbm_config.NumColsKey, numColsStr)
	}

	if len(cols.Rows) != numCols {
		return nil, fmt.Errorf("%w: discretizer has %d column rows, want %d", utils.ErrCorruptState, len(cols.Rows), numCols)
	}
	parsed := make([]ColumnBins, numCols)
	seen := make([]bool, numCols)
	for _, row := range cols.Rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("%w: bad discretizer column row %v", utils.ErrCorruptState, row)
		}
		col, err := strconv.Atoi(row[0])
		if err != nil || col < 0 || col >= numCols {
			return nil, fmt.Errorf("%w: bad discretizer column id %q", utils.ErrCorruptState, row[0])
		}
		if seen[col] {
			return nil, fmt.Errorf("%w: duplicate discretizer column %d", utils.ErrCorruptState, col)
		}
		seen[col] = true
		bounds, err := ParseFloats(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: bad bounds of column %d: %v", utils.ErrCorruptState, col, err)
		}
		parsed[col] = ColumnBins{Col: col, Kind: row[1], Bounds: bounds}
	}

	d, err := NewDiscretizer(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrCorruptState, err)
	}
	return d, nil
}

func readKvRows(t *store.Table) (map[string]string, error) {
	kv := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("%w: bad kv row %v", utils.ErrCorruptState, row)
		}
		kv[row[0]] = row[1]
	}
	return kv, nil
}

// FormatFloats 空格分隔，保证float64往返无损
func FormatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, gbm_config.BoundsSep)
}

func ParseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, gbm_config.BoundsSep)
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
