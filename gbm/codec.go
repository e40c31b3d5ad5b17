/*
	模型和五张逻辑表之间的编解码
	trees表里每个结点行都带着所属树的下标，行和行之间没有顺序保证，
	加载时按下标分组重建再按下标排序，树的顺序只能靠下标恢复
*/

package gbm

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	mapset "github.com/deckarep/golang-set"

	"github.com/newsky/SparkGBM/gbm/ml/discretize"
	"github.com/newsky/SparkGBM/gbm/ml/objective"
	"github.com/newsky/SparkGBM/gbm/ml/tree"
	"github.com/newsky/SparkGBM/gbm/store"
	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/rock-share/base/logger"
	"github.com/newsky/SparkGBM/utils"
)

var treesTableColumns = []string{"treeIndex", "sid", "isLeaf", "feature", "threshold", "gain", "leftSid", "rightSid", "leafValue"}

// Save 把模型写成五张逻辑表，写入顺序固定
func Save(m *GBMModel, ts store.TableStore) error {
	blob, err := objective.Marshal(m.Objective())
	if err != nil {
		return err
	}
	if err := ts.WriteTable(gbm_config.ObjTable, &store.Table{
		Columns: []string{"blob"},
		Rows:    [][]string{{string(blob)}},
	}); err != nil {
		return err
	}

	colsTable, extraTable := m.Discretizer().SaveTables()
	if err := ts.WriteTable(gbm_config.DiscretizerColsTable, colsTable); err != nil {
		return err
	}
	if err := ts.WriteTable(gbm_config.DiscretizerExtraTable, extraTable); err != nil {
		return err
	}

	trees := &store.Table{Columns: treesTableColumns}
	for idx, t := range m.trees {
		for _, r := range t.FlattenNodes() {
			trees.Rows = append(trees.Rows, encodeNodeRow(idx, r))
		}
	}
	if err := ts.WriteTable(gbm_config.TreesTable, trees); err != nil {
		return err
	}

	if err := ts.WriteTable(gbm_config.ExtraTable, &store.Table{
		Columns: []string{"key", "values"},
		Rows: [][]string{
			{gbm_config.WeightsKey, discretize.FormatFloats(m.Weights())},
			{gbm_config.RawBaseKey, discretize.FormatFloats(m.RawBase())},
		},
	}); err != nil {
		return err
	}

	logger.Infof("saved gbm model: %d trees, %d outputs, %d node rows", m.NumTrees(), m.NumOutputs(), len(trees.Rows))
	return nil
}

// Load 从五张逻辑表还原模型，构造时会把全部不变量再校验一遍
func Load(ts store.TableStore) (*GBMModel, error) {
	objTable, err := readTable(ts, gbm_config.ObjTable)
	if err != nil {
		return nil, err
	}
	if len(objTable.Rows) != 1 || len(objTable.Rows[0]) != 1 {
		return nil, fmt.Errorf("%w: obj table wants exactly one blob row", utils.ErrCorruptState)
	}
	obj, err := objective.Unmarshal([]byte(objTable.Rows[0][0]))
	if err != nil {
		return nil, err
	}

	colsTable, err := readTable(ts, gbm_config.DiscretizerColsTable)
	if err != nil {
		return nil, err
	}
	discExtra, err := readTable(ts, gbm_config.DiscretizerExtraTable)
	if err != nil {
		return nil, err
	}
	discretizer, err := discretize.LoadTables(colsTable, discExtra)
	if err != nil {
		return nil, err
	}

	treesTable, err := readTable(ts, gbm_config.TreesTable)
	if err != nil {
		return nil, err
	}
	trees, err := rebuildTrees(treesTable)
	if err != nil {
		return nil, err
	}

	extraTable, err := readTable(ts, gbm_config.ExtraTable)
	if err != nil {
		return nil, err
	}
	weights, err := readFloatsRow(extraTable, gbm_config.WeightsKey)
	if err != nil {
		return nil, err
	}
	rawBase, err := readFloatsRow(extraTable, gbm_config.RawBaseKey)
	if err != nil {
		return nil, err
	}
	if len(rawBase) == 0 {
		return nil, fmt.Errorf("%w: empty rawBase on reload", utils.ErrCorruptState)
	}
	for i, v := range rawBase {
		// NaN和Inf都解析得出来，这里要拦住
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite rawBase[%d]=%v on reload", utils.ErrCorruptState, i, v)
		}
	}

	m, err := NewGBMModel(obj, discretizer, rawBase, trees, weights)
	if err != nil {
		// 下标校验没拦住的损坏由构造兜底
		return nil, fmt.Errorf("%w: %v", utils.ErrCorruptState, err)
	}
	logger.Infof("loaded gbm model: %d trees, %d outputs", m.NumTrees(), m.NumOutputs())
	return m, nil
}

// rebuildTrees 按树下标分组重建，分组内行顺序随意
// 恢复出来的下标集合必须恰好是{0..T-1}，有洞或者越界都算损坏，绝不悄悄重排
func rebuildTrees(t *store.Table) ([]*tree.Tree, error) {
	groups := make(map[int][]tree.NodeRecord)
	indexSet := mapset.NewSet()
	for _, row := range t.Rows {
		idx, r, err := decodeNodeRow(row)
		if err != nil {
			return nil, err
		}
		indexSet.Add(idx)
		groups[idx] = append(groups[idx], r)
	}

	n := indexSet.Cardinality()
	for i := 0; i < n; i++ {
		if !indexSet.Contains(i) {
			return nil, fmt.Errorf("%w: missing tree index %d on reload", utils.ErrCorruptState, i)
		}
	}

	indices := make([]int, 0, n)
	for idx := range groups {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	trees := make([]*tree.Tree, 0, n)
	for _, idx := range indices {
		rebuilt, err := tree.TreeFromRecords(groups[idx])
		if err != nil {
			return nil, fmt.Errorf("rebuild tree %d: %w", idx, err)
		}
		trees = append(trees, rebuilt)
	}
	return trees, nil
}

func encodeNodeRow(idx int, r tree.NodeRecord) []string {
	return []string{
		strconv.Itoa(idx),
		strconv.FormatUint(r.Sid, 10),
		strconv.FormatBool(r.IsLeaf),
		strconv.Itoa(r.Feature),
		strconv.Itoa(r.Threshold),
		strconv.FormatFloat(r.Gain, 'g', -1, 64),
		strconv.FormatUint(r.LeftSid, 10),
		strconv.FormatUint(r.RightSid, 10),
		strconv.FormatFloat(r.LeafValue, 'g', -1, 64),
	}
}

func decodeNodeRow(row []string) (int, tree.NodeRecord, error) {
	r := tree.NodeRecord{}
	if len(row) != len(treesTableColumns) {
		return 0, r, fmt.Errorf("%w: bad trees table row %v", utils.ErrCorruptState, row)
	}
	idx, err := strconv.Atoi(row[0])
	if err != nil || idx < 0 {
		return 0, r, fmt.Errorf("%w: bad tree index %q", utils.ErrCorruptState, row[0])
	}
	if r.Sid, err = strconv.ParseUint(row[1], 10, 64); err != nil {
		return 0, r, fmt.Errorf("%w: bad node sid %q", utils.ErrCorruptState, row[1])
	}
	if r.IsLeaf, err = strconv.ParseBool(row[2]); err != nil {
		return 0, r, fmt.Errorf("%w: bad isLeaf %q", utils.ErrCorruptState, row[2])
	}
	if r.Feature, err = strconv.Atoi(row[3]); err != nil {
		return 0, r, fmt.Errorf("%w: bad feature %q", utils.ErrCorruptState, row[3])
	}
	if r.Threshold, err = strconv.Atoi(row[4]); err != nil {
		return 0, r, fmt.Errorf("%w: bad threshold %q", utils.ErrCorruptState, row[4])
	}
	if r.Gain, err = strconv.ParseFloat(row[5], 64); err != nil {
		return 0, r, fmt.Errorf("%w: bad gain %q", utils.ErrCorruptState, row[5])
	}
	if r.LeftSid, err = strconv.ParseUint(row[6], 10, 64); err != nil {
		return 0, r, fmt.Errorf("%w: bad leftSid %q", utils.ErrCorruptState, row[6])
	}
	if r.RightSid, err = strconv.ParseUint(row[7], 10, 64); err != nil {
		return 0, r, fmt.Errorf("%w: bad rightSid %q", utils.ErrCorruptState, row[7])
	}
	if r.LeafValue, err = strconv.ParseFloat(row[8], 64); err != nil {
		return 0, r, fmt.Errorf("%w: bad leafValue %q", utils.ErrCorruptState, row[8])
	}
	return idx, r, nil
}

func readTable(ts store.TableStore, name string) (*store.Table, error) {
	t, err := ts.ReadTable(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read table %s: %v", utils.ErrCorruptState, name, err)
	}
	return t, nil
}

func readFloatsRow(t *store.Table, key string) ([]float64, error) {
	for _, row := range t.Rows {
		if len(row) == 2 && row[0] == key {
			values, err := discretize.ParseFloats(row[1])
			if err != nil {
				return nil, fmt.Errorf("%w: bad %s values: %v", utils.ErrCorruptState, key, err)
			}
			return values, nil
		}
	}
	return nil, fmt.Errorf("%w: extra table missing key %s", utils.ErrCorruptState, key)
}

// SaveModel 存成path目录下的csv表
func SaveModel(m *GBMModel, path string) error {
	s, err := store.NewCsvStore(path)
	if err != nil {
		return err
	}
	return Save(m, s)
}

// LoadModel 从path目录下的csv表加载
func LoadModel(path string) (*GBMModel, error) {
	s, err := store.NewCsvStore(path)
	if err != nil {
		return nil, err
	}
	return Load(s)
}

// SaveModelDB 存进一个sqlite库
func SaveModelDB(m *GBMModel, path string) error {
	s, err := store.NewGormStore(path)
	if err != nil {
		return err
	}
	return Save(m, s)
}

// LoadModelDB 从sqlite库加载
func LoadModelDB(path string) (*GBMModel, error) {
	s, err := store.NewGormStore(path)
	if err != nil {
		return nil, err
	}
	return Load(s)
}
