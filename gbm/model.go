/*
	GBM模型的推理侧：一串树加权累加出raw score，再过objective得到预测
	支持K个输出维度共用一串树：第i棵树的贡献加在第 i mod K 个输出槽上，
	多分类不用为每个类单独存一个树数组
	模型构造之后不可变，各查询都只读共享字段、分配自己的局部状态，可以并发调用
*/

package gbm

import (
	"fmt"
	"math"
	"sync"

	"github.com/yourbasic/bit"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/newsky/SparkGBM/gbm/ml/discretize"
	"github.com/newsky/SparkGBM/gbm/ml/linalg"
	"github.com/newsky/SparkGBM/gbm/ml/objective"
	"github.com/newsky/SparkGBM/gbm/ml/tree"
	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/utils"
)

type GBMModel struct {
	obj         objective.ObjFunc
	discretizer *discretize.Discretizer
	rawBase     []float64    // rawBase 每个输出维度的基准偏移，长度K
	trees       []*tree.Tree // trees 树的数目必须是K的整数倍
	weights     []float64    // weights 每棵树一个权重

	// 构造时算好的缓存
	baseScore []float64
	numLeaves []int
	numNodes  []int
	depths    []int

	// 全量importance只算一次，并发首次访问也只会算一次
	importanceOnce sync.Once
	importanceAll  linalg.Vector
}

// NewGBMModel 构造时做全部不变量检查，违反立刻失败
func NewGBMModel(
	obj objective.ObjFunc, discretizer *discretize.Discretizer,
	rawBase []float64, trees []*tree.Tree, weights []float64,
) (*GBMModel, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: nil objective", utils.ErrInvalidArgument)
	}
	if discretizer == nil {
		return nil, fmt.Errorf("%w: nil discretizer", utils.ErrInvalidArgument)
	}
	if len(rawBase) == 0 {
		return nil, fmt.Errorf("%w: empty rawBase", utils.ErrInvalidArgument)
	}
	for i, v := range rawBase {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite rawBase[%d]=%v", utils.ErrInvalidArgument, i, v)
		}
	}
	if len(trees) != len(weights) {
		return nil, fmt.Errorf("%w: %d trees but %d weights", utils.ErrInvalidArgument, len(trees), len(weights))
	}
	for i, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite weights[%d]=%v", utils.ErrInvalidArgument, i, v)
		}
	}
	if len(trees)%len(rawBase) != 0 {
		return nil, fmt.Errorf("%w: %d trees not a multiple of %d outputs", utils.ErrInvalidArgument, len(trees), len(rawBase))
	}

	m := &GBMModel{
		obj:         obj,
		discretizer: discretizer,
		rawBase:     rawBase,
		trees:       trees,
		weights:     weights,
	}
	m.baseScore = obj.Transform(rawBase)
	m.numLeaves = make([]int, len(trees))
	m.numNodes = make([]int, len(trees))
	m.depths = make([]int, len(trees))
	for i, t := range trees {
		m.numLeaves[i] = t.NumLeaves()
		m.numNodes[i] = t.NumNodes()
		m.depths[i] = t.Depth()
	}
	return m, nil
}

func (m *GBMModel) NumTrees() int {
	return len((*m).trees)
}

// NumOutputs 输出维度K
func (m *GBMModel) NumOutputs() int {
	return len((*m).rawBase)
}

func (m *GBMModel) NumCols() int {
	return m.discretizer.NumCols()
}

func (m *GBMModel) RawBase() []float64 {
	return (*m).rawBase
}

func (m *GBMModel) Weights() []float64 {
	return (*m).weights
}

func (m *GBMModel) Objective() objective.ObjFunc {
	return (*m).obj
}

func (m *GBMModel) Discretizer() *discretize.Discretizer {
	return (*m).discretizer
}

// BaseScore 没有任何树时的预测，构造时算好
func (m *GBMModel) BaseScore() []float64 {
	return (*m).baseScore
}

func (m *GBMModel) NumLeaves() []int {
	return (*m).numLeaves
}

func (m *GBMModel) NumNodes() []int {
	return (*m).numNodes
}

func (m *GBMModel) Depths() []int {
	return (*m).depths
}

// resolveFirstTrees -1表示全部的树，其余取值必须落在[0, numTrees]
func (m *GBMModel) resolveFirstTrees(firstTrees int) (int, error) {
	if firstTrees == gbm_config.AllTrees {
		return len(m.trees), nil
	}
	if firstTrees < 0 || firstTrees > len(m.trees) {
		return 0, fmt.Errorf("%w: firstTrees %d out of range [-1, %d]", utils.ErrInvalidArgument, firstTrees, len(m.trees))
	}
	return firstTrees, nil
}

func (m *GBMModel) checkFeatures(features []float64) error {
	if len(features) != m.NumCols() {
		return fmt.Errorf("%w: feature vector length mismatch, got %d want %d", utils.ErrInvalidArgument, len(features), m.NumCols())
	}
	return nil
}

// PredictRawFirst 用前firstTrees棵树算raw score，firstTrees为-1时用全部的树
func (m *GBMModel) PredictRawFirst(features []float64, firstTrees int) ([]float64, error) {
	n, err := m.resolveFirstTrees(firstTrees)
	if err != nil {
		return nil, err
	}
	if err := m.checkFeatures(features); err != nil {
		return nil, err
	}

	bins := m.discretizer.Transform(features)
	k := len(m.rawBase)
	acc := make([]float64, k)
	copy(acc, m.rawBase)
	for i := 0; i < n; i++ {
		acc[i%k] += m.trees[i].Predict(bins) * m.weights[i]
	}
	return acc, nil
}

// PredictRaw 全部树的raw score
func (m *GBMModel) PredictRaw(features []float64) ([]float64, error) {
	return m.PredictRawFirst(features, gbm_config.AllTrees)
}

// PredictFirst raw score过objective之后的最终预测
func (m *GBMModel) PredictFirst(features []float64, firstTrees int) ([]float64, error) {
	raw, err := m.PredictRawFirst(features, firstTrees)
	if err != nil {
		return nil, err
	}
	return m.obj.Transform(raw), nil
}

func (m *GBMModel) Predict(features []float64) ([]float64, error) {
	return m.PredictFirst(features, gbm_config.AllTrees)
}

// LeafFirst 叶子编码
// 非oneHot：长度n的向量，第i个是第i棵树走到的叶子序号
// oneHot：长度sum(numLeaves[0..n-1])的稀疏向量，第i棵树的叶子序号
// 加上前面所有树的叶子总数作偏移，每棵树恰好贡献一个1.0
func (m *GBMModel) LeafFirst(features []float64, oneHot bool, firstTrees int) (linalg.Vector, error) {
	n, err := m.resolveFirstTrees(firstTrees)
	if err != nil {
		return nil, err
	}
	if err := m.checkFeatures(features); err != nil {
		return nil, err
	}

	bins := m.discretizer.Transform(features)
	if !oneHot {
		values := make([]float64, n)
		for i := 0; i < n; i++ {
			values[i] = float64(m.trees[i].Index(bins))
		}
		return linalg.NewDense(values).Compressed(), nil
	}

	total := 0
	hot := bit.New()
	for i := 0; i < n; i++ {
		// step偏移保证(树,叶子)对全局唯一
		hot.Add(total + m.trees[i].Index(bins))
		total += m.numLeaves[i]
	}
	indices := make([]int, 0, n)
	hot.Visit(func(idx int) bool {
		indices = append(indices, idx)
		return false
	})
	values := make([]float64, len(indices))
	for i := range values {
		values[i] = 1.0
	}
	return linalg.NewSparse(total, indices, values), nil
}

// Leaf 全部树的叶子序号向量
func (m *GBMModel) Leaf(features []float64) (linalg.Vector, error) {
	return m.LeafFirst(features, false, gbm_config.AllTrees)
}

// LeafEncoded 全部树的叶子编码，oneHot控制编码方式
func (m *GBMModel) LeafEncoded(features []float64, oneHot bool) (linalg.Vector, error) {
	return m.LeafFirst(features, oneHot, gbm_config.AllTrees)
}

// ComputeImportanceFirst 前firstTrees棵树上各特征列划分增益的累加，归一化到和为1
// firstTrees为0时不碰任何树，直接给全零
// 全部增益都是0时归一化会除0，这里约定返回全零向量
func (m *GBMModel) ComputeImportanceFirst(firstTrees int) (linalg.Vector, error) {
	n, err := m.resolveFirstTrees(firstTrees)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return linalg.NewSparse(m.NumCols(), nil, nil), nil
	}

	acc := make(map[int]float64)
	for i := 0; i < n; i++ {
		for col, gain := range m.trees[i].ComputeImportance() {
			acc[col] += gain
		}
	}
	total := 0.0
	for _, v := range acc {
		total += v
	}
	if total == 0 {
		return linalg.NewSparse(m.NumCols(), nil, nil), nil
	}

	cols := maps.Keys(acc)
	slices.Sort(cols)
	values := make([]float64, len(cols))
	for i, col := range cols {
		values[i] = acc[col] / total
	}
	return linalg.NewSparse(m.NumCols(), cols, values), nil
}

// ComputeImportance 全部树的特征重要度，只算一次
func (m *GBMModel) ComputeImportance() linalg.Vector {
	m.importanceOnce.Do(func() {
		v, err := m.ComputeImportanceFirst(gbm_config.AllTrees)
		if err != nil {
			// -1对任何模型都合法，到不了这里
			panic(err)
		}
		m.importanceAll = v
	})
	return m.importanceAll
}
