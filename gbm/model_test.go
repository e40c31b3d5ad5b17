package gbm

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/newsky/SparkGBM/gbm/ml/discretize"
	"github.com/newsky/SparkGBM/gbm/ml/linalg"
	"github.com/newsky/SparkGBM/gbm/ml/objective"
	"github.com/newsky/SparkGBM/gbm/ml/tree"
	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/utils"
)

// constTree 不管输入是什么都返回v的树
func constTree(v float64) *tree.Tree {
	t := tree.NewTreeWithCap(1)
	t.AddNode(-1, true, true, 0, 0, 0, v)
	t.Finalize()
	return t
}

// stumpTree 一层的树: bins[0] <= 0 ? 5 : 6，划分增益为gain
func stumpTree(gain float64) *tree.Tree {
	t := tree.NewTreeWithCap(3)
	root := t.AddNode(-1, true, false, 0, 0, gain, 0)
	t.AddNode(root, true, true, 0, 0, 0, 5)
	t.AddNode(root, false, true, 0, 0, 0, 6)
	t.Finalize()
	return t
}

// deepTree 三个叶子: bins[0] <= 0 ? 7 : (bins[1] <= 0 ? 8 : 9)
func deepTree() *tree.Tree {
	t := tree.NewTreeWithCap(5)
	root := t.AddNode(-1, true, false, 0, 0, 2.0, 0)
	t.AddNode(root, true, true, 0, 0, 0, 7)
	inner := t.AddNode(root, false, false, 1, 0, 1.0, 0)
	t.AddNode(inner, true, true, 0, 0, 0, 8)
	t.AddNode(inner, false, true, 0, 0, 0, 9)
	t.Finalize()
	return t
}

// testDisc 每列都是上界{0.5, 1.5}的数值列，三个桶
func testDisc(numCols int) *discretize.Discretizer {
	cols := make([]discretize.ColumnBins, numCols)
	for i := range cols {
		cols[i] = discretize.ColumnBins{Col: i, Kind: gbm_config.NumericCol, Bounds: []float64{0.5, 1.5}}
	}
	d, err := discretize.NewDiscretizer(cols)
	if err != nil {
		panic(err)
	}
	return d
}

func identityObj() objective.ObjFunc {
	obj, err := objective.New(gbm_config.ObjIdentity, nil)
	if err != nil {
		panic(err)
	}
	return obj
}

func TestNewGBMModelInvariants(t *testing.T) {
	Convey("构造时的不变量检查", t, func() {
		obj := identityObj()
		disc := testDisc(1)
		trees := []*tree.Tree{constTree(1), constTree(2)}

		Convey("合法模型", func() {
			m, err := NewGBMModel(obj, disc, []float64{0.5}, trees, []float64{1, 1})
			So(err, ShouldBeNil)
			So(m.NumTrees(), ShouldEqual, 2)
			So(m.NumOutputs(), ShouldEqual, 1)
			So(m.NumCols(), ShouldEqual, 1)
			So(m.BaseScore(), ShouldResemble, []float64{0.5})
			So(m.NumLeaves(), ShouldResemble, []int{1, 1})
		})

		Convey("rawBase为空", func() {
			_, err := NewGBMModel(obj, disc, nil, trees, []float64{1, 1})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("rawBase有NaN", func() {
			_, err := NewGBMModel(obj, disc, []float64{math.NaN()}, trees, []float64{1, 1})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("rawBase有Inf", func() {
			_, err := NewGBMModel(obj, disc, []float64{math.Inf(1)}, trees, []float64{1, 1})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("weights长度对不上", func() {
			_, err := NewGBMModel(obj, disc, []float64{0}, trees, []float64{1})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("weights有NaN", func() {
			_, err := NewGBMModel(obj, disc, []float64{0}, trees, []float64{1, math.NaN()})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("树的数目不是K的整数倍", func() {
			_, err := NewGBMModel(obj, disc, []float64{0, 1, 2}, trees, []float64{1, 1})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestPredictRawScenario(t *testing.T) {
	Convey("两棵常数树的部分前缀预测", t, func() {
		m, err := NewGBMModel(identityObj(), testDisc(1), []float64{0},
			[]*tree.Tree{constTree(2), constTree(3)}, []float64{1, 1})
		So(err, ShouldBeNil)
		x := []float64{0.7}

		raw, err := m.PredictRawFirst(x, gbm_config.AllTrees)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{5})

		raw, err = m.PredictRawFirst(x, 2)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{5})

		raw, err = m.PredictRawFirst(x, 1)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{2})

		raw, err = m.PredictRawFirst(x, 0)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{0})

		Convey("identity时Predict就是raw score", func() {
			pred, err := m.Predict(x)
			So(err, ShouldBeNil)
			So(pred, ShouldResemble, []float64{5})
		})

		Convey("firstTrees越界", func() {
			_, err := m.PredictRawFirst(x, 3)
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
			_, err = m.PredictRawFirst(x, -2)
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("特征长度对不上", func() {
			_, err := m.PredictRaw([]float64{1, 2})
			So(errors.Is(err, utils.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestRoundRobinOutputs(t *testing.T) {
	Convey("K=2时树按下标轮流落在两个输出槽上", t, func() {
		m, err := NewGBMModel(identityObj(), testDisc(1), []float64{0, 0},
			[]*tree.Tree{constTree(1), constTree(2), constTree(3), constTree(4)},
			[]float64{1, 1, 1, 1})
		So(err, ShouldBeNil)
		x := []float64{0}

		raw, err := m.PredictRaw(x)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{4, 6})

		// 前缀只影响自己覆盖到的槽
		raw, err = m.PredictRawFirst(x, 2)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{1, 2})

		raw, err = m.PredictRawFirst(x, 3)
		So(err, ShouldBeNil)
		So(raw, ShouldResemble, []float64{4, 2})

		Convey("权重跟着树走", func() {
			m2, err := NewGBMModel(identityObj(), testDisc(1), []float64{10, 20},
				[]*tree.Tree{constTree(1), constTree(2)}, []float64{0.5, 2})
			So(err, ShouldBeNil)
			raw, err := m2.PredictRaw(x)
			So(err, ShouldBeNil)
			So(raw, ShouldResemble, []float64{10.5, 24})
		})
	})
}

func TestLeafEncoding(t *testing.T) {
	Convey("叶子编码", t, func() {
		// tA两个叶子，tB三个叶子
		tA := stumpTree(1)
		tB := deepTree()
		m, err := NewGBMModel(identityObj(), testDisc(2), []float64{0},
			[]*tree.Tree{tA, tB}, []float64{1, 1})
		So(err, ShouldBeNil)
		x := []float64{2.0, 0.0} // bins = [2, 0]

		Convey("稠密模式给每棵树的叶子序号", func() {
			v, err := m.Leaf(x)
			So(err, ShouldBeNil)
			So(v.Len(), ShouldEqual, 2)
			So(v.At(0), ShouldEqual, 1) // tA走右叶子
			So(v.At(1), ShouldEqual, 1) // tB走右子树的左叶子
		})

		Convey("one-hot模式带累计偏移", func() {
			v, err := m.LeafEncoded(x, true)
			So(err, ShouldBeNil)
			So(v.Len(), ShouldEqual, 5) // 2 + 3

			sparse, ok := v.(*linalg.SparseVector)
			So(ok, ShouldBeTrue)
			So(sparse.NumNonZeros(), ShouldEqual, 2)
			So(sparse.Indices, ShouldResemble, []int{1, 3}) // 0+1 和 2+1
			So(sparse.Values, ShouldResemble, []float64{1, 1})
		})

		Convey("前缀只编码前n棵树", func() {
			v, err := m.LeafFirst(x, true, 1)
			So(err, ShouldBeNil)
			So(v.Len(), ShouldEqual, 2)
			sparse := v.(*linalg.SparseVector)
			So(sparse.Indices, ShouldResemble, []int{1})
		})

		Convey("n=0时是空向量", func() {
			v, err := m.LeafFirst(x, true, 0)
			So(err, ShouldBeNil)
			So(v.Len(), ShouldEqual, 0)
		})
	})
}

func TestImportance(t *testing.T) {
	Convey("特征重要度", t, func() {
		Convey("firstTrees为0时直接回全零", func() {
			m, err := NewGBMModel(identityObj(), testDisc(3), []float64{0},
				[]*tree.Tree{constTree(1)}, []float64{1})
			So(err, ShouldBeNil)
			v, err := m.ComputeImportanceFirst(0)
			So(err, ShouldBeNil)
			So(v.Len(), ShouldEqual, 3)
			sparse := v.(*linalg.SparseVector)
			So(sparse.NumNonZeros(), ShouldEqual, 0)
		})

		Convey("全是常数树时总增益为0，约定回全零", func() {
			m, err := NewGBMModel(identityObj(), testDisc(2), []float64{0},
				[]*tree.Tree{constTree(1), constTree(2)}, []float64{1, 1})
			So(err, ShouldBeNil)
			v, err := m.ComputeImportanceFirst(gbm_config.AllTrees)
			So(err, ShouldBeNil)
			So(v.(*linalg.SparseVector).NumNonZeros(), ShouldEqual, 0)
		})

		Convey("增益按列累加并归一化", func() {
			// stump给列0贡献1，deep给列0贡献2、列1贡献1
			m, err := NewGBMModel(identityObj(), testDisc(2), []float64{0},
				[]*tree.Tree{stumpTree(1), deepTree()}, []float64{1, 1})
			So(err, ShouldBeNil)

			v, err := m.ComputeImportanceFirst(gbm_config.AllTrees)
			So(err, ShouldBeNil)
			So(v.Len(), ShouldEqual, 2)
			So(v.At(0), ShouldAlmostEqual, 0.75)
			So(v.At(1), ShouldAlmostEqual, 0.25)

			Convey("前缀只看前n棵树", func() {
				v, err := m.ComputeImportanceFirst(1)
				So(err, ShouldBeNil)
				So(v.At(0), ShouldAlmostEqual, 1.0)
				So(v.At(1), ShouldEqual, 0)
			})

			Convey("全量结果memoize之后保持一致", func() {
				all := m.ComputeImportance()
				So(all.At(0), ShouldAlmostEqual, 0.75)
				So(m.ComputeImportance(), ShouldEqual, all)
			})
		})
	})
}
