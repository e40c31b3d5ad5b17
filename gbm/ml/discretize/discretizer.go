/*
	特征离散化器：把原始特征值映射成bin下标
	数值列存排好序的分桶上界，落在第一个 value <= bound 的桶里，超出全部上界的进最后一个桶
	枚举列存排好序的取值全集，bin下标就是取值在全集中的位置，没见过的值进0号桶
	分桶边界怎么学出来不在这里，这里只做应用和存取
*/

package discretize

import (
	"fmt"
	"math"
	"sort"

	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/utils"
)

// ColumnBins 一列的分桶定义
type ColumnBins struct {
	Col    int       // Col 特征列号
	Kind   string    // Kind 列类型，numeric或categorical
	Bounds []float64 // Bounds 升序；数值列是分桶上界，枚举列是取值全集
}

// NumBins 该列的桶数
func (c *ColumnBins) NumBins() int {
	if c.Kind == gbm_config.CategoricalCol {
		return len(c.Bounds)
	}
	// 全部上界之外还有一个溢出桶
	return len(c.Bounds) + 1
}

// Discretizer 全部列的分桶定义，构造之后不可变
type Discretizer struct {
	cols []ColumnBins
}

// NewDiscretizer cols必须按列号0..n-1给全
func NewDiscretizer(cols []ColumnBins) (*Discretizer, error) {
	for i, c := range cols {
		if c.Col != i {
			return nil, fmt.Errorf("%w: column bins out of order, got col %d at position %d", utils.ErrInvalidArgument, c.Col, i)
		}
		if !sort.Float64sAreSorted(c.Bounds) {
			return nil, fmt.Errorf("%w: bounds of col %d not sorted", utils.ErrInvalidArgument, c.Col)
		}
		if c.Kind != gbm_config.NumericCol && c.Kind != gbm_config.CategoricalCol {
			return nil, fmt.Errorf("%w: unknown column kind %q", utils.ErrInvalidArgument, c.Kind)
		}
	}
	return &Discretizer{cols: cols}, nil
}

func (d *Discretizer) NumCols() int {
	return len((*d).cols)
}

// Transform 把一条原始特征向量转成bin下标，长度必须等于NumCols
func (d *Discretizer) Transform(features []float64) []int {
	bins := make([]int, len(features))
	for i, v := range features {
		bins[i] = d.binOf(i, v)
	}
	return bins
}

func (d *Discretizer) binOf(col int, v float64) int {
	c := &d.cols[col]
	if math.IsNaN(v) {
		// 缺失值统一进0号桶
		return 0
	}
	if c.Kind == gbm_config.CategoricalCol {
		k := sort.SearchFloat64s(c.Bounds, v)
		if k < len(c.Bounds) && c.Bounds[k] == v {
			return k
		}
		return 0
	}
	// 第一个 v <= bound 的位置
	return sort.SearchFloat64s(c.Bounds, v)
}

// Columns 返回各列的分桶定义，调用方不要改
func (d *Discretizer) Columns() []ColumnBins {
	return (*d).cols
}
