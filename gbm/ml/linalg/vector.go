/*
	简单的float64向量，稠密和稀疏两种表示
	叶子编码和特征重要度的结果都用这个，不引入大数值库
*/

package linalg

// Vector float64向量
type Vector interface {
	Len() int
	At(i int) float64
	// NonZeros 按下标升序遍历所有非零元素
	NonZeros(f func(i int, v float64))
	// Compressed 返回占用更小的一种表示
	Compressed() Vector
}

// DenseVector 稠密表示
type DenseVector struct {
	Values []float64
}

func NewDense(values []float64) *DenseVector {
	return &DenseVector{Values: values}
}

func (d *DenseVector) Len() int {
	return len(d.Values)
}

func (d *DenseVector) At(i int) float64 {
	return d.Values[i]
}

func (d *DenseVector) NonZeros(f func(i int, v float64)) {
	for i, v := range d.Values {
		if v != 0 {
			f(i, v)
		}
	}
}

func (d *DenseVector) Compressed() Vector {
	nnz := 0
	for _, v := range d.Values {
		if v != 0 {
			nnz++
		}
	}
	// 稀疏表示每个非零元素要存下标和值两份
	if nnz*2 < len(d.Values) {
		indices := make([]int, 0, nnz)
		values := make([]float64, 0, nnz)
		for i, v := range d.Values {
			if v != 0 {
				indices = append(indices, i)
				values = append(values, v)
			}
		}
		return &SparseVector{N: len(d.Values), Indices: indices, Values: values}
	}
	return d
}

// SparseVector 稀疏表示，Indices升序且不重复
type SparseVector struct {
	N       int
	Indices []int
	Values  []float64
}

func NewSparse(n int, indices []int, values []float64) *SparseVector {
	return &SparseVector{N: n, Indices: indices, Values: values}
}

func (s *SparseVector) Len() int {
	return s.N
}

func (s *SparseVector) At(i int) float64 {
	// 下标不多，线性找就够了
	for k, idx := range s.Indices {
		if idx == i {
			return s.Values[k]
		}
		if idx > i {
			break
		}
	}
	return 0
}

func (s *SparseVector) NonZeros(f func(i int, v float64)) {
	for k, idx := range s.Indices {
		if s.Values[k] != 0 {
			f(idx, s.Values[k])
		}
	}
}

func (s *SparseVector) Compressed() Vector {
	return s
}

func (s *SparseVector) NumNonZeros() int {
	nnz := 0
	for _, v := range s.Values {
		if v != 0 {
			nnz++
		}
	}
	return nnz
}
