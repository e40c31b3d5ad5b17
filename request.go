package main

// ModelRequest 只带模型名的请求
type ModelRequest struct {
	Model string `json:"model"`
}

// PredictRequest 预测请求，FirstTrees为nil时用全部树
type PredictRequest struct {
	Model      string    `json:"model"`
	Features   []float64 `json:"features"`
	FirstTrees *int      `json:"firstTrees"`
	// Raw为true时跳过objective变换
	Raw bool `json:"raw"`
}

// LeafRequest 叶子编码请求
type LeafRequest struct {
	Model      string    `json:"model"`
	Features   []float64 `json:"features"`
	OneHot     bool      `json:"oneHot"`
	FirstTrees *int      `json:"firstTrees"`
}

// ImportanceRequest 特征重要度请求
type ImportanceRequest struct {
	Model      string `json:"model"`
	FirstTrees *int   `json:"firstTrees"`
}

// VectorResponse 稀疏形式的向量结果
type VectorResponse struct {
	Len     int       `json:"len"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}
