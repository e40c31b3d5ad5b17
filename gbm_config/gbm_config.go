package gbm_config

const GinPort = "19124"

// 模型持久化的五张逻辑表的表名，保存和加载时按固定顺序读写
const (
	ObjTable              = "obj"
	DiscretizerColsTable  = "discretizerCols"
	DiscretizerExtraTable = "discretizerExtra"
	TreesTable            = "trees"
	ExtraTable            = "extra"
)

// extra表中的key
const (
	WeightsKey = "weights"
	RawBaseKey = "rawBase"
)

// 离散化器中列的类型
const (
	NumericCol     = "numeric"
	CategoricalCol = "categorical"
)

// 内置objective的名字
const (
	ObjIdentity   = "identity"
	ObjLogistic   = "logistic"
	ObjSoftmax    = "softmax"
	ObjExpression = "expression"
)

// 离散化器extra表中的key
const (
	NumColsKey = "numCols"
	VersionKey = "version"
)

// DiscretizerVersion 离散化表布局的版本号
const DiscretizerVersion = "1"

// AllTrees 查询时表示使用全部的树
const AllTrees = -1

// BoundsSep extra表和离散化表中float序列的分隔符
const BoundsSep = " "
