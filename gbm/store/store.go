/*
	模型持久化用到的"命名表"抽象
	核心只约定逻辑表的布局，具体放哪(csv目录、sqlite库)由各个实现决定
*/

package store

// Table 一张逻辑表，单元格统一用字符串编码，类型转换在编解码层做
type Table struct {
	Columns []string
	Rows    [][]string
}

// TableStore 命名表的读写
// 同一个目标上的并发写不在这里管，交给底层存储
type TableStore interface {
	WriteTable(name string, t *Table) error
	ReadTable(name string) (*Table, error)
}
