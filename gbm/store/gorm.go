package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/newsky/SparkGBM/utils"
)

// GormStore 用一个sqlite库存全部逻辑表，行内容JSON编码
type GormStore struct {
	db *gorm.DB
}

// tableMetaPO 逻辑表的列名
type tableMetaPO struct {
	Name        string `gorm:"primaryKey"`
	ColumnsJson string
}

func (tableMetaPO) TableName() string {
	return "gbm_table_meta"
}

// tableRowPO 逻辑表的一行
type tableRowPO struct {
	Id        uint   `gorm:"primaryKey;autoIncrement"`
	TableKey  string `gorm:"index"`
	RowIdx    int
	CellsJson string
}

func (tableRowPO) TableName() string {
	return "gbm_table_row"
}

func NewGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tableMetaPO{}, &tableRowPO{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) WriteTable(name string, t *Table) error {
	columnsJson, err := json.Marshal(t.Columns)
	if err != nil {
		return err
	}
	rows := make([]tableRowPO, 0, len(t.Rows))
	for i, cells := range t.Rows {
		cellsJson, err := json.Marshal(cells)
		if err != nil {
			return err
		}
		rows = append(rows, tableRowPO{TableKey: name, RowIdx: i, CellsJson: string(cellsJson)})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// 重复保存时整表覆盖
		if err := tx.Where("table_key = ?", name).Delete(&tableRowPO{}).Error; err != nil {
			return err
		}
		meta := tableMetaPO{Name: name, ColumnsJson: string(columnsJson)}
		if err := tx.Save(&meta).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

func (s *GormStore) ReadTable(name string) (*Table, error) {
	var meta tableMetaPO
	if err := s.db.First(&meta, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: table %s not found", utils.ErrCorruptState, name)
		}
		return nil, err
	}
	var columns []string
	if err := json.Unmarshal([]byte(meta.ColumnsJson), &columns); err != nil {
		return nil, fmt.Errorf("%w: bad columns of table %s: %v", utils.ErrCorruptState, name, err)
	}

	var rowPOs []tableRowPO
	if err := s.db.Where("table_key = ?", name).Order("row_idx").Find(&rowPOs).Error; err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(rowPOs))
	for _, po := range rowPOs {
		var cells []string
		if err := json.Unmarshal([]byte(po.CellsJson), &cells); err != nil {
			return nil, fmt.Errorf("%w: bad row %d of table %s: %v", utils.ErrCorruptState, po.RowIdx, name, err)
		}
		rows = append(rows, cells)
	}
	return &Table{Columns: columns, Rows: rows}, nil
}
