package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/newsky/SparkGBM/utils"
)

// CsvStore 一张表存成目录下的一个csv文件，第一行是列名
type CsvStore struct {
	dir string
}

func NewCsvStore(dir string) (*CsvStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &CsvStore{dir: dir}, nil
}

func (s *CsvStore) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func (s *CsvStore) WriteTable(name string, t *Table) error {
	data := make([][]string, 0, len(t.Rows)+1)
	data = append(data, t.Columns)
	data = append(data, t.Rows...)
	return createCsv(s.path(name), data)
}

func (s *CsvStore) ReadTable(name string) (*Table, error) {
	data, err := getCsvData(s.path(name))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: table %s has no header", utils.ErrCorruptState, name)
	}
	return &Table{Columns: data[0], Rows: data[1:]}, nil
}

func getCsvData(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Println("opens a csv failed, err:", err)
		return nil, utils.ErrOpenCsv
	}
	defer f.Close()
	reader := csv.NewReader(f)
	// 不同表的行宽不一样，不做定宽校验
	reader.FieldsPerRecord = -1
	preData, err := reader.ReadAll()
	if err != nil {
		fmt.Println("read a csv failed, err:", err)
		return nil, utils.ErrReadCsv
	}
	return preData, nil
}

func createCsv(path string, data [][]string) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer csvFile.Close()
	csvWriter := csv.NewWriter(csvFile)
	err = csvWriter.WriteAll(data)
	if err != nil {
		fmt.Printf("error (%v)", err)
		return err
	}
	return nil
}
