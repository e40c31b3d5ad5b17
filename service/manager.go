/*
	已加载模型的管理，按名字索引
	加载走存储层，csv目录和sqlite单文件两种来源
*/

package service

import (
	"fmt"
	"path/filepath"
	"strings"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/newsky/SparkGBM/gbm"
	"github.com/newsky/SparkGBM/rock-share/base/logger"
	"github.com/newsky/SparkGBM/utils"
)

// ModelManager 名字到已加载模型的并发映射
type ModelManager struct {
	modelDir string
	models   cmap.ConcurrentMap
}

func NewModelManager(modelDir string) *ModelManager {
	return &ModelManager{
		modelDir: modelDir,
		models:   cmap.New(),
	}
}

// Load 从modelDir下加载名为name的模型并登记
// name以.db结尾时按sqlite单文件加载，否则按csv目录加载
func (mm *ModelManager) Load(name string) (*gbm.GBMModel, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: bad model name %q", utils.ErrInvalidArgument, name)
	}

	path := filepath.Join(mm.modelDir, name)
	var m *gbm.GBMModel
	var err error
	if strings.HasSuffix(name, ".db") {
		m, err = gbm.LoadModelDB(path)
	} else {
		m, err = gbm.LoadModel(path)
	}
	if err != nil {
		return nil, err
	}

	mm.models.Set(name, m)
	logger.Infof("model %s loaded: %d trees, %d outputs", name, m.NumTrees(), m.NumOutputs())
	return m, nil
}

// Get 取已加载的模型
func (mm *ModelManager) Get(name string) (*gbm.GBMModel, error) {
	v, ok := mm.models.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: model %s not loaded", utils.ErrInvalidArgument, name)
	}
	return v.(*gbm.GBMModel), nil
}

// Unload 丢掉一个已加载的模型
func (mm *ModelManager) Unload(name string) bool {
	if !mm.models.Has(name) {
		return false
	}
	mm.models.Remove(name)
	logger.Infof("model %s unloaded", name)
	return true
}

// Names 全部已加载模型的名字
func (mm *ModelManager) Names() []string {
	return mm.models.Keys()
}
