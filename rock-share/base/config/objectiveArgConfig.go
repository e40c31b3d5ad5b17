package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// AllObjectivePresets 表达式objective预设，服务启动时统一注册
var AllObjectivePresets []ObjectivePreset

// ObjectivePreset 一个命名的表达式objective，Expression中x为单个raw score
type ObjectivePreset struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

type objectivesFile struct {
	Objectives []ObjectivePreset `yaml:"objectives"`
}

// initObjectivesConfig 读取config-objectives.yml，文件不存在时跳过
func initObjectivesConfig() {
	p := path.Join(DefaultPath, "config-objectives.yml")
	exists, _ := isExists(p)
	if !exists {
		fmt.Printf("%s not exists, skip objective presets\n", p)
		return
	}

	data, err := os.ReadFile(p)
	if err != nil {
		panic(err)
	}
	parsed := &objectivesFile{}
	if err := yaml.Unmarshal(data, parsed); err != nil {
		panic(err)
	}
	AllObjectivePresets = parsed.Objectives
	fmt.Printf("objective presets: %d\n", len(AllObjectivePresets))
}
