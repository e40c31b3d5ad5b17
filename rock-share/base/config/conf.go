package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// All 全部配置索引
var All *AllConfig

var DefaultPath = "./config"
var DebugPath = "./base/config"

// InitConfig 初始化读取配置文件
func InitConfig() {
	// config.yml
	initConfig1()
	// config-objectives.yml
	initObjectivesConfig()
}

// initConfig1 读取主配置文件config.yml
func initConfig1() {
	v := viper.New()
	//默认配置文件所在目录
	defaultPath := DefaultPath

	v.AddConfigPath(defaultPath)
	v.SetConfigName("config")
	configType := "yml"
	v.SetConfigType(configType)

	// 读取配置
	if err := v.ReadInConfig(); err != nil {
		panic(err)
	}

	configs := v.AllSettings()

	// SetDefault使用：全部以默认配置写入
	for k, val := range configs {
		v.SetDefault(k, val)
	}

	//增量配置
	debugEnv := os.Getenv("DEBUG")
	// 根据配置的env读取相应的配置信息
	if debugEnv == "true" {
		fmt.Println("debugEnv DEBUG=true")
		newPath := DebugPath
		debug := "debug"
		newConfigPath := newPath + "/" + debug + ".yml"
		exists, _ := isExists(newConfigPath)

		if exists {
			fmt.Printf("%s exists\n", newConfigPath)
			v.AddConfigPath(newPath)
			v.SetConfigName(debug)
			v.SetConfigType(configType)
			if err := v.ReadInConfig(); err != nil {
				panic(err)
			}
		} else {
			fmt.Printf("%s not exists\n", newConfigPath)
		}
	}

	// 监控配置文件变化并热加载程序
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("Config file changed: %s", e.Name)
	})

	// 配置映射到结构体
	All = &AllConfig{}
	if err := v.Unmarshal(All); err != nil {
		panic(err)
	}

	if All.Storage.ModelDir == "" {
		All.Storage.ModelDir = "./models"
	}
	if All.Logger.MaxAge == 0 {
		All.Logger.MaxAge = 7
	}
	if All.Logger.RotationTime == 0 {
		All.Logger.RotationTime = 24
	}

	fmt.Printf("config file content:\n%+v\n", *All)
}

// AllConfig 全部配置文件
type AllConfig struct {
	Server  ServerConfig  `mapstructure:"server_config"`
	Logger  LoggerConfig  `mapstructure:"logger_config"`
	Etcd    EtcdConfig    `mapstructure:"etcd_config"`
	Storage StorageConfig `mapstructure:"storage_config"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	HttpPort  string `mapstructure:"http_port"`
	SentryDsn string `mapstructure:"sentry_dsn"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string        `mapstructure:"level"`
	Path         string        `mapstructure:"path"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
	RotationSize uint32        `mapstructure:"rotation_size"`
}

// EtcdConfig etcd配置，Endpoints为空时不做服务注册
type EtcdConfig struct {
	Endpoints           []string `mapstructure:"endpoints"`
	DialTimeout         int32    `mapstructure:"dial_timeout"`
	Username            string   `mapstructure:"username"`
	Password            string   `mapstructure:"password"`
	ServiceDiscoveryKey string   `mapstructure:"service_discovery_key"`
}

// StorageConfig 模型存储配置
type StorageConfig struct {
	ModelDir string `mapstructure:"model_dir"`
}

func isExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
