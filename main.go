package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newsky/SparkGBM/gbm/ml/linalg"
	"github.com/newsky/SparkGBM/gbm/ml/objective"
	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/rock-share/base/config"
	"github.com/newsky/SparkGBM/rock-share/base/logger"
	"github.com/newsky/SparkGBM/service"
)

var manager *service.ModelManager

func main() {
	// 一些初始化配置
	config.InitConfig()
	all := config.All
	l := all.Logger
	ss := all.Server
	logger.InitLogger(l.Level, "sparkgbm", l.Path, l.MaxAge, l.RotationTime, l.RotationSize, ss.SentryDsn)

	for _, preset := range config.AllObjectivePresets {
		if err := objective.RegisterPreset(preset.Name, preset.Expression); err != nil {
			logger.Errorf("register objective %s failed: %v", preset.Name, err)
		}
	}

	manager = service.NewModelManager(all.Storage.ModelDir)

	port := ss.HttpPort
	if port == "" {
		port = gbm_config.GinPort
	}

	if len(all.Etcd.Endpoints) > 0 {
		registerService(all.Etcd, port)
	}

	r := gin.Default()

	r.POST("/gbm/load", load)
	r.POST("/gbm/unload", unload)
	r.GET("/gbm/models", listModels)
	r.POST("/gbm/predict", predict)
	r.POST("/gbm/leaf", leaf)
	r.POST("/gbm/importance", importance)
	r.GET("/gbm/summary/:model", summary)

	r.Run(":" + port)
}

// registerService 往etcd登记本实例，etcd不可用时降级成纯本地服务
func registerService(ec config.EtcdConfig, port string) {
	etcd, err := service.NewEtcd(ec.Endpoints, time.Duration(ec.DialTimeout)*time.Second, ec.Username, ec.Password)
	if err != nil {
		logger.Errorf("etcd connection failed, running without registration: %v", err)
		return
	}
	key := strings.TrimSuffix(ec.ServiceDiscoveryKey, "/") + "/" + port
	if err := etcd.Register(context.Background(), key, ":"+port); err != nil {
		logger.Errorf("etcd registration failed: %v", err)
	}
}

func load(c *gin.Context) {
	var req ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := manager.Load(req.Model)
	if err != nil {
		logger.Errorf("load model %s failed: %v", req.Model, err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"numTrees":   m.NumTrees(),
		"numOutputs": m.NumOutputs(),
		"numCols":    m.NumCols(),
	})
}

func unload(c *gin.Context) {
	var req ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": manager.Unload(req.Model)})
}

func listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "models": manager.Names()})
}

func predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := manager.Get(req.Model)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	var result []float64
	if req.Raw {
		result, err = m.PredictRawFirst(req.Features, firstTrees(req.FirstTrees))
	} else {
		result, err = m.PredictFirst(req.Features, firstTrees(req.FirstTrees))
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "prediction": result})
}

func leaf(c *gin.Context) {
	var req LeafRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := manager.Get(req.Model)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	v, err := m.LeafFirst(req.Features, req.OneHot, firstTrees(req.FirstTrees))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "leaf": toVectorResponse(v)})
}

func importance(c *gin.Context) {
	var req ImportanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := manager.Get(req.Model)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	v, err := m.ComputeImportanceFirst(firstTrees(req.FirstTrees))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "importance": toVectorResponse(v)})
}

func summary(c *gin.Context) {
	m, err := manager.Get(c.Param("model"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	var sb strings.Builder
	m.RenderSummary(&sb)
	c.String(http.StatusOK, sb.String())
}

func firstTrees(n *int) int {
	if n == nil {
		return gbm_config.AllTrees
	}
	return *n
}

func toVectorResponse(v linalg.Vector) VectorResponse {
	resp := VectorResponse{Len: v.Len(), Indices: []int{}, Values: []float64{}}
	v.NonZeros(func(i int, value float64) {
		resp.Indices = append(resp.Indices, i)
		resp.Values = append(resp.Values, value)
	})
	return resp
}
