package objective

import (
	"math"

	"github.com/newsky/SparkGBM/gbm_config"
)

func init() {
	Register(gbm_config.ObjIdentity, func(params map[string]interface{}) (ObjFunc, error) {
		return &identityObj{}, nil
	})
	Register(gbm_config.ObjLogistic, func(params map[string]interface{}) (ObjFunc, error) {
		return &logisticObj{}, nil
	})
	Register(gbm_config.ObjSoftmax, func(params map[string]interface{}) (ObjFunc, error) {
		return &softmaxObj{}, nil
	})
	Register(gbm_config.ObjExpression, NewExpression)
}

// identityObj 回归用，原样返回
type identityObj struct{}

func (o *identityObj) Name() string {
	return gbm_config.ObjIdentity
}

func (o *identityObj) Transform(raw []float64) []float64 {
	out := make([]float64, len(raw))
	copy(out, raw)
	return out
}

func (o *identityObj) Params() map[string]interface{} {
	return nil
}

// logisticObj 二分类用，每个输出维度各自过sigmoid
type logisticObj struct{}

func (o *logisticObj) Name() string {
	return gbm_config.ObjLogistic
}

func (o *logisticObj) Transform(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = 1.0 / (1.0 + math.Exp(-v))
	}
	return out
}

func (o *logisticObj) Params() map[string]interface{} {
	return nil
}

// softmaxObj 多分类用，K个输出维度一起归一化
type softmaxObj struct{}

func (o *softmaxObj) Name() string {
	return gbm_config.ObjSoftmax
}

func (o *softmaxObj) Transform(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	// 减去最大值防止上溢
	max := raw[0]
	for _, v := range raw[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	for i, v := range raw {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func (o *softmaxObj) Params() map[string]interface{} {
	return nil
}
