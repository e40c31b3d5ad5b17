package objective

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/rock-share/base/logger"
)

// exprFunctions 表达式里可以用的函数
var exprFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("exp wants 1 arg")
		}
		return math.Exp(args[0].(float64)), nil
	},
	"log": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("log wants 1 arg")
		}
		return math.Log(args[0].(float64)), nil
	},
	"sqrt": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("sqrt wants 1 arg")
		}
		return math.Sqrt(args[0].(float64)), nil
	},
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs wants 1 arg")
		}
		return math.Abs(args[0].(float64)), nil
	},
	"tanh": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("tanh wants 1 arg")
		}
		return math.Tanh(args[0].(float64)), nil
	},
}

// expressionObj 用govaluate表达式对每个raw score做变换，x是当前维度的raw score
type expressionObj struct {
	exprStr string
	expr    *govaluate.EvaluableExpression
}

// NewExpression params里要有expr，比如 {"expr": "1/(1+exp(-x))"}
func NewExpression(params map[string]interface{}) (ObjFunc, error) {
	exprStr, _ := params["expr"].(string)
	if exprStr == "" {
		return nil, fmt.Errorf("expression objective wants a non-empty expr param")
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, exprFunctions)
	if err != nil {
		return nil, fmt.Errorf("parse expr %q: %v", exprStr, err)
	}
	return &expressionObj{exprStr: exprStr, expr: expr}, nil
}

func (o *expressionObj) Name() string {
	return gbm_config.ObjExpression
}

func (o *expressionObj) Transform(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		result, err := o.expr.Evaluate(map[string]interface{}{"x": v})
		if err != nil {
			logger.Warnf("evaluate objective expr %q on %v failed: %v", o.exprStr, v, err)
			out[i] = math.NaN()
			continue
		}
		f, ok := result.(float64)
		if !ok {
			logger.Warnf("objective expr %q returned non-number %v", o.exprStr, result)
			out[i] = math.NaN()
			continue
		}
		out[i] = f
	}
	return out
}

func (o *expressionObj) Params() map[string]interface{} {
	return map[string]interface{}{"expr": o.exprStr}
}

// RegisterPreset 把一个命名表达式注册成独立的objective名字
func RegisterPreset(name, exprStr string) error {
	// 先试着编译一遍，坏表达式在启动时就暴露
	if _, err := NewExpression(map[string]interface{}{"expr": exprStr}); err != nil {
		return err
	}
	Register(name, func(params map[string]interface{}) (ObjFunc, error) {
		return NewExpression(map[string]interface{}{"expr": exprStr})
	})
	return nil
}
