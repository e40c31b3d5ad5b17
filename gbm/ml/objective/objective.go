/*
	objective：把raw score变换成最终预测
	按名字注册工厂，序列化成 {name, params} 的json串，
	反序列化时按名字分发到对应工厂，不依赖任何通用对象序列化机制
	梯度计算不在这里，推理侧只有Transform
*/

package objective

import (
	"encoding/json"
	"fmt"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/newsky/SparkGBM/utils"
)

// ObjFunc 输出变换，构造之后不可变，Transform必须返回新的切片
type ObjFunc interface {
	Name() string
	Transform(raw []float64) []float64
	// Params 序列化时要带上的参数，没有参数返回nil
	Params() map[string]interface{}
}

// Factory 按参数构造一个ObjFunc
type Factory func(params map[string]interface{}) (ObjFunc, error)

// registry name -> Factory，服务启动时也会注册表达式预设，所以要并发安全
var registry = cmap.New()

// Register 注册一个objective工厂，重名覆盖
func Register(name string, factory Factory) {
	registry.Set(name, factory)
}

// Has 名字是否已注册
func Has(name string) bool {
	return registry.Has(name)
}

// New 按名字和参数构造
func New(name string, params map[string]interface{}) (ObjFunc, error) {
	v, has := registry.Get(name)
	if !has {
		return nil, fmt.Errorf("%w: unknown objective %q", utils.ErrDeserialization, name)
	}
	obj, err := v.(Factory)(params)
	if err != nil {
		return nil, fmt.Errorf("%w: build objective %q: %v", utils.ErrDeserialization, name, err)
	}
	return obj, nil
}

// blobForm objective的持久化形式
type blobForm struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Marshal 序列化成不透明字节串
func Marshal(obj ObjFunc) ([]byte, error) {
	return json.Marshal(blobForm{Name: obj.Name(), Params: obj.Params()})
}

// Unmarshal 从字节串还原，未注册的名字或者参数非法都算反序列化失败
func Unmarshal(blob []byte) (ObjFunc, error) {
	parsed := blobForm{}
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("%w: bad objective blob: %v", utils.ErrDeserialization, err)
	}
	if parsed.Name == "" {
		return nil, fmt.Errorf("%w: objective blob has no name", utils.ErrDeserialization)
	}
	return New(parsed.Name, parsed.Params)
}
