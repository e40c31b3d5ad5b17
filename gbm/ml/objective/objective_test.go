package objective

import (
	"errors"
	"math"
	"testing"

	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/utils"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestBuiltinTransforms(t *testing.T) {
	identity, err := New(gbm_config.ObjIdentity, nil)
	if err != nil {
		t.Fatal(err)
	}
	raw := []float64{1.5, -2.0}
	out := identity.Transform(raw)
	if out[0] != 1.5 || out[1] != -2.0 {
		t.Fatalf("identity: got %v", out)
	}
	out[0] = 99
	if raw[0] != 1.5 {
		t.Fatal("identity must not alias the input")
	}

	logistic, err := New(gbm_config.ObjLogistic, nil)
	if err != nil {
		t.Fatal(err)
	}
	out = logistic.Transform([]float64{0})
	if !almostEqual(out[0], 0.5) {
		t.Fatalf("logistic(0): got %v", out[0])
	}

	softmax, err := New(gbm_config.ObjSoftmax, nil)
	if err != nil {
		t.Fatal(err)
	}
	out = softmax.Transform([]float64{1, 1, 1})
	sum := 0.0
	for _, v := range out {
		if !almostEqual(v, 1.0/3.0) {
			t.Fatalf("softmax uniform: got %v", out)
		}
		sum += v
	}
	if !almostEqual(sum, 1.0) {
		t.Fatalf("softmax sum: got %v", sum)
	}
}

func TestExpressionObjective(t *testing.T) {
	obj, err := New(gbm_config.ObjExpression, map[string]interface{}{"expr": "1/(1+exp(-x))"})
	if err != nil {
		t.Fatal(err)
	}
	out := obj.Transform([]float64{0, 100})
	if !almostEqual(out[0], 0.5) {
		t.Fatalf("expr sigmoid(0): got %v", out[0])
	}
	if out[1] < 0.999 {
		t.Fatalf("expr sigmoid(100): got %v", out[1])
	}

	if _, err := New(gbm_config.ObjExpression, nil); !errors.Is(err, utils.ErrDeserialization) {
		t.Fatalf("missing expr: got %v", err)
	}
	if _, err := New(gbm_config.ObjExpression, map[string]interface{}{"expr": "1+("}); !errors.Is(err, utils.ErrDeserialization) {
		t.Fatalf("bad expr: got %v", err)
	}
}

func TestRegisterPreset(t *testing.T) {
	if err := RegisterPreset("halved", "x/2"); err != nil {
		t.Fatal(err)
	}
	obj, err := New("halved", nil)
	if err != nil {
		t.Fatal(err)
	}
	out := obj.Transform([]float64{3})
	if !almostEqual(out[0], 1.5) {
		t.Fatalf("preset: got %v", out[0])
	}

	if err := RegisterPreset("broken", "(("); err == nil {
		t.Fatal("broken preset must fail at registration")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	obj, err := New(gbm_config.ObjExpression, map[string]interface{}{"expr": "x*2"})
	if err != nil {
		t.Fatal(err)
	}
	blob, err := Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Unmarshal(blob)
	if err != nil {
		t.Fatal(err)
	}
	out := restored.Transform([]float64{2})
	if !almostEqual(out[0], 4) {
		t.Fatalf("restored expr: got %v", out[0])
	}

	logistic, _ := New(gbm_config.ObjLogistic, nil)
	blob, err = Marshal(logistic)
	if err != nil {
		t.Fatal(err)
	}
	restored, err = Unmarshal(blob)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Name() != gbm_config.ObjLogistic {
		t.Fatalf("restored name: got %s", restored.Name())
	}
}

func TestUnmarshalFailure(t *testing.T) {
	if _, err := Unmarshal([]byte("{ not json")); !errors.Is(err, utils.ErrDeserialization) {
		t.Fatalf("bad json: got %v", err)
	}
	if _, err := Unmarshal([]byte(`{"name":"no-such-objective"}`)); !errors.Is(err, utils.ErrDeserialization) {
		t.Fatalf("unknown name: got %v", err)
	}
	if _, err := Unmarshal([]byte(`{}`)); !errors.Is(err, utils.ErrDeserialization) {
		t.Fatalf("empty blob: got %v", err)
	}
}
