package service

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/newsky/SparkGBM/gbm"
	"github.com/newsky/SparkGBM/gbm/ml/discretize"
	"github.com/newsky/SparkGBM/gbm/ml/objective"
	"github.com/newsky/SparkGBM/gbm/ml/tree"
	"github.com/newsky/SparkGBM/gbm_config"
	"github.com/newsky/SparkGBM/utils"
)

func saveTinyModel(t *testing.T, dir, name string) {
	t.Helper()
	leafTree := tree.NewTreeWithCap(1)
	leafTree.AddNode(-1, true, true, 0, 0, 0, 2)
	leafTree.Finalize()

	disc, err := discretize.NewDiscretizer([]discretize.ColumnBins{
		{Col: 0, Kind: gbm_config.NumericCol, Bounds: []float64{1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := objective.New(gbm_config.ObjIdentity, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := gbm.NewGBMModel(obj, disc, []float64{0}, []*tree.Tree{leafTree}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if err := gbm.SaveModel(m, filepath.Join(dir, name)); err != nil {
		t.Fatal(err)
	}
}

func TestManagerLoadGetUnload(t *testing.T) {
	dir := t.TempDir()
	saveTinyModel(t, dir, "tiny")
	mm := NewModelManager(dir)

	if _, err := mm.Get("tiny"); !errors.Is(err, utils.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument before load, got %v", err)
	}

	m, err := mm.Load("tiny")
	if err != nil {
		t.Fatal(err)
	}
	got, err := mm.Get("tiny")
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Fatal("Get should return the loaded instance")
	}
	if names := mm.Names(); len(names) != 1 || names[0] != "tiny" {
		t.Fatalf("unexpected names %v", names)
	}

	pred, err := got.Predict([]float64{0})
	if err != nil {
		t.Fatal(err)
	}
	if pred[0] != 2 {
		t.Fatalf("want 2, got %v", pred[0])
	}

	if !mm.Unload("tiny") {
		t.Fatal("unload should succeed")
	}
	if mm.Unload("tiny") {
		t.Fatal("second unload should be a no-op")
	}
}

func TestManagerBadName(t *testing.T) {
	mm := NewModelManager(t.TempDir())
	for _, name := range []string{"", "../escape", `a\b`} {
		if _, err := mm.Load(name); !errors.Is(err, utils.ErrInvalidArgument) {
			t.Fatalf("name %q: want ErrInvalidArgument, got %v", name, err)
		}
	}
	if _, err := mm.Load("missing"); err == nil {
		t.Fatal("missing model should fail to load")
	}
}
