package gbm

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/newsky/SparkGBM/gbm/ml/discretize"
)

// RenderSummary 把模型概况打成一张表，加载后打在日志里方便人工核对
func (m *GBMModel) RenderSummary(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tree", Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMax: 8, WidthMin: 8},
		{Name: "Leaves", Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMax: 8, WidthMin: 8},
		{Name: "Nodes", Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMax: 8, WidthMin: 8},
		{Name: "Depth", Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMax: 8, WidthMin: 8},
		{Name: "Weight", AlignHeader: text.AlignCenter, WidthMax: 20, WidthMin: 20},
	})
	t.SetTitle("GBM MODEL SUMMARY")
	t.AppendHeader(table.Row{"Tree", "Leaves", "Nodes", "Depth", "Weight"})
	for i := range m.trees {
		t.AppendRow(table.Row{i, m.numLeaves[i], m.numNodes[i], m.depths[i], m.weights[i]})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"objective", m.obj.Name(), "outputs", m.NumOutputs(), "rawBase " + discretize.FormatFloats(m.rawBase)})
	t.Render()
}
