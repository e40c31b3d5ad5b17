package tree

import (
	"fmt"
	"os"

	"github.com/awalterschulze/gographviz"

	"github.com/newsky/SparkGBM/rock-share/base/logger"
)

// ToSimpleGraph 把树导出成graphviz的dot文件，方便人工查看
func (t *Tree) ToSimpleGraph(outPath string) {
	graphAst, _ := gographviz.Parse([]byte(`digraph G{}`))
	graph := gographviz.NewGraph()
	gographviz.Analyse(graphAst, graph)

	nodeNum := int(t.nodeCount)
	for i := 0; i < nodeNum; i++ {
		nodeI := t.nodes[i]
		if t.isLeafNode(NodeId(i)) {
			graph.AddNode("G", fmt.Sprintf("%d", i), map[string]string{"label": fmt.Sprintf("<id = %d<br/>leaf = %d<br/>value = %v>",
				i, nodeI.leafId, nodeI.leafValue)})
		} else {
			graph.AddNode("G", fmt.Sprintf("%d", i), map[string]string{"label": fmt.Sprintf("<id = %d<br/>bin[%d] &lt;= %d<br/>gain = %v>",
				i, nodeI.feature, nodeI.threshold, nodeI.gain)})
		}
	}

	for i := 0; i < nodeNum; i++ {
		nodeI := t.nodes[i]
		if nodeI.leftChild != 0 {
			graph.AddEdge(fmt.Sprintf("%d", i), fmt.Sprintf("%d", nodeI.leftChild), true, nil)
		}
		if nodeI.rightChild != 0 {
			graph.AddEdge(fmt.Sprintf("%d", i), fmt.Sprintf("%d", nodeI.rightChild), true, nil)
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		logger.Errorf("error when open file:%s--%v", outPath, err)
		return
	}
	_, err = out.WriteString(graph.String())
	if err != nil {
		logger.Errorf("error when write to file:%s--%v", outPath, err)
		return
	}
	err = out.Close()
	if err != nil {
		logger.Errorf("error when close file:%s--%v", outPath, err)
		return
	}
}
