package tree

import (
	"fmt"

	"github.com/newsky/SparkGBM/utils"
)

// NodeRecord 一个结点的扁平序列化形式
// Sid是路径编码的结构id：root为1，左孩子2*sid，右孩子2*sid+1，
// 不依赖指针即可重建父子关系。生成之后不再修改。
type NodeRecord struct {
	Sid       uint64
	IsLeaf    bool
	Feature   int
	Threshold int
	Gain      float64
	LeftSid   uint64
	RightSid  uint64
	LeafValue float64
}

// FlattenNodes 将整棵树先序展开成NodeRecord序列
func (t *Tree) FlattenNodes() []NodeRecord {
	if t.nodeCount == 0 {
		return nil
	}
	records := make([]NodeRecord, 0, int(t.nodeCount))
	stack := NewNodeStack()
	stack.Push(NodeVisit{node: 0, sid: 1})
	for !stack.IsEmpty() {
		cur := stack.Pop()
		node := &t.nodes[cur.node]
		record := NodeRecord{Sid: cur.sid}
		if t.isLeafNode(cur.node) {
			record.IsLeaf = true
			record.LeafValue = node.leafValue
		} else {
			record.Feature = node.feature
			record.Threshold = node.threshold
			record.Gain = node.gain
			record.LeftSid = cur.sid * 2
			record.RightSid = cur.sid*2 + 1
			stack.Push(NodeVisit{node: node.rightChild, sid: record.RightSid})
			stack.Push(NodeVisit{node: node.leftChild, sid: record.LeftSid})
		}
		records = append(records, record)
	}
	return records
}

// TreeFromRecords 从NodeRecord序列重建树，和records的顺序无关
// sid重复、孩子缺失或者有够不到的record都算损坏
func TreeFromRecords(records []NodeRecord) (*Tree, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty node records", utils.ErrCorruptState)
	}
	bySid := make(map[uint64]*NodeRecord, len(records))
	for i := range records {
		r := &records[i]
		if _, has := bySid[r.Sid]; has {
			return nil, fmt.Errorf("%w: duplicate node sid %d", utils.ErrCorruptState, r.Sid)
		}
		bySid[r.Sid] = r
	}
	root, has := bySid[1]
	if !has {
		return nil, fmt.Errorf("%w: missing root node record", utils.ErrCorruptState)
	}

	t := NewTreeWithCap(len(records))
	type frame struct {
		rec    *NodeRecord
		parent NodeId
		isLeft bool
	}
	stack := []frame{{rec: root, parent: -1, isLeft: true}}
	visited := 0
	for len(stack) != 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		id := t.AddNode(cur.parent, cur.isLeft, cur.rec.IsLeaf,
			cur.rec.Feature, cur.rec.Threshold, cur.rec.Gain, cur.rec.LeafValue)
		visited += 1
		if cur.rec.IsLeaf {
			continue
		}
		left, hasL := bySid[cur.rec.LeftSid]
		right, hasR := bySid[cur.rec.RightSid]
		if !hasL || !hasR {
			return nil, fmt.Errorf("%w: missing child of node sid %d", utils.ErrCorruptState, cur.rec.Sid)
		}
		stack = append(stack, frame{rec: right, parent: id, isLeft: false})
		stack = append(stack, frame{rec: left, parent: id, isLeft: true})
	}
	if visited != len(records) {
		return nil, fmt.Errorf("%w: %d node records unreachable from root", utils.ErrCorruptState, len(records)-visited)
	}
	t.Finalize()
	return t, nil
}
