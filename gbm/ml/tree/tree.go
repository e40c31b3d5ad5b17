/*
	回归树结构，按照二叉树的实现，输入是离散化之后的bin下标
	树的组织结构用数组，结点不会很多，数组开销不大，序列化也方便
	限制:
	1.内部结点一定同时有左右孩子
	2.构造完成并Finalize之后不可再变
*/

package tree

// NodeId Node的id，root为0，对应树数组的下标
type NodeId int

// Node 树中一个结点，leftChild和rightChild为0表示没有相应结点(root不会出现在child中)
type Node struct {
	parent     NodeId
	leftChild  NodeId
	rightChild NodeId

	feature   int     // feature 当前结点用于划分的特征列
	threshold int     // threshold 划分的bin上界，bins[feature] <= threshold走左边
	gain      float64 // gain 该次划分带来的增益

	leafId    int     // leafId 叶子序号，Finalize时按先序分配，内部结点为-1
	leafValue float64 // leafValue 叶子的预测值
}

type Tree struct {
	maxDepth  uint32 // maxDepth 树的最大深度，根为0
	nodeCount NodeId // nodeCount 进行nodeId分配，最后对应树中node数目(包含root)
	nodes     []Node // nodes 树中所有结点
	leafNum   int    // leafNum 叶子数目，Finalize时统计

	capacity int // capacity 容量
}

func NewTreeWithCap(cap int) *Tree {
	t := &Tree{}
	t.ReSize(cap)
	return t
}

func (t *Tree) ReSize(cap int) {
	if cap == t.capacity && len(t.nodes) != 0 {
		return
	}
	if cap < 0 {
		if t.capacity == 0 {
			cap = 3 // 初始容量
		} else {
			cap = t.capacity * 2
		}
	}
	newNodes := make([]Node, cap)
	copy(newNodes, t.nodes[:t.nodeCount])
	t.nodes = newNodes
	t.capacity = cap
}

func (t *Tree) NextNodeId() NodeId {
	return t.nodeCount
}

func (t *Tree) NumNodes() int {
	return int((*t).nodeCount)
}

func (t *Tree) NumLeaves() int {
	return (*t).leafNum
}

func (t *Tree) Depth() int {
	return int((*t).maxDepth)
}

// AddNode 添加一个结点，parent为-1表示当前结点是root
func (t *Tree) AddNode(
	parent NodeId, isLeft bool, isLeaf bool,
	feature int, threshold int, gain float64, leafValue float64,
) NodeId {
	nodeId := t.NextNodeId()
	if int(nodeId) >= t.capacity {
		t.ReSize(-1)
	}
	node := &t.nodes[nodeId]
	node.parent = parent
	node.leafId = -1

	if parent >= 0 {
		if isLeft {
			t.nodes[parent].leftChild = nodeId
		} else {
			t.nodes[parent].rightChild = nodeId
		}
	}

	if isLeaf {
		// left和right为0就表示没有孩子
		node.leafValue = leafValue
	} else {
		node.feature = feature
		node.threshold = threshold
		node.gain = gain
	}
	t.nodeCount += 1
	return nodeId
}

// isLeafNode 叶子结点没有孩子
func (t *Tree) isLeafNode(id NodeId) bool {
	return t.nodes[id].leftChild == 0 && t.nodes[id].rightChild == 0
}

// Finalize 构造完成后调用：按先序分配叶子序号并统计深度
// 叶子序号只和树的结构有关，和结点加入顺序无关
func (t *Tree) Finalize() {
	t.leafNum = 0
	t.maxDepth = 0
	if t.nodeCount == 0 {
		return
	}
	stack := NewNodeStack()
	stack.Push(NodeVisit{node: 0, depth: 0})
	for !stack.IsEmpty() {
		cur := stack.Pop()
		if cur.depth > t.maxDepth {
			t.maxDepth = cur.depth
		}
		node := &t.nodes[cur.node]
		if t.isLeafNode(cur.node) {
			node.leafId = t.leafNum
			t.leafNum += 1
			continue
		}
		// 右孩子后处理，先序里左子树在前
		stack.Push(NodeVisit{node: node.rightChild, depth: cur.depth + 1})
		stack.Push(NodeVisit{node: node.leftChild, depth: cur.depth + 1})
	}
}

// Predict 沿树往下走到叶子，返回叶子预测值
func (t *Tree) Predict(bins []int) float64 {
	return t.nodes[t.route(bins)].leafValue
}

// Index 沿树往下走到叶子，返回叶子序号
func (t *Tree) Index(bins []int) int {
	return t.nodes[t.route(bins)].leafId
}

func (t *Tree) route(bins []int) NodeId {
	cur := NodeId(0)
	for !t.isLeafNode(cur) {
		node := &t.nodes[cur]
		if bins[node.feature] <= node.threshold {
			cur = node.leftChild
		} else {
			cur = node.rightChild
		}
	}
	return cur
}

// ComputeImportance 各特征列上划分增益的累加
func (t *Tree) ComputeImportance() map[int]float64 {
	importance := make(map[int]float64)
	nodeNum := int(t.nodeCount)
	for i := 0; i < nodeNum; i++ {
		if t.isLeafNode(NodeId(i)) {
			continue
		}
		importance[t.nodes[i].feature] += t.nodes[i].gain
	}
	return importance
}

type NodeVisit struct {
	node  NodeId
	depth uint32
	sid   uint64 // sid 先序展开时的结构id，其余场景不用
}

type NodeStack struct {
	records []NodeVisit
	cur     int // 栈顶，可以取到，初始化为-1表示没有元素
}

func NewNodeStack() *NodeStack {
	return &NodeStack{
		cur: -1,
	}
}

func (stack *NodeStack) Push(record NodeVisit) {
	stack.records = append(stack.records, record)
	stack.cur += 1
}

func (stack *NodeStack) Peek() NodeVisit {
	if stack.cur >= 0 {
		return stack.records[stack.cur]
	}
	return NodeVisit{node: -1}
}

func (stack *NodeStack) Pop() NodeVisit {
	top := stack.Peek()
	if top.node >= 0 {
		stack.records = stack.records[:stack.cur]
		stack.cur -= 1
	}
	return top
}

func (stack *NodeStack) Clear() {
	stack.cur = -1
	stack.records = stack.records[:0]
}

func (stack *NodeStack) IsEmpty() bool {
	return len(stack.records) == 0
}
