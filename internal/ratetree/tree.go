package ratetree

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Tree is the normalized nested rate mapping: category -> subcategory -> leaf.
// Every leaf carries a rate or nil, where nil means "not found/ambiguous",
// never zero. The shape of a Tree is fixed by the source's schema; parsers
// must return the full shape with explicit null leaves for anything they
// could not extract.
type Tree map[string]Node

// Node is either a branch (nested Tree) or a leaf rate.
type Node struct {
	rate   *decimal.Decimal
	branch Tree
	isLeaf bool
}

// Leaf builds a leaf node holding a rate.
func Leaf(rate decimal.Decimal) Node {
	return Node{rate: &rate, isLeaf: true}
}

// NullLeaf builds a leaf node with an unknown value.
func NullLeaf() Node {
	return Node{isLeaf: true}
}

// LeafPtr builds a leaf node from an optional rate.
func LeafPtr(rate *decimal.Decimal) Node {
	if rate == nil {
		return NullLeaf()
	}
	v := *rate
	return Node{rate: &v, isLeaf: true}
}

// Branch builds a branch node around a subtree.
func Branch(subtree Tree) Node {
	return Node{branch: subtree}
}

// IsLeaf reports whether the node is a leaf.
func (n Node) IsLeaf() bool { return n.isLeaf }

// Rate returns the leaf value, nil for null leaves and branches.
func (n Node) Rate() *decimal.Decimal {
	if !n.isLeaf || n.rate == nil {
		return nil
	}
	v := *n.rate
	return &v
}

// Children returns the subtree of a branch node, nil for leaves.
func (n Node) Children() Tree { return n.branch }

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for key, node := range t {
		if node.isLeaf {
			out[key] = LeafPtr(node.rate)
			continue
		}
		out[key] = Branch(node.branch.Clone())
	}
	return out
}

// Shape returns a copy of the tree with every leaf set to null. The result
// is the schema the AI fallback must conform to.
func (t Tree) Shape() Tree {
	out := make(Tree, len(t))
	for key, node := range t {
		if node.isLeaf {
			out[key] = NullLeaf()
			continue
		}
		out[key] = Branch(node.branch.Shape())
	}
	return out
}

// Leaves counts all leaves in the tree.
func (t Tree) Leaves() int {
	count := 0
	for _, node := range t {
		if node.isLeaf {
			count++
			continue
		}
		count += node.branch.Leaves()
	}
	return count
}

// NullLeaves counts leaves whose value is unknown. The confidence gate uses
// this to decide whether a structural parse should be escalated.
func (t Tree) NullLeaves() int {
	count := 0
	for _, node := range t {
		if node.isLeaf {
			if node.rate == nil {
				count++
			}
			continue
		}
		count += node.branch.NullLeaves()
	}
	return count
}

// Get returns the leaf rate at a dot-separated path.
func (t Tree) Get(path string) (*decimal.Decimal, bool) {
	keys := strings.Split(path, ".")
	current := t
	for i, key := range keys {
		node, ok := current[key]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			if !node.isLeaf {
				return nil, false
			}
			return node.Rate(), true
		}
		if node.isLeaf {
			return nil, false
		}
		current = node.branch
	}
	return nil, false
}

// Set stores a rate at a dot-separated leaf path. It returns false when the
// path does not name an existing leaf; the tree's shape is never extended.
func (t Tree) Set(path string, rate *decimal.Decimal) bool {
	keys := strings.Split(path, ".")
	current := t
	for i, key := range keys {
		node, ok := current[key]
		if !ok {
			return false
		}
		if i == len(keys)-1 {
			if !node.isLeaf {
				return false
			}
			current[key] = LeafPtr(rate)
			return true
		}
		if node.isLeaf {
			return false
		}
		current = node.branch
	}
	return false
}

// LeafValue pairs a flattened leaf path with its rate.
type LeafValue struct {
	Path string
	Rate *decimal.Decimal
}

// Flatten lists every leaf as a dot-separated path in sorted order.
func (t Tree) Flatten() []LeafValue {
	var out []LeafValue
	t.flattenInto("", &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (t Tree) flattenInto(prefix string, out *[]LeafValue) {
	for key, node := range t {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if node.isLeaf {
			*out = append(*out, LeafValue{Path: path, Rate: node.Rate()})
			continue
		}
		node.branch.flattenInto(path, out)
	}
}

// Equal reports deep equality of two trees, comparing rates by value.
func Equal(a, b Tree) bool {
	if len(a) != len(b) {
		return false
	}
	for key, nodeA := range a {
		nodeB, ok := b[key]
		if !ok || nodeA.isLeaf != nodeB.isLeaf {
			return false
		}
		if nodeA.isLeaf {
			switch {
			case nodeA.rate == nil && nodeB.rate == nil:
			case nodeA.rate == nil || nodeB.rate == nil:
				return false
			case !nodeA.rate.Equal(*nodeB.rate):
				return false
			}
			continue
		}
		if !Equal(nodeA.branch, nodeB.branch) {
			return false
		}
	}
	return true
}

// Merge combines a structural result with an AI result of the same shape.
// For every leaf the structural value wins when non-null; otherwise the AI
// value fills the gap; otherwise the leaf stays null. The AI side can never
// override a structural value, and merging a tree with itself or with an
// all-null shape returns the original unchanged. The result always has the
// structural tree's shape; extra keys on the AI side are ignored.
func Merge(structural, ai Tree) Tree {
	out := make(Tree, len(structural))
	for key, node := range structural {
		if !node.isLeaf {
			var aiBranch Tree
			if aiNode, ok := ai[key]; ok && !aiNode.isLeaf {
				aiBranch = aiNode.branch
			}
			out[key] = Branch(Merge(node.branch, aiBranch))
			continue
		}
		if node.rate != nil {
			out[key] = LeafPtr(node.rate)
			continue
		}
		if aiNode, ok := ai[key]; ok && aiNode.isLeaf && aiNode.rate != nil {
			out[key] = LeafPtr(aiNode.rate)
			continue
		}
		out[key] = NullLeaf()
	}
	return out
}

// Conform coerces an arbitrary tree to the exact shape of a schema. Leaves
// present in the input with a non-null value are carried over; everything
// else becomes a null leaf. Keys outside the schema are dropped.
func (t Tree) Conform(schema Tree) Tree {
	out := make(Tree, len(schema))
	for key, schemaNode := range schema {
		if !schemaNode.isLeaf {
			var sub Tree
			if node, ok := t[key]; ok && !node.isLeaf {
				sub = node.branch
			}
			out[key] = Branch(sub.Conform(schemaNode.branch))
			continue
		}
		if node, ok := t[key]; ok && node.isLeaf && node.rate != nil {
			out[key] = LeafPtr(node.rate)
			continue
		}
		out[key] = NullLeaf()
	}
	return out
}

// MarshalJSON renders a leaf as a JSON number or null.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.isLeaf {
		if n.rate == nil {
			return []byte("null"), nil
		}
		return json.Marshal(n.rate)
	}
	return json.Marshal(n.branch)
}

// UnmarshalJSON accepts nested objects, numbers, numeric strings, and null.
// Anything else decodes to a null leaf so a sloppy upstream payload can only
// degrade a value to "unknown", never corrupt the shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*n = NullLeaf()
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var sub Tree
		if err := json.Unmarshal(data, &sub); err != nil {
			return err
		}
		*n = Branch(sub)
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = NullLeaf()
			return nil
		}
		if rate, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			*n = Leaf(rate)
		} else {
			*n = NullLeaf()
		}
		return nil
	}
	var rate decimal.Decimal
	if err := json.Unmarshal(data, &rate); err != nil {
		*n = NullLeaf()
		return nil
	}
	*n = Leaf(rate)
	return nil
}
