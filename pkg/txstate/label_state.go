package txstate

import "github.com/orneryd/graphtx/pkg/idset"

// LabelState is the per-label set of node ids added to or removed from
// that label this transaction.
type LabelState struct {
	Nodes idset.Diff
}

// GraphState is the single graph-scoped property container: properties
// that live on the graph itself rather than on any node or relationship.
type GraphState struct {
	PropertyContainerState
}
