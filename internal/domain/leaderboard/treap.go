package leaderboard

import (
	"github.com/cespare/xxhash/v2"

	"github.com/okian/mazeball/internal/domain/model"
)

// Treap ordered by (TimeMillis ASC, DeviceID ASC). In-order traversal yields
// a level's leaderboard from fastest to slowest with a deterministic tie-break.

type node struct {
	entry model.Entry
	prio  uint64
	left  *node
	right *node
}

// before reports whether (aTime, aID) ranks ahead of (bTime, bID).
func before(aTime int64, aID string, bTime int64, bID string) bool {
	if aTime != bTime {
		return aTime < bTime
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func newNode(e model.Entry) *node {
	return &node{entry: e, prio: xxhash.Sum64String(e.DeviceID)}
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if before(nn.entry.TimeMillis, nn.entry.DeviceID, n.entry.TimeMillis, n.entry.DeviceID) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n
}

func remove(n *node, timeMillis int64, deviceID string) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.entry.TimeMillis == timeMillis && n.entry.DeviceID == deviceID:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, timeMillis, deviceID)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, timeMillis, deviceID)
		}
	case before(timeMillis, deviceID, n.entry.TimeMillis, n.entry.DeviceID):
		n.left = remove(n.left, timeMillis, deviceID)
	default:
		n.right = remove(n.right, timeMillis, deviceID)
	}
	return n
}

// inOrder calls fn for every node in rank order.
func inOrder(n *node, fn func(*node)) {
	if n == nil {
		return
	}
	inOrder(n.left, fn)
	fn(n)
	inOrder(n.right, fn)
}
