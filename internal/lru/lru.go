// Package lru provides an intrusive least-recently-used list.
package lru

// Node is an element of a List. The node stores its value so callers can
// remove it in O(1) from a parent index.
type Node[V any] struct {
	Value V
	prev  *Node[V]
	next  *Node[V]
}

// List is a doubly-linked list ordered from most to least recently used.
// The list is not thread-safe; callers must handle synchronization.
type List[V any] struct {
	head *Node[V]
	tail *Node[V]
	len  int
}

// Len returns the number of nodes in the list.
func (l *List[V]) Len() int {
	return l.len
}

// PushFront adds a new node at the front (most recently used).
// Returns the created node for later access.
func (l *List[V]) PushFront(v V) *Node[V] {
	node := &Node[V]{Value: v}
	l.linkFront(node)
	return node
}

// Remove removes a node from the list.
func (l *List[V]) Remove(node *Node[V]) {
	if node == nil {
		return
	}
	l.unlink(node)
}

// RemoveOldest removes and returns the least recently used value.
// Returns the zero value and false if the list is empty.
func (l *List[V]) RemoveOldest() (V, bool) {
	if l.tail == nil {
		var zero V
		return zero, false
	}
	node := l.tail
	l.unlink(node)
	return node.Value, true
}

// Each calls fn for every value from most to least recently used.
func (l *List[V]) Each(fn func(V)) {
	for n := l.head; n != nil; n = n.next {
		fn(n.Value)
	}
}

// Clear removes all nodes from the list.
func (l *List[V]) Clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}

func (l *List[V]) linkFront(node *Node[V]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// unlink removes a node from the list and clears its pointers.
func (l *List[V]) unlink(node *Node[V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	l.len--
}
