package tagframe

import "sync"

// ScopedTasks is a list of deferred actions that run when a scope ends.
//
// Compute implementations add the reverse of every transition they record, so
//
//	var reverse ScopedTasks
//	defer reverse.Run()
//
// returns each resource to its original state on every exit path.
type ScopedTasks struct {
	mu    sync.Mutex
	tasks []func()
}

// Add schedules fn. A nil fn is ignored.
func (s *ScopedTasks) Add(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

// Len returns the number of pending tasks.
func (s *ScopedTasks) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Run executes the pending tasks in reverse order of registration and clears
// the list. Tasks run at most once.
func (s *ScopedTasks) Run() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for i := len(tasks) - 1; i >= 0; i-- {
		tasks[i]()
	}
}
