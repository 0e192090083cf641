package domain

// Collection is the ordered set of tasks of one stream, in first-arrival order.
// At most one entry exists per id and only the last entry may be streaming.
type Collection []Task

// Index returns the position of the task with the given id, or -1.
func (c Collection) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Streaming returns the task still being written, if any.
func (c Collection) Streaming() (Task, bool) {
	if len(c) == 0 || c[len(c)-1].Status.IsCompleted() {
		return Task{}, false
	}
	return c[len(c)-1], true
}

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i := range c {
		out[i] = c[i].Clone()
	}
	return out
}

// Reconcile folds one classified message into the collection. The input is
// never modified; the returned collection shares nothing with it.
func Reconcile(c Collection, m Message) (Collection, Signal) {
	switch msg := m.(type) {
	case MsgSuccess:
		next := c.Clone()
		completeLast(next)
		return next, Signal{Kind: SignalFinish}

	case MsgFailure:
		return c.Clone(), Signal{Kind: SignalFail, Detail: msg.Detail}

	case MsgTaskData:
		next := c.Clone()
		if i := next.Index(msg.Task.ID); i >= 0 {
			// ids match by construction
			merged, _ := Merge(next[i], msg.Task)
			next[i] = merged
		} else {
			completeLast(next)
			next = append(next, NewTask(msg.Task))
		}
		settleStreaming(next)
		return next, Signal{Kind: SignalContinue}

	default:
		return c.Clone(), Signal{Kind: SignalContinue}
	}
}

// completeLast marks the last entry completed; arrival of a new task or the
// end of the stream implicitly closes it.
func completeLast(c Collection) {
	if n := len(c); n > 0 && !c[n-1].Status.IsCompleted() {
		c[n-1] = WithStatus(c[n-1], StatusCompleted)
	}
}

// settleStreaming forces every entry but the last to completed.
func settleStreaming(c Collection) {
	for i := 0; i < len(c)-1; i++ {
		if !c[i].Status.IsCompleted() {
			c[i] = WithStatus(c[i], StatusCompleted)
		}
	}
}
