package promise

// job is a runnable reaction invocation.
type job func()

// queue is the adapter-owned FIFO of runnable reactions. It is the only
// mutable resource shared between futures of one execution, and it is only
// ever touched from the single logical thread driving Wait.
type queue struct {
	jobs []job
	ran  int
}

func (q *queue) push(j job) {
	q.jobs = append(q.jobs, j)
}

// pop removes and returns the oldest job, reporting whether one existed.
func (q *queue) pop() (job, bool) {
	if len(q.jobs) == 0 {
		return nil, false
	}
	j := q.jobs[0]
	// Shift rather than re-slice so settled executions don't pin the backing
	// array of a long drain.
	copy(q.jobs, q.jobs[1:])
	q.jobs[len(q.jobs)-1] = nil
	q.jobs = q.jobs[:len(q.jobs)-1]
	return j, true
}

func (q *queue) len() int { return len(q.jobs) }

// run executes a single job and counts it.
func (q *queue) run(j job) {
	q.ran++
	j()
}
