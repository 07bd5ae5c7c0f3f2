package operation

// Queue выполняет операции строго по очереди: следующая начинается только
// после того, как предыдущая вернула nil из Resume.
type Queue struct {
	ops     []Operation
	next    int
	current Operation
}

// NewQueue создаёт очередь, пропуская отсутствующие операции
func NewQueue(ops ...Operation) *Queue {
	q := &Queue{ops: make([]Operation, 0, len(ops))}
	for _, op := range ops {
		if !IsAbsent(op) {
			q.ops = append(q.ops, op)
		}
	}
	return q
}

// Len возвращает количество операций в очереди
func (q *Queue) Len() int {
	return len(q.ops)
}

// Operations возвращает копию списка операций в порядке выполнения
func (q *Queue) Operations() []Operation {
	out := make([]Operation, len(q.ops))
	copy(out, q.ops)
	return out
}

// Resume продвигает текущую операцию на один шаг
func (q *Queue) Resume(run *RunContext) (Operation, error) {
	if q.current == nil {
		if q.next >= len(q.ops) {
			return nil, nil
		}
		q.current = q.ops[q.next]
		q.next++
	}

	next, err := q.current.Resume(run)
	if err != nil {
		return nil, err
	}
	if IsAbsent(next) {
		next = nil
	}
	q.current = next

	if q.current == nil && q.next >= len(q.ops) {
		return nil, nil
	}
	return q, nil
}

// Cancel отменяет текущую и все оставшиеся операции
func (q *Queue) Cancel() {
	if q.current != nil {
		q.current.Cancel()
		q.current = nil
	}
	for ; q.next < len(q.ops); q.next++ {
		q.ops[q.next].Cancel()
	}
}
