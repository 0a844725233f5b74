// timer/timer.go
package timer

import (
	"container/heap"
)

// TimerTask fires at frame Execute and then every Interval frames.
type TimerTask struct {
	Id       int64
	Execute  uint64
	Interval uint64
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

// ties fire in registration order
func (q TimerQueue) Less(i, j int) bool {
	if q[i].Execute == q[j].Execute {
		return q[i].Id < q[j].Id
	}
	return q[i].Execute < q[j].Execute
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// Scheduler 基于帧计数的定时器。回调在 Advance 的调用者线程上同步执行，
// 控制循环因此保持单线程。
type Scheduler struct {
	queue  TimerQueue
	nextId int64
	frame  uint64
}

func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue:  make(TimerQueue, 0),
		nextId: 1,
	}
	heap.Init(&s.queue)
	return s
}

// AddTimer schedules callback delay frames from now, repeating every
// interval frames when interval > 0.
func (s *Scheduler) AddTimer(delay, interval uint64, callback func()) int64 {
	task := &TimerTask{
		Id:       s.nextId,
		Execute:  s.frame + delay,
		Interval: interval,
		Callback: callback,
	}
	s.nextId++

	heap.Push(&s.queue, task)
	return task.Id
}

func (s *Scheduler) RemoveTimer(timerId int64) {
	for i, task := range s.queue {
		if task.Id == timerId {
			heap.Remove(&s.queue, i)
			break
		}
	}
}

// Frame is the number of frames advanced so far.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Len is the number of pending tasks.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Advance runs every task due at the current frame, then moves to the next
// frame. It returns how many callbacks ran.
func (s *Scheduler) Advance() int {
	fired := 0
	for s.queue.Len() > 0 {
		task := s.queue[0]
		if task.Execute > s.frame {
			break
		}

		heap.Pop(&s.queue)
		if task.Interval > 0 {
			task.Execute = s.frame + task.Interval
			heap.Push(&s.queue, task)
		}
		task.Callback()
		fired++
	}
	s.frame++
	return fired
}

// Reset drops every task and rewinds the frame counter.
func (s *Scheduler) Reset() {
	s.queue = s.queue[:0]
	s.frame = 0
}
