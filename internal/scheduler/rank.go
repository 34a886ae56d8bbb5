package scheduler

import (
	"container/heap"

	"github.com/sandeepkv93/calplan/internal/model"
)

type queueItem struct {
	item  model.WorkItem
	score float64
	index int
}

// priorityQueue pops the highest score first, then the earliest input.
type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].score != pq[j].score {
		return pq[i].score > pq[j].score
	}
	return pq[i].index < pq[j].index
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Rank orders items by Score, highest first; equal scores keep input order.
func Rank(items []model.WorkItem, today model.Date) []model.WorkItem {
	pq := make(priorityQueue, 0, len(items))
	for i, it := range items {
		pq = append(pq, queueItem{item: it, score: Score(it, today), index: i})
	}
	heap.Init(&pq)
	out := make([]model.WorkItem, 0, len(items))
	for pq.Len() > 0 {
		out = append(out, heap.Pop(&pq).(queueItem).item)
	}
	return out
}

// Score combines priority weight, deadline urgency and a bonus for short work.
func Score(item model.WorkItem, today model.Date) float64 {
	return priorityWeight(item.Priority) + urgency(item, today) + durationFactor(item.DurationMinutes)
}

func priorityWeight(p model.Priority) float64 {
	switch p {
	case model.PriorityCritical:
		return 40
	case model.PriorityHigh:
		return 30
	case model.PriorityMedium:
		return 20
	default:
		return 10
	}
}

func urgency(item model.WorkItem, today model.Date) float64 {
	deadline, ok := item.Deadline.Get()
	if !ok {
		return 0
	}
	days := today.DaysUntil(deadline)
	switch {
	case days <= 0:
		return 30
	case days == 1:
		return 25
	case days <= 3:
		return 20
	case days <= 7:
		return 10
	default:
		return 5
	}
}

func durationFactor(minutes int) float64 {
	switch {
	case minutes <= 30:
		return 10
	case minutes <= 60:
		return 6
	case minutes <= 120:
		return 3
	default:
		return 0
	}
}

func priorityBonus(p model.Priority) float64 {
	switch p {
	case model.PriorityCritical:
		return 30
	case model.PriorityHigh:
		return 22
	case model.PriorityMedium:
		return 15
	default:
		return 8
	}
}
