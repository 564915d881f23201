package concurrent

import "sync"

// GridInitParam is the unit of the parallel grid construction fan-out.
type GridInitParam struct {
	Idx int
}

func NewGridInitParam(idx int) GridInitParam {
	return GridInitParam{Idx: idx}
}

// BatchSearchParam is the unit of the local search fan-out, one batch of
// comb nodes per worker.
type BatchSearchParam struct {
	Batch int
}

func NewBatchSearchParam(batch int) BatchSearchParam {
	return BatchSearchParam{Batch: batch}
}

type JobI interface {
	GridInitParam | BatchSearchParam
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

func NewJob[T JobI](id int, item T) Job[T] {
	return Job[T]{ID: id, JobItem: item}
}

type JobFunc[T JobI, G any] func(job T) G

// RunJobs executes every job on its own goroutine and collects the results
// in job order. The workers share nothing, the caller owns partitioning.
func RunJobs[T JobI, G any](jobs []Job[T], fn JobFunc[T, G]) []G {
	results := make([]G, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job[T]) {
			defer wg.Done()
			results[i] = fn(job.JobItem)
		}(i, job)
	}
	wg.Wait()
	return results
}
