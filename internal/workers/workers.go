package workers

type Workers struct {
	workers []Worker
}

// NewWorkers aggregates the given workers so the application can start all
// background processing with a single Run call.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// Func adapts a plain function to the [Worker] interface.
type Func func()

func (f Func) Run() {
	f()
}
