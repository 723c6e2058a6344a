package audit

import "context"

// Worker drains the publisher inbox into a sink. It keeps external delivery
// off the request path and testable without wiring a broker.
type Worker struct {
	sink  Sink
	inbox <-chan Log
}

func NewWorker(sink Sink, inbox <-chan Log) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case row := <-w.inbox:
			w.sink.Produce(ctx, row)
		}
	}
}
