package analyze

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Pipeline analyzes a document's sentences concurrently and hands the results
// back in input order.
type Pipeline struct {
	Analyzer *Analyzer
	Workers  int
	Logger   *log.Logger
	// OnProgress is called with the number of delivered sentences and the total.
	OnProgress func(current, total int)
	// OnSentence receives each result in input order. A non-nil error stops
	// the pipeline and is returned from Run.
	OnSentence func(Sentence) error

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewPipeline creates a Pipeline with four workers.
func NewPipeline(a *Analyzer) *Pipeline {
	return &Pipeline{Analyzer: a, Workers: 4, Logger: log.New(io.Discard)}
}

// Run splits text into sentences and analyzes them.
func (p *Pipeline) Run(ctx context.Context, text string) ([]Sentence, error) {
	return p.RunSentences(ctx, SplitSentences(text))
}

// RunSentences analyzes each sentence on the worker pool. Results are
// reassembled in input order; Sentence.Index is the position in sentences.
func (p *Pipeline) RunSentences(ctx context.Context, sentences []string) ([]Sentence, error) {
	total := len(sentences)
	if total == 0 {
		return nil, nil
	}
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	var wp WorkerPoolInterface
	if p.PoolFactory != nil {
		wp = p.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to total so workers never block on delivery.
	resultCh := make(chan Sentence, total)
	doneCh := make(chan error, 1)
	results := make([]Sentence, 0, total)

	wp.Start(ctx)

	go func() {
		defer close(doneCh)
		buffer := make(map[int]Sentence)
		nextIdx := 0
		for nextIdx < total {
			var (
				res Sentence
				ok  bool
			)
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			case res, ok = <-resultCh:
			}
			if !ok {
				// Producer stopped early; whatever is missing was never submitted.
				doneCh <- nil
				return
			}
			buffer[res.Index] = res

			// Deliver contiguous finished items
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					break
				}
				delete(buffer, nextIdx)
				if p.OnSentence != nil {
					if err := p.OnSentence(item); err != nil {
						cancel()
						doneCh <- err
						return
					}
				}
				results = append(results, item)
				nextIdx++
				if p.OnProgress != nil {
					p.OnProgress(nextIdx, total)
				}
			}
		}
		doneCh <- nil
	}()

	var submitErr error
Loop:
	for i, text := range sentences {
		idx, sent := i, text
		job := func(ctx context.Context) error {
			res := p.Analyzer.AnalyzeSentence(sent)
			res.Index = idx
			resultCh <- res
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if err != ctx.Err() && err != ErrPoolClosed {
				submitErr = err
			}
			logger.Debug("analyze pipeline stopped submitting", "index", idx, "err", err)
			break Loop
		}
	}

	// Close waits for running jobs, so no worker sends on resultCh afterwards.
	wp.Close()
	close(resultCh)

	consumerErr := <-doneCh
	if consumerErr == nil {
		consumerErr = submitErr
	}
	if consumerErr == nil && len(results) < total {
		consumerErr = ctx.Err()
		if consumerErr == nil {
			consumerErr = fmt.Errorf("analyzed %d of %d sentences", len(results), total)
		}
	}
	logger.Debug("analyze pipeline finished", "sentences", len(results), "total", total)
	return results, consumerErr
}
