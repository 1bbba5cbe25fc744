package question

import (
	"context"
	"sync"

	"sql-playground/internal/model"
)

// BatchResult is the outcome for one question of a batch, at the same index
// as its input.
type BatchResult struct {
	Index  int
	Parsed *model.ParsedQuestion
	Err    error
}

// ParseBatch parses and validates texts with a fixed pool of workers. Each
// question is independent, so one failure does not affect the others. Once
// ctx is done, questions not yet started report ctx.Err().
func (p *Parser) ParseBatch(ctx context.Context, texts []string, workers int) []BatchResult {
	results := make([]BatchResult, len(texts))
	if len(texts) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(texts) {
		workers = len(texts)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				parsed, err := p.ParseAndValidate(texts[i])
				results[i] = BatchResult{Index: i, Parsed: parsed, Err: err}
			}
		}()
	}

	next := 0
feed:
	for ; next < len(texts); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(texts); i++ {
		results[i] = BatchResult{Index: i, Err: ctx.Err()}
	}

	return results
}
