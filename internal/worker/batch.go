package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/fundgate/internal/model"
)

// Runner runs the full pipeline for one discovery query
type Runner interface {
	RunQuery(ctx context.Context, query string) (*model.RunSummary, error)
}

// QueryJob represents one query of a batch
type QueryJob struct {
	Index  int
	Query  string
	Runner Runner
}

// Execute executes the query job
func (j *QueryJob) Execute(ctx context.Context) Result {
	summary, err := j.Runner.RunQuery(ctx, j.Query)
	if err != nil {
		return &QueryResult{Index: j.Index, Query: j.Query, Error: err}
	}
	return &QueryResult{Index: j.Index, Query: j.Query, Summary: summary}
}

// QueryResult represents the result of a query job
type QueryResult struct {
	Index   int
	Query   string
	Summary *model.RunSummary
	Error   error
}

// GetError returns the error from the query result
func (r *QueryResult) GetError() error {
	return r.Error
}

// BatchProcessor runs several queries with bounded concurrency
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessQueries runs every query and returns results in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*QueryResult {
	if len(queries) == 0 {
		return []*QueryResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	out := make([]*QueryResult, len(queries))
	for i, q := range queries {
		if !pool.Submit(&QueryJob{Index: i, Query: q, Runner: b.runner}) {
			break
		}
	}

	for _, result := range pool.Wait() {
		r := result.(*QueryResult)
		out[r.Index] = r
	}

	for i, r := range out {
		if r == nil {
			out[i] = &QueryResult{Index: i, Query: queries[i], Error: fmt.Errorf("not run: %w", context.Cause(ctx))}
		}
	}
	return out
}

// ProcessFile reads queries from a file and runs them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads queries from a file (one per line). Blank lines
// and # comments are skipped, duplicates keep their first position.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if !seen[key] {
			seen[key] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
