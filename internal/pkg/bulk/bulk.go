package bulk

import "context"

// Failure records why a single item of a batch failed.
type Failure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Result aggregates a batch where every item is executed independently.
type Result struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Run applies fn to every id. A failing item never stops the batch.
// A cancelled context fails the remaining items instead of skipping them,
// so len(Succeeded)+len(Failed) always equals len(ids).
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) Result {
	res := Result{
		Succeeded: make([]string, 0, len(ids)),
		Failed:    make([]Failure, 0),
	}
	for _, id := range ids {
		err := ctx.Err()
		if err == nil {
			err = fn(ctx, id)
		}
		if err != nil {
			res.Failed = append(res.Failed, Failure{ID: id, Error: err.Error(), Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res
}

// AllFailed reports whether no item of a non-empty batch succeeded.
func (r Result) AllFailed() bool {
	return len(r.Succeeded) == 0 && len(r.Failed) > 0
}
