package util

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

type orderedOutput[T any] struct {
	order  int
	output T
}

// ConcurrentMapFuncWithError applies f to every input with at most concurrency calls in flight
// and returns the outputs in input order. A concurrency of 0 runs one call at a time and a
// negative one sets no limit. The first error wins.
func ConcurrentMapFuncWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency == 0 {
		eg.SetLimit(1)
	} else if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	ch := make(chan orderedOutput[Tout], len(inputs))
	for i, in := range inputs {
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			ch <- orderedOutput[Tout]{i, out}
			return nil
		})
	}

	err := eg.Wait()
	close(ch)
	if err != nil {
		return nil, err
	}

	tmp := make([]orderedOutput[Tout], 0, len(inputs))
	for t := range ch {
		tmp = append(tmp, t)
	}

	slices.SortFunc(tmp, func(a, b orderedOutput[Tout]) int {
		return cmp.Compare(a.order, b.order)
	})

	return TransformSlice(tmp, func(t orderedOutput[Tout]) Tout {
		return t.output
	}), nil
}
