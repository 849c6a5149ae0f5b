package concord

import (
	"context"
	"log/slog"
)

// propagate assigns every link the smallest id0 reachable from it. It returns
// the final labels and the number of passes run.
func (r *Resolver) propagate(ctx context.Context, links []link, n0, n1 int) ([]int, int, error) {
	labels := make([]int, len(links))
	for k, l := range links {
		labels[k] = l.id0
	}
	settled := make([]bool, len(links))

	unsettled := settle(links, labels, settled, n1)
	r.report(ctx, Progress{Iteration: 0, Unsettled: unsettled, Total: len(links)})

	iteration := 0
	for unsettled > 0 {
		if err := ctx.Err(); err != nil {
			return nil, iteration, err
		}
		if r.maxIterations > 0 && iteration >= r.maxIterations {
			return nil, iteration, convergenceTimeout(iteration, unsettled, len(links))
		}

		labels = step(links, labels, settled, n0, n1)
		iteration++

		unsettled = settle(links, labels, settled, n1)
		r.report(ctx, Progress{Iteration: iteration, Unsettled: unsettled, Total: len(links)})
	}
	return labels, iteration, nil
}

// step computes the next assignment from labels without modifying it:
// the minimum label of every id1 class, then of every id0 class.
func step(links []link, labels []int, settled []bool, n0, n1 int) []int {
	next := make([]int, len(labels))
	copy(next, labels)

	byID1 := minima(links, next, settled, n1, func(l link) int { return l.id1 })
	for k, l := range links {
		if !settled[k] {
			next[k] = byID1[l.id1]
		}
	}

	byID0 := minima(links, next, settled, n0, func(l link) int { return l.id0 })
	for k, l := range links {
		if !settled[k] {
			next[k] = byID0[l.id0]
		}
	}
	return next
}

func minima(links []link, labels []int, settled []bool, n int, class func(link) int) []int {
	out := make([]int, n)
	for c := range out {
		out[c] = -1
	}
	for k, l := range links {
		if settled[k] {
			continue
		}
		c := class(l)
		if out[c] < 0 || labels[k] < out[c] {
			out[c] = labels[k]
		}
	}
	return out
}

// settle marks the links whose label is final and returns how many are not.
// id0 classes are uniform after every step, so a label is final once no id1
// class holding it also holds another label. Such a label covers exactly one
// closed component and can never change again.
func settle(links []link, labels []int, settled []bool, n1 int) int {
	first := make([]int, n1)
	for c := range first {
		first[c] = -1
	}
	mixed := make([]bool, n1)
	for k, l := range links {
		if settled[k] {
			continue
		}
		switch {
		case first[l.id1] < 0:
			first[l.id1] = labels[k]
		case first[l.id1] != labels[k]:
			mixed[l.id1] = true
		}
	}

	open := make(map[int]bool)
	for k, l := range links {
		if !settled[k] && mixed[l.id1] {
			open[labels[k]] = true
		}
	}

	unsettled := 0
	for k := range links {
		if settled[k] {
			continue
		}
		if open[labels[k]] {
			unsettled++
		} else {
			settled[k] = true
		}
	}
	return unsettled
}

func (r *Resolver) report(ctx context.Context, p Progress) {
	if r.verbose {
		r.logger.InfoContext(ctx, "Concord iteration",
			slog.Int("iteration", p.Iteration),
			slog.Int("unsettled_rows", p.Unsettled),
			slog.Float64("unsettled_fraction", p.Fraction()))
	}
	if r.progress != nil {
		r.progress(p)
	}
}
