package events

import (
	"context"
	"errors"
)

type tee struct {
	Bus
	extra []Publisher
}

// Tee returns a Bus that subscribes through bus and publishes to bus and to
// every extra publisher. All publishers are attempted; their errors are joined.
func Tee(bus Bus, extra ...Publisher) Bus {
	if len(extra) == 0 {
		return bus
	}
	return &tee{Bus: bus, extra: extra}
}

func (t *tee) Publish(ctx context.Context, c Change) error {
	errs := []error{t.Bus.Publish(ctx, c)}
	for _, p := range t.extra {
		errs = append(errs, p.Publish(ctx, c))
	}
	return errors.Join(errs...)
}
