package monitor

import (
	"context"
	"errors"

	"github.com/siiimooon/go-hrm/pkg/heartrate"
)

var ErrUnbufferedChannel = errors.New("unbuffered channels are not supported")

// SinkTo returns a reading callback that forwards readings to sink. The
// callback stops blocking once ctx is done.
func SinkTo(ctx context.Context, sink chan<- heartrate.Reading) (func(heartrate.Reading), error) {
	if cap(sink) == 0 {
		return nil, ErrUnbufferedChannel
	}
	return func(reading heartrate.Reading) {
		select {
		case <-ctx.Done():
		case sink <- reading:
		}
	}, nil
}

func suppressCancellationError(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
