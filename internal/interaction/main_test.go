package interaction

import (
	"testing"

	"go.uber.org/goleak"

	"mediahub/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(backend Backend, clock *fakeClock, opts ...Option) *Service {
	base := []Option{
		WithLogger(logger.Discard()),
		WithClock(clock.Now),
	}
	return NewService(NewStore(), backend, append(base, opts...)...)
}
