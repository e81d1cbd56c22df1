package fetch

import (
	"sync"

	"github.com/atinyakov/MineAdmin/internal/client/errstore"
)

type reported struct {
	err  error
	tag  string
	opts errstore.AddOptions
}

type fakeReporter struct {
	mu    sync.Mutex
	calls []reported
}

func (f *fakeReporter) HandleAPIError(err error, tag string, opts errstore.AddOptions) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reported{err: err, tag: tag, opts: opts})
	return "id"
}

func (f *fakeReporter) all() []reported {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reported(nil), f.calls...)
}
