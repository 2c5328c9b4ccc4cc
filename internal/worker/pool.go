package worker

import (
	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/script"
)

// Pool is the fixed-size set of workers created at startup (§4.6). The
// accept loop is the pool's sole consumer: it alone decides which idle
// worker receives the next item.
type Pool struct {
	Workers []*Worker
	Report  chan Result
}

// NewPool creates n workers sharing one report channel.
func NewPool(n int, dispatcher *dispatch.Dispatcher, scriptDeps script.Deps, initScript *InitScript, log *zap.Logger) *Pool {
	report := make(chan Result, n)
	p := &Pool{Report: report}
	for i := 0; i < n; i++ {
		w := New(i, report, dispatcher, scriptDeps, initScript, log)
		p.Workers = append(p.Workers, w)
		go w.Run()
	}
	return p
}

// Stop asks every worker to exit after its current item.
func (p *Pool) Stop() {
	for _, w := range p.Workers {
		w.Exit()
	}
}
