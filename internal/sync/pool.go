package sync

import stdsync "sync"

// pool is a bounded fan-out: at most limit submitted functions run at once.
type pool struct {
	wg  stdsync.WaitGroup
	sem chan struct{}
}

func newPool(limit int) *pool {
	if limit < 1 {
		limit = 1
	}
	return &pool{sem: make(chan struct{}, limit)}
}

func (p *pool) Go(fn func()) {
	p.wg.Add(1)
	p.sem <- struct{}{}
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		fn()
	}()
}

func (p *pool) Wait() {
	p.wg.Wait()
}
