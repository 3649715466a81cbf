package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"skillsprint_backend/internal/model"
)

// fakeFetcher 内存门禁源，验证轮询器不依赖HTTP传输
type fakeFetcher struct {
	mu     sync.Mutex
	status *model.GenerationStatus
	err    error
	calls  int32
}

func (f *fakeFetcher) FetchGenerationStatus(ctx context.Context, objectiveID string) (*model.GenerationStatus, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.err
}

func (f *fakeFetcher) set(st *model.GenerationStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = st
	f.err = err
}

func TestPollerSubscribeFetchesImmediately(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.set(&model.GenerationStatus{CanGenerate: true}, nil)

	p := NewGenerationPoller(fetcher)
	p.Interval = time.Hour // 只靠首次拉取

	got := make(chan *model.GenerationStatus, 1)
	unsub := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {
		if err == nil {
			got <- st
		}
	})
	defer unsub()

	select {
	case st := <-got:
		if !st.CanGenerate {
			t.Error("CanGenerate = false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial fetch")
	}
}

func TestPollerRefreshTriggersFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.set(&model.GenerationStatus{}, nil)

	p := NewGenerationPoller(fetcher)
	p.Interval = time.Hour

	results := make(chan *model.GenerationStatus, 4)
	unsub := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {
		if err == nil {
			results <- st
		}
	})
	defer unsub()

	<-results // 首次拉取

	day := 2
	fetcher.set(&model.GenerationStatus{CanGenerate: true, NextSprintDay: &day}, nil)
	p.Refresh("obj-1")

	select {
	case st := <-results:
		if !st.CanGenerate || st.NextSprintDay == nil || *st.NextSprintDay != 2 {
			t.Errorf("unexpected status after refresh: %+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not trigger a fetch")
	}
}

func TestPollerUnsubscribeStopsLoop(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.set(&model.GenerationStatus{}, nil)

	p := NewGenerationPoller(fetcher)
	p.Interval = 20 * time.Millisecond

	unsub := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {})
	time.Sleep(60 * time.Millisecond)
	unsub()
	unsub() // 幂等

	calls := atomic.LoadInt32(&fetcher.calls)
	time.Sleep(80 * time.Millisecond)
	if after := atomic.LoadInt32(&fetcher.calls); after != calls {
		t.Errorf("poll loop still running after unsubscribe: %d -> %d", calls, after)
	}

	p.mu.Lock()
	_, alive := p.loops["obj-1"]
	p.mu.Unlock()
	if alive {
		t.Error("loop not removed after last unsubscribe")
	}
}

func TestPollerSharesLoopAcrossSubscribers(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.set(&model.GenerationStatus{}, nil)

	p := NewGenerationPoller(fetcher)
	p.Interval = time.Hour

	var calls1, calls2 int32
	unsub1 := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {
		atomic.AddInt32(&calls1, 1)
	})
	unsub2 := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {
		atomic.AddInt32(&calls2, 1)
	})
	defer unsub1()
	defer unsub2()

	p.Refresh("obj-1")
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls2) == 0 {
		select {
		case <-deadline:
			t.Fatal("second subscriber never notified")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	p.mu.Lock()
	loops := len(p.loops)
	p.mu.Unlock()
	if loops != 1 {
		t.Errorf("loops = %d, want 1 shared loop", loops)
	}
}

func TestPollerSurvivesSubscriberContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.set(&model.GenerationStatus{}, nil)

	p := NewGenerationPoller(fetcher)
	p.Interval = time.Hour

	// 第一个订阅方通过取消ctx退出（典型的页面卸载路径），不调用退订函数
	ctx1, cancel1 := context.WithCancel(context.Background())
	p.Subscribe(ctx1, "obj-1", func(st *model.GenerationStatus, err error) {})
	cancel1()

	deadline := time.After(2 * time.Second)
	for {
		p.mu.Lock()
		_, alive := p.loops["obj-1"]
		p.mu.Unlock()
		if !alive {
			break
		}
		select {
		case <-deadline:
			t.Fatal("loop still registered after subscriber ctx cancel")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	// 后来的订阅方必须拿到新的活循环和回调
	var calls2 int32
	unsub2 := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {
		atomic.AddInt32(&calls2, 1)
	})
	defer unsub2()

	p.Refresh("obj-1")
	deadline = time.After(2 * time.Second)
	for atomic.LoadInt32(&calls2) == 0 {
		select {
		case <-deadline:
			t.Fatal("subscriber after ctx cancel never notified")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestPollerReportsErrors(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.set(nil, errors.New("backend down"))

	p := NewGenerationPoller(fetcher)
	p.Interval = time.Hour

	errs := make(chan error, 1)
	unsub := p.Subscribe(context.Background(), "obj-1", func(st *model.GenerationStatus, err error) {
		if err != nil {
			errs <- err
		}
	})
	defer unsub()

	select {
	case err := <-errs:
		if err.Error() != "backend down" {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error never surfaced to callback")
	}
}
