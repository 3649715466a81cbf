package client

import (
	"context"
	"sync"
	"time"

	"skillsprint_backend/internal/model"
)

// StatusFetcher 拉取生成门禁的传输层。默认实现走HTTP轮询，
// 可替换为WebSocket推送等其他来源而不改动订阅方。
type StatusFetcher interface {
	FetchGenerationStatus(ctx context.Context, objectiveID string) (*model.GenerationStatus, error)
}

// FetchGenerationStatus 让 *Client 直接充当 StatusFetcher
func (c *Client) FetchGenerationStatus(ctx context.Context, objectiveID string) (*model.GenerationStatus, error) {
	return c.GetGenerationStatus(ctx, objectiveID)
}

// StatusCallback 每次拉取到门禁后回调；err 非nil时 status 为nil
type StatusCallback func(status *model.GenerationStatus, err error)

const defaultPollInterval = 5 * time.Second

// GenerationPoller 按目标订阅生成门禁。同一目标的多个订阅共享一个轮询循环，
// 最后一个订阅退出时停止该循环。
type GenerationPoller struct {
	Fetcher  StatusFetcher
	Interval time.Duration

	mu    sync.Mutex
	loops map[string]*pollLoop
}

type pollLoop struct {
	cancel    context.CancelFunc
	refresh   chan struct{}
	callbacks map[int]StatusCallback
	nextID    int
}

func NewGenerationPoller(fetcher StatusFetcher) *GenerationPoller {
	return &GenerationPoller{
		Fetcher:  fetcher,
		Interval: defaultPollInterval,
		loops:    make(map[string]*pollLoop),
	}
}

// Subscribe 订阅目标的门禁变化，立即拉取一次后按固定间隔轮询。
// 共享循环不挂在任何订阅方的ctx上，只随最后一个订阅退出而停止；
// 订阅方取消自己的ctx等价于调用一次退订。返回的取消函数幂等。
func (p *GenerationPoller) Subscribe(ctx context.Context, objectiveID string, callback StatusCallback) (unsubscribe func()) {
	p.mu.Lock()
	loop, ok := p.loops[objectiveID]
	if !ok {
		loopCtx, cancel := context.WithCancel(context.Background())
		loop = &pollLoop{
			cancel:    cancel,
			refresh:   make(chan struct{}, 1),
			callbacks: make(map[int]StatusCallback),
		}
		p.loops[objectiveID] = loop
		go p.run(loopCtx, objectiveID, loop)
	}
	id := loop.nextID
	loop.nextID++
	loop.callbacks[id] = callback
	p.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	unsubscribe = func() {
		once.Do(func() {
			close(done)
			p.mu.Lock()
			defer p.mu.Unlock()
			if l, ok := p.loops[objectiveID]; ok {
				delete(l.callbacks, id)
				if len(l.callbacks) == 0 {
					l.cancel()
					delete(p.loops, objectiveID)
				}
			}
		})
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				unsubscribe()
			case <-done:
			}
		}()
	}
	return unsubscribe
}

// Refresh 不等下一个周期，立即触发一次拉取
func (p *GenerationPoller) Refresh(objectiveID string) {
	p.mu.Lock()
	loop, ok := p.loops[objectiveID]
	p.mu.Unlock()
	if !ok {
		return
	}
	select {
	case loop.refresh <- struct{}{}:
	default:
	}
}

func (p *GenerationPoller) run(ctx context.Context, objectiveID string, loop *pollLoop) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.poll(ctx, objectiveID, loop)
	for {
		select {
		case <-ctx.Done():
			return
		case <-loop.refresh:
			p.poll(ctx, objectiveID, loop)
		case <-ticker.C:
			p.poll(ctx, objectiveID, loop)
		}
	}
}

func (p *GenerationPoller) poll(ctx context.Context, objectiveID string, loop *pollLoop) {
	status, err := p.Fetcher.FetchGenerationStatus(ctx, objectiveID)

	p.mu.Lock()
	callbacks := make([]StatusCallback, 0, len(loop.callbacks))
	for _, cb := range loop.callbacks {
		callbacks = append(callbacks, cb)
	}
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(status, err)
	}
}
