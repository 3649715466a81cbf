package client

import "sync"

// QueryCache 客户端查询缓存。只做整键失效，从不局部合并：
// 变更发生后调用 Invalidate，下一次读取重新拉取完整数据。
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]interface{})}
}

func (c *QueryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *QueryCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate 删除一组键，缺失的键忽略
func (c *QueryCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// InvalidateObjective 目标相关变更后的标准失效组合
func (c *QueryCache) InvalidateObjective(objectiveID string) {
	c.Invalidate(
		"objective:"+objectiveID,
		"objectives",
		"generation-status:"+objectiveID,
	)
}

func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{})
}
