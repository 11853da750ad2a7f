package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/haierkeys/note-keeper-service/internal/dto"

	"golang.org/x/sync/singleflight"
)

// TagCache caches the tag list of the session user
// Concurrent misses share a single request
// TagCache 缓存当前用户的标签列表，并发未命中时共用一次请求
type TagCache struct {
	client *Client
	group  singleflight.Group

	mu     sync.RWMutex
	tags   []*dto.TagDTO
	loaded bool
}

// NewTagCache 创建标签缓存，登出时自动清空
func NewTagCache(c *Client) *TagCache {
	tc := &TagCache{client: c}
	c.Session().OnLogout(tc.Invalidate)
	return tc
}

// List 返回标签列表，必要时从服务端加载
func (tc *TagCache) List(ctx context.Context) ([]*dto.TagDTO, error) {
	tc.mu.RLock()
	if tc.loaded {
		out := append([]*dto.TagDTO(nil), tc.tags...)
		tc.mu.RUnlock()
		return out, nil
	}
	tc.mu.RUnlock()

	v, err, _ := tc.group.Do("tags", func() (interface{}, error) {
		tags, err := tc.client.ListTags(ctx)
		if err != nil {
			return nil, err
		}
		tc.mu.Lock()
		tc.tags = tags
		tc.loaded = true
		tc.mu.Unlock()
		return tags, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]*dto.TagDTO(nil), v.([]*dto.TagDTO)...), nil
}

// Invalidate 清空缓存
func (tc *TagCache) Invalidate() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tags = nil
	tc.loaded = false
}

// Create 创建标签并更新缓存
func (tc *TagCache) Create(ctx context.Context, name string) (*dto.TagDTO, error) {
	tag, err := tc.client.CreateTag(ctx, name)
	if err != nil {
		return nil, err
	}
	tc.mu.Lock()
	if tc.loaded {
		tc.tags = append(tc.tags, tag)
		sort.Slice(tc.tags, func(i, j int) bool { return tc.tags[i].Name < tc.tags[j].Name })
	}
	tc.mu.Unlock()
	return tag, nil
}

// Delete 删除标签并更新缓存
func (tc *TagCache) Delete(ctx context.Context, id int64) error {
	if err := tc.client.DeleteTag(ctx, id); err != nil {
		return err
	}
	tc.mu.Lock()
	for i, t := range tc.tags {
		if t.ID == id {
			tc.tags = append(tc.tags[:i:i], tc.tags[i+1:]...)
			break
		}
	}
	tc.mu.Unlock()
	return nil
}

// Resolve maps tag names to ids; names are matched case-insensitively
// Resolve 将标签名转为 ID，名称不区分大小写
func (tc *TagCache) Resolve(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := tc.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(tags))
	for _, t := range tags {
		byName[t.Name] = t.ID
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("client: unknown tag %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
