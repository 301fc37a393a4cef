package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// DeletePrefix removes every key starting with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

const (
	cachePrefixPosts      = "posts:"
	cachePrefixCategories = "categories"
	cachePrefixTags       = "tags"
)

func CacheKeyPosts(limit, offset int, category, tag, author string) string {
	return cachePrefixPosts + strconv.Itoa(limit) + ":" + strconv.Itoa(offset) + ":" + category + ":" + tag + ":" + author
}

func CacheKeyCategories() string {
	return cachePrefixCategories
}

func CacheKeyTags() string {
	return cachePrefixTags
}

// InvalidatePosts drops every cached post listing.
func (c *Cache) InvalidatePosts() {
	c.DeletePrefix(cachePrefixPosts)
}

func (c *Cache) InvalidateCategories() {
	c.Delete(CacheKeyCategories())
}

func (c *Cache) InvalidateTags() {
	c.Delete(CacheKeyTags())
}
