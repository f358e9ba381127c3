package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// cachedHeaders are the response headers that describe the body. Headers
// set per caller, such as CORS and request ids, are never replayed.
var cachedHeaders = []string{"Content-Type", "Content-Disposition"}

func contentHeaders(h http.Header) http.Header {
	out := make(http.Header, len(cachedHeaders))
	for _, k := range cachedHeaders {
		if v := h.Values(k); len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache caches successful GET responses in memory until they expire
// or a write flushes them. A response rendered from data read before a
// flush is never stored after it.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewResponseCache creates a cache whose entries live for ttl. A
// non-positive ttl disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (rc *ResponseCache) generation() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.gen
}

func (rc *ResponseCache) put(key string, resp cachedResponse, gen uint64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.gen != gen {
		return
	}
	rc.store.Set(key, resp, rc.ttl)
}

// Flush drops every cached response.
func (rc *ResponseCache) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.gen++
	rc.store.Flush()
}

// Cache is a middleware for in-memory caching of GET requests.
func (rc *ResponseCache) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || rc.ttl <= 0 {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := rc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		gen := rc.generation()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			rc.put(key, cachedResponse{
				status:  blw.Status(),
				headers: contentHeaders(blw.Header()),
				body:    blw.body.Bytes(),
			}, gen)
		}
	}
}

// Invalidate flushes the cache after every successful non-GET request.
func (rc *ResponseCache) Invalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if s := c.Writer.Status(); s >= 200 && s < 300 {
			rc.Flush()
		}
	}
}
