package table

import (
	"strings"
	"sync"

	"github.com/aquamarinepk/aqm"
)

// StorageKey is the on-device storage key holding the sticky table id.
const StorageKey = "currentTableId"

// Store is the on-device persistence backing the table context.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Context holds the single optional table identifier used to annotate
// outgoing orders. It is a client-side sticky default, not a server-synced
// entity: sourced from a path segment or the previously stored value,
// persisted on every explicit set.
type Context struct {
	mu     sync.Mutex
	id     string
	store  Store
	logger aqm.Logger
}

// NewContext seeds the context from the stored value, if any.
func NewContext(store Store, logger aqm.Logger) *Context {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	c := &Context{
		store:  store,
		logger: logger,
	}
	if store != nil {
		if data, ok := store.Get(StorageKey); ok {
			c.id = strings.TrimSpace(string(data))
		}
	}
	return c
}

// Set stores the table id. Setting the current value again is a no-op;
// setting an empty id clears the context.
func (c *Context) Set(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		c.Clear()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id == c.id {
		return
	}
	c.id = id
	if c.store != nil {
		if err := c.store.Put(StorageKey, []byte(id)); err != nil {
			c.logger.Infof("cannot persist table id: %v", err)
		}
	}
}

// Clear forgets the table id.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
	if c.store != nil {
		if err := c.store.Delete(StorageKey); err != nil {
			c.logger.Infof("cannot clear table id: %v", err)
		}
	}
}

// ID returns the current table id, or the empty string.
func (c *Context) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Has reports whether a table id is set.
func (c *Context) Has() bool {
	return c.ID() != ""
}
