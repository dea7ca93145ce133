// Package catalog loads and serves agent descriptors from markdown
// definition files: a YAML front matter header plus a markdown body that
// becomes the agent's system prompt. The directory layout gives each agent
// its namespace; a background watcher keeps the catalog current.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
)

// DefaultNamespace is where definition files at the catalog root live.
const DefaultNamespace = "core"

// snapshot is one immutable view of the catalog. Reloads build a fresh
// snapshot and swap it in whole, so readers never observe a half-loaded
// catalog.
type snapshot struct {
	// agents maps qualified names to descriptors.
	agents map[string]*entity.AgentDescriptor
	// namespaces maps a namespace to its sorted agent names.
	namespaces map[string][]string
}

func buildSnapshot(agents map[string]*entity.AgentDescriptor) *snapshot {
	snap := &snapshot{
		agents:     agents,
		namespaces: make(map[string][]string),
	}
	for _, agent := range agents {
		snap.namespaces[agent.Namespace] = append(snap.namespaces[agent.Namespace], agent.Name)
	}
	for _, names := range snap.namespaces {
		sort.Strings(names)
	}
	return snap
}

// Catalog resolves agent names against the loaded definition files.
type Catalog struct {
	dir              string
	defaultNamespace string

	mu   sync.RWMutex
	snap *snapshot

	watcher *watcher
}

// Option tunes a Catalog.
type Option func(*Catalog)

// WithDefaultNamespace overrides the namespace of root-level definitions.
func WithDefaultNamespace(ns string) Option {
	return func(c *Catalog) {
		if ns != "" {
			c.defaultNamespace = ns
		}
	}
}

// Load scans dir and returns a serving catalog. The catalog starts static;
// call Watch to keep it current.
func Load(dir string, opts ...Option) *Catalog {
	c := &Catalog{
		dir:              dir,
		defaultNamespace: DefaultNamespace,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reload()
	return c
}

// Reload rescans the directory and swaps in the fresh snapshot.
func (c *Catalog) Reload() {
	agents := scanDir(c.dir, c.defaultNamespace, func(format string, args ...interface{}) {
		logger.WarnX(moduleName, format, args...)
	})
	snap := buildSnapshot(agents)

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	if len(agents) == 0 {
		logger.WarnX(moduleName, "catalog at %s holds no agents", c.dir)
		return
	}
	logger.InfoX(moduleName, "catalog loaded %d agents from %s", len(agents), c.dir)
}

// Watch starts the definition-file watcher. On failure the catalog stays
// static with whatever the last scan loaded.
func (c *Catalog) Watch() {
	w, err := newWatcher(c.dir, c.Reload)
	if err != nil {
		logger.WarnX(moduleName, "catalog watcher could not start, definitions loaded statically: %v", err)
		return
	}
	c.watcher = w
}

// Close stops the watcher, if one is running.
func (c *Catalog) Close() error {
	if c.watcher != nil {
		c.watcher.stop()
	}
	return nil
}

func (c *Catalog) snapshot() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Resolve looks an agent up by name. Bare names resolve in the default
// namespace; "namespace/name" resolves exactly. A miss lists the sibling
// agents of the namespace searched so the caller can self-correct.
func (c *Catalog) Resolve(ctx context.Context, name string) (*entity.AgentDescriptor, error) {
	if name == "" {
		return nil, errno.Newf(errno.ErrInvalidArgument, "agent name must not be empty")
	}

	namespace := c.defaultNamespace
	short := name
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		namespace, short = name[:idx], name[idx+1:]
	}

	snap := c.snapshot()
	qualified := namespace + "/" + short
	if namespace == "" {
		qualified = short
	}
	if agent, ok := snap.agents[qualified]; ok {
		return agent, nil
	}

	siblings := make([]string, 0, len(snap.namespaces[namespace]))
	for _, s := range snap.namespaces[namespace] {
		if s != short {
			siblings = append(siblings, s)
		}
	}
	return nil, errno.AgentNotFound(short, namespace, siblings)
}

// List returns every descriptor, sorted by qualified name.
func (c *Catalog) List() []*entity.AgentDescriptor {
	snap := c.snapshot()
	out := make([]*entity.AgentDescriptor, 0, len(snap.agents))
	for _, agent := range snap.agents {
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Qualified() < out[j].Qualified() })
	return out
}

// Namespaces returns the sorted namespaces currently loaded.
func (c *Catalog) Namespaces() []string {
	snap := c.snapshot()
	out := make([]string, 0, len(snap.namespaces))
	for ns := range snap.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
