package pool

import (
	"git.lost.host/meutraa/notefall/internal/game"
	"git.lost.host/meutraa/notefall/internal/log"
	"github.com/pkg/errors"
)

var ErrNoTemplate = errors.New("no template for note type")

type Config struct {
	InitialSize int // Instances created per type up front
	MaxSize     int // Pooled instances kept per type, 0 is unbounded
}

var DefaultConfig = Config{InitialSize: 32, MaxSize: 128}

// Stats always reconcile: Created == Active + Pooled + Destroyed.
type Stats struct {
	Active    int
	Pooled    int
	Destroyed int
	Created   int
	Peak      int // Largest Active + Pooled seen
}

type category struct {
	template Template
	free     []*Instance // LIFO
	active   []*Instance
	stats    Stats
}

// Pool keeps reusable note instances per note type. It is not safe for
// concurrent use, everything runs on the tick goroutine.
type Pool struct {
	cfg        Config
	categories map[game.NoteType]*category
	nextID     int
	logger     *log.Logger
}

// New pre-warms cfg.InitialSize instances for every template.
func New(cfg Config, templates map[game.NoteType]Template, logger *log.Logger) *Pool {
	if nil == logger {
		logger = log.Discard()
	}
	if cfg.InitialSize < 0 {
		cfg.InitialSize = 0
	}
	if cfg.MaxSize > 0 && cfg.InitialSize > cfg.MaxSize {
		logger.Warnf("pool initial size %d above max %d, warming %d", cfg.InitialSize, cfg.MaxSize, cfg.MaxSize)
		cfg.InitialSize = cfg.MaxSize
	}
	p := &Pool{
		cfg:        cfg,
		categories: make(map[game.NoteType]*category, len(templates)),
		logger:     logger,
	}
	capacity := cfg.InitialSize
	if cfg.MaxSize > capacity {
		capacity = cfg.MaxSize
	}
	for t, tmpl := range templates {
		c := &category{
			template: tmpl,
			free:     make([]*Instance, 0, capacity),
			active:   make([]*Instance, 0, capacity),
		}
		for i := 0; i < cfg.InitialSize; i++ {
			c.free = append(c.free, p.create(t, c))
		}
		c.stats.Pooled = len(c.free)
		c.stats.Peak = len(c.free)
		p.categories[t] = c
	}
	return p
}

func (p *Pool) create(t game.NoteType, c *category) *Instance {
	p.nextID++
	c.stats.Created++
	inst := &Instance{
		id:       p.nextID,
		noteType: t,
		template: &c.template,
		state:    pooled,
	}
	inst.reset()
	return inst
}

// Get hands out the most recently returned instance of type t, growing the
// pool when none is free.
func (p *Pool) Get(t game.NoteType) (*Instance, error) {
	c, ok := p.categories[t]
	if !ok {
		return nil, errors.Wrapf(ErrNoTemplate, "get %v", t)
	}

	var inst *Instance
	if n := len(c.free); n > 0 {
		inst = c.free[n-1]
		c.free[n-1] = nil
		c.free = c.free[:n-1]
		c.stats.Pooled--
	} else {
		inst = p.create(t, c)
		p.logger.Debugf("pool grew %v to %d instances", t, c.stats.Created-c.stats.Destroyed)
	}

	inst.state = active
	inst.Transform = Identity()
	inst.SetScale(1)
	inst.Alpha = 1
	inst.slot = len(c.active)
	c.active = append(c.active, inst)
	c.stats.Active++
	if live := c.stats.Active + c.stats.Pooled; live > c.stats.Peak {
		c.stats.Peak = live
	}
	return inst, nil
}

// Put takes an active instance back. Nil and already returned instances are
// ignored. When the free list is full the instance is destroyed instead.
func (p *Pool) Put(inst *Instance) {
	if nil == inst || inst.state != active {
		return
	}
	c, ok := p.categories[inst.noteType]
	if !ok {
		return
	}

	last := len(c.active) - 1
	moved := c.active[last]
	c.active[inst.slot] = moved
	moved.slot = inst.slot
	c.active[last] = nil
	c.active = c.active[:last]
	c.stats.Active--

	inst.reset()
	if p.cfg.MaxSize > 0 && len(c.free) >= p.cfg.MaxSize {
		inst.state = destroyed
		inst.template = nil
		c.stats.Destroyed++
		return
	}
	inst.state = pooled
	c.free = append(c.free, inst)
	c.stats.Pooled++
}

// Clear returns every active instance, used when a session ends.
func (p *Pool) Clear() {
	for _, c := range p.categories {
		for len(c.active) > 0 {
			p.Put(c.active[len(c.active)-1])
		}
	}
}

func (p *Pool) HasTemplate(t game.NoteType) bool {
	_, ok := p.categories[t]
	return ok
}

func (p *Pool) Stats(t game.NoteType) Stats {
	if c, ok := p.categories[t]; ok {
		return c.stats
	}
	return Stats{}
}

func (p *Pool) Statistics() map[game.NoteType]Stats {
	stats := make(map[game.NoteType]Stats, len(p.categories))
	for t, c := range p.categories {
		stats[t] = c.stats
	}
	return stats
}
