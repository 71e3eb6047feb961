package sprite

// DrawProxy is one step of the draw pipeline.
//
// Draw receives the destination, the source and the draw arguments. A
// non-terminal proxy rewrites the arguments and forwards them to
// infos.Proxy; a terminal performs the draw.
type DrawProxy interface {
	Draw(dst, src *Image, infos DrawInfos)
}

// ProxyFunc adapts a function to the DrawProxy interface.
type ProxyFunc func(dst, src *Image, infos DrawInfos)

// Draw calls f(dst, src, infos).
func (f ProxyFunc) Draw(dst, src *Image, infos DrawInfos) { f(dst, src, infos) }

// Forward hands infos to their next step, or to the default terminal of
// dst's renderer when there is none. Proxies call it to continue a chain.
func Forward(dst, src *Image, infos DrawInfos) {
	if infos.Proxy != nil {
		infos.Proxy.Draw(dst, src, infos)
		return
	}
	dst.terminal().Draw(dst, src, infos)
}

// Chain runs a fixed sequence of proxies, then the destination renderer's
// default terminal.
//
// Each proxy sees a DrawInfos whose Proxy is a link to the next element,
// so a proxy forwards simply by calling Forward (or infos.Proxy.Draw).
// Proxy i runs before proxy i+1, and each runs at most once per draw.
type Chain struct {
	proxies []DrawProxy
}

// NewChain builds a chain from one or more proxies.
func NewChain(proxies ...DrawProxy) (*Chain, error) {
	if len(proxies) == 0 {
		return nil, ErrEmptyChain
	}
	return &Chain{proxies: append([]DrawProxy(nil), proxies...)}, nil
}

// MustChain is like NewChain but panics on an empty proxy list.
func MustChain(proxies ...DrawProxy) *Chain {
	c, err := NewChain(proxies...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of proxies.
func (c *Chain) Len() int { return len(c.proxies) }

// Draw starts the chain at its first proxy.
func (c *Chain) Draw(dst, src *Image, infos DrawInfos) {
	link{chain: c}.Draw(dst, src, infos)
}

// link continues a chain at index i.
type link struct {
	chain *Chain
	i     int
}

func (l link) Draw(dst, src *Image, infos DrawInfos) {
	if l.i >= len(l.chain.proxies) {
		dst.terminal().Draw(dst, src, infos.WithProxy(nil))
		return
	}
	l.chain.proxies[l.i].Draw(dst, src, infos.WithProxy(link{chain: l.chain, i: l.i + 1}))
}
