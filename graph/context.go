package graph

// Context provides the environment shared by all nodes of one graph. It also
// counts the live nodes, so that leaked nodes can be detected.
type Context struct {
	SampleRate float64

	live   int
	lastID int
}

func NewContext(sampleRate float64) *Context {
	return &Context{SampleRate: sampleRate}
}

// Live returns the number of nodes created in this context and not yet
// disposed.
func (c *Context) Live() int { return c.live }

func (c *Context) allocate() int {
	c.live++
	c.lastID++
	return c.lastID
}

func (c *Context) release() {
	c.live--
}
