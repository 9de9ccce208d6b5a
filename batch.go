package batch

import (
	"fmt"
	"sort"

	"github.com/gogpu/batch/domain"
	"github.com/gogpu/batch/render"
	"github.com/gogpu/gputypes"
)

// Config controls batch behavior. The zero value is a valid
// configuration with sensible defaults.
type Config struct {
	// InitialCapacity is the vertex capacity each new domain starts
	// with. Zero selects the domain default.
	InitialCapacity int

	// MaxCapacity bounds the vertex capacity a single domain may grow
	// to. Zero means unbounded.
	MaxCapacity int
}

// domainEntry pairs a vertex domain with its creation-order id. Ids give
// the draw list a stable domain iteration order.
type domainEntry struct {
	id  int
	key string
	dom *domain.VertexDomain
}

// groupNode is the batch's resolved form of a Group. Value-equal groups
// under the same resolved parent share one node, so state is set once
// for all their content.
type groupNode struct {
	group    Group
	parent   *groupNode
	children []*groupNode
	seq      int // first-added order, breaks Order ties
}

// bucketKey addresses the merge tracker for one (domain, group) pair. A
// nil node is the ungrouped bucket of that domain.
type bucketKey struct {
	dom  *domainEntry
	node *groupNode
}

// listEntry remembers where a vertex list lives so Delete and Migrate
// can find its bucket range.
type listEntry struct {
	dom  *domainEntry
	node *groupNode
}

// Batch collects vertex lists that share attribute storage and replays
// them with a minimal, cached sequence of backend operations.
//
// Lists with the same attribute signature and topology share one vertex
// domain. Lists that are also index-adjacent within the same group merge
// into a single draw call. Mutations only mark the cached draw list
// dirty; the next Draw rebuilds it.
//
// A Batch is not safe for concurrent use.
type Batch struct {
	cfg Config

	nextDomainID int
	domains      []*domainEntry          // creation order
	byKey        map[string]*domainEntry // signature key + topology

	seq   int
	roots []*groupNode
	nodes map[uint64][]*groupNode // Group.Key() hash buckets

	buckets map[bucketKey]*bucket
	lists   map[*domain.VertexList]*listEntry

	drawList []drawOp // nil means dirty
	rebuilds uint64

	lastDrawCalls    int
	lastStateChanges int
	lastBinds        int
}

// New creates an empty batch.
func New(cfg Config) *Batch {
	return &Batch{
		cfg:     cfg,
		byKey:   make(map[string]*domainEntry),
		nodes:   make(map[uint64][]*groupNode),
		buckets: make(map[bucketKey]*bucket),
		lists:   make(map[*domain.VertexList]*listEntry),
	}
}

// domainKey identifies the domain a signature and topology map to.
// The signature key is order-normalized, so attribute order does not
// fragment domains.
func domainKey(sig domain.Signature, topology gputypes.PrimitiveTopology) string {
	return fmt.Sprintf("%s|topo=%d", sig.Key(), topology)
}

// Add creates a vertex list of count vertices drawn with the given
// topology under group, and returns its handle. A nil group places the
// list in the batch's ungrouped content, which draws before all grouped
// content.
//
// data optionally seeds attribute arrays by name; missing attributes
// start zeroed. Each provided slice must hold exactly count times the
// attribute's component count of floats.
func (b *Batch) Add(count int, topology gputypes.PrimitiveTopology, sig domain.Signature, group Group, data map[string][]float32) (*domain.VertexList, error) {
	entry, created, err := b.domainFor(sig, topology)
	if err != nil {
		return nil, err
	}
	vl, err := entry.dom.CreateVertexList(count, data)
	if err != nil {
		// A failed mutation leaves the batch untouched: unwind a domain
		// that exists only because of this call.
		if created {
			b.domains = b.domains[:len(b.domains)-1]
			delete(b.byKey, entry.key)
		}
		return nil, err
	}

	node := b.resolve(group)
	b.bucketFor(entry, node).add(vl.Start(), vl.Count())
	b.lists[vl] = &listEntry{dom: entry, node: node}
	b.invalidate()

	slogger().Debug("vertex list added",
		"domain", entry.id, "start", vl.Start(), "count", vl.Count())
	return vl, nil
}

// Delete removes a vertex list from the batch and releases its vertex
// region for reuse. The handle is dead afterwards.
func (b *Batch) Delete(vl *domain.VertexList) error {
	entry, ok := b.lists[vl]
	if !ok {
		return ErrVertexListNotFound
	}
	start, count := vl.Start(), vl.Count()
	if !b.removeFromBucket(entry, start, count) {
		return fmt.Errorf("%w: range %d+%d missing from bucket", ErrVertexListNotFound, start, count)
	}
	if err := entry.dom.dom.Delete(vl); err != nil {
		return err
	}
	delete(b.lists, vl)
	b.invalidate()

	slogger().Debug("vertex list deleted",
		"domain", entry.dom.id, "start", start, "count", count)
	return nil
}

// Migrate moves a vertex list to a different group. The list keeps its
// domain, storage and data; only its draw grouping changes.
func (b *Batch) Migrate(vl *domain.VertexList, group Group) error {
	entry, ok := b.lists[vl]
	if !ok {
		return ErrVertexListNotFound
	}
	node := b.resolve(group)
	if node == entry.node {
		return nil
	}
	if !b.removeFromBucket(entry, vl.Start(), vl.Count()) {
		return fmt.Errorf("%w: range %d+%d missing from bucket", ErrVertexListNotFound, vl.Start(), vl.Count())
	}
	b.bucketFor(entry.dom, node).add(vl.Start(), vl.Count())
	entry.node = node
	b.invalidate()
	return nil
}

// Resize replaces a vertex list with one of a different vertex count
// under the same group, returning the new handle. Attribute data is
// preserved up to the smaller of the old and new counts; the old handle
// is dead afterwards.
func (b *Batch) Resize(vl *domain.VertexList, count int) (*domain.VertexList, error) {
	entry, ok := b.lists[vl]
	if !ok {
		return nil, ErrVertexListNotFound
	}
	dom := entry.dom.dom
	node := entry.node

	// Snapshot surviving data before the old region is released.
	keep := min(vl.Count(), count)
	saved := make(map[string][]float32, len(dom.Signature()))
	for _, attr := range dom.Signature() {
		src, err := vl.Attribute(attr.Name)
		if err != nil {
			return nil, err
		}
		comps := attr.Components()
		cp := make([]float32, keep*comps)
		copy(cp, src[:keep*comps])
		saved[attr.Name] = cp
	}

	if err := b.Delete(vl); err != nil {
		return nil, err
	}
	nvl, err := dom.CreateVertexList(count, nil)
	if err != nil {
		return nil, err
	}
	for name, vals := range saved {
		dst, aerr := nvl.Attribute(name)
		if aerr != nil {
			return nil, aerr
		}
		copy(dst, vals)
	}
	b.bucketFor(entry.dom, node).add(nvl.Start(), nvl.Count())
	b.lists[nvl] = &listEntry{dom: entry.dom, node: node}
	b.invalidate()
	return nvl, nil
}

// Draw replays the batch against the backend, rebuilding the cached
// draw list first if any mutation invalidated it.
func (b *Batch) Draw(backend render.Backend) {
	if b.drawList == nil {
		b.rebuild()
	}
	for _, op := range b.drawList {
		op.apply(backend)
	}
}

// DrawGroup replays only the content of one group subtree, with the
// full ancestor state applied around it. It bypasses the cached draw
// list and does not rebuild it.
func (b *Batch) DrawGroup(backend render.Backend, group Group) {
	node := b.lookup(group)
	if node == nil && group != nil {
		return
	}
	SetStateRecursive(group, backend)
	if group != nil && group.Parent() != nil {
		// Ancestor chain is applied above; emit only the subtree below.
		defer UnsetStateRecursive(group.Parent(), backend)
	}
	ops := b.compileNode(node, -1)
	for _, op := range ops {
		op.apply(backend)
	}
	if group != nil && group.HasState() {
		group.UnsetState(backend)
	}
}

// InvalidateDrawList discards the cached draw list, forcing the next
// Draw to rebuild it. Batch mutations call this automatically; it is
// exposed for callers that mutate group state objects in place.
func (b *Batch) InvalidateDrawList() { b.invalidate() }

func (b *Batch) invalidate() { b.drawList = nil }

// domainFor returns the domain for a signature/topology pair, creating
// it on first use. created reports whether this call made the domain, so
// a failing Add can unwind it.
func (b *Batch) domainFor(sig domain.Signature, topology gputypes.PrimitiveTopology) (*domainEntry, bool, error) {
	key := domainKey(sig, topology)
	if entry, ok := b.byKey[key]; ok {
		return entry, false, nil
	}
	dom, err := domain.New(sig, topology, domain.Config{
		InitialCapacity: b.cfg.InitialCapacity,
		MaxCapacity:     b.cfg.MaxCapacity,
	})
	if err != nil {
		return nil, false, err
	}
	entry := &domainEntry{id: b.nextDomainID, key: key, dom: dom}
	b.nextDomainID++
	b.domains = append(b.domains, entry)
	b.byKey[key] = entry
	slogger().Info("domain created", "id", entry.id, "key", key)
	return entry, true, nil
}

// resolve maps a Group to its node, creating the node (and transitively
// its ancestors) on first use. Value-equal groups under the same
// resolved parent share a node.
func (b *Batch) resolve(g Group) *groupNode {
	if g == nil {
		return nil
	}
	parent := b.resolve(g.Parent())
	key := g.Key()
	for _, n := range b.nodes[key] {
		if n.parent == parent && n.group.Equal(g) {
			return n
		}
	}
	n := &groupNode{group: g, parent: parent, seq: b.seq}
	b.seq++
	b.nodes[key] = append(b.nodes[key], n)
	if parent == nil {
		b.roots = append(b.roots, n)
	} else {
		parent.children = append(parent.children, n)
	}
	return n
}

// lookup is resolve without the create: it returns nil when the group
// chain has never been added to the batch.
func (b *Batch) lookup(g Group) *groupNode {
	if g == nil {
		return nil
	}
	parent := b.lookup(g.Parent())
	if parent == nil && g.Parent() != nil {
		return nil
	}
	for _, n := range b.nodes[g.Key()] {
		if n.parent == parent && n.group.Equal(g) {
			return n
		}
	}
	return nil
}

func (b *Batch) bucketFor(dom *domainEntry, node *groupNode) *bucket {
	key := bucketKey{dom: dom, node: node}
	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{}
		b.buckets[key] = bk
	}
	return bk
}

func (b *Batch) removeFromBucket(entry *listEntry, start, count int) bool {
	key := bucketKey{dom: entry.dom, node: entry.node}
	bk, ok := b.buckets[key]
	if !ok || !bk.remove(start, count) {
		return false
	}
	if bk.empty() {
		delete(b.buckets, key)
	}
	return true
}

// rebuild compiles the batch into a flat operation list. Empty domains
// and group subtrees with no content are pruned here, not at mutation
// time, so a delete-then-add within one frame never thrashes them.
func (b *Batch) rebuild() {
	b.pruneDomains()
	b.pruneGroups()

	// Non-nil even when empty: nil is the dirty marker.
	ops := []drawOp{}
	lastBound := -1

	// Ungrouped content draws first.
	ops = appendNodeOps(ops, b, nil, &lastBound)

	roots := append([]*groupNode(nil), b.roots...)
	sortNodes(roots)
	for _, n := range roots {
		ops = b.compileSubtree(ops, n, &lastBound)
	}

	b.drawList = ops
	b.rebuilds++
	b.lastDrawCalls, b.lastStateChanges, b.lastBinds = tally(ops)
	slogger().Debug("draw list rebuilt",
		"ops", len(ops), "draws", b.lastDrawCalls, "rebuilds", b.rebuilds)
}

// compileSubtree emits set-state, own content, children, unset-state for
// one node. Stateless groups contribute no state ops.
func (b *Batch) compileSubtree(ops []drawOp, n *groupNode, lastBound *int) []drawOp {
	if !b.hasContent(n) {
		return ops
	}
	stateful := n.group.HasState()
	if stateful {
		ops = append(ops, setStateOp{group: n.group})
	}
	ops = appendNodeOps(ops, b, n, lastBound)

	children := append([]*groupNode(nil), n.children...)
	sortNodes(children)
	for _, c := range children {
		ops = b.compileSubtree(ops, c, lastBound)
	}
	if stateful {
		ops = append(ops, unsetStateOp{group: n.group})
	}
	return ops
}

// compileNode builds ops for a single subtree with fresh bind tracking,
// for DrawGroup.
func (b *Batch) compileNode(n *groupNode, lastBound int) []drawOp {
	var ops []drawOp
	if n == nil {
		return appendNodeOps(nil, b, nil, &lastBound)
	}
	ops = appendNodeOps(ops, b, n, &lastBound)
	children := append([]*groupNode(nil), n.children...)
	sortNodes(children)
	for _, c := range children {
		ops = b.compileSubtree(ops, c, &lastBound)
	}
	return ops
}

// appendNodeOps emits bind and draw ops for every merged range the node
// holds, walking domains in creation order. A bind is skipped when the
// previous draw already bound the same domain.
func appendNodeOps(ops []drawOp, b *Batch, n *groupNode, lastBound *int) []drawOp {
	for _, entry := range b.domains {
		bk, ok := b.buckets[bucketKey{dom: entry, node: n}]
		if !ok || bk.empty() {
			continue
		}
		if *lastBound != entry.id {
			ops = append(ops, bindOp{dom: entry.dom, id: entry.id})
			*lastBound = entry.id
		}
		for _, s := range bk.spans() {
			ops = append(ops, drawRangeOp{
				topology: entry.dom.Topology(),
				first:    s.start,
				count:    s.count,
			})
		}
	}
	return ops
}

// hasContent reports whether a subtree holds any drawable range.
func (b *Batch) hasContent(n *groupNode) bool {
	for _, entry := range b.domains {
		if bk, ok := b.buckets[bucketKey{dom: entry, node: n}]; ok && !bk.empty() {
			return true
		}
	}
	for _, c := range n.children {
		if b.hasContent(c) {
			return true
		}
	}
	return false
}

// pruneDomains drops domains that hold no live vertex lists.
func (b *Batch) pruneDomains() {
	kept := b.domains[:0]
	for _, entry := range b.domains {
		if entry.dom.Empty() {
			delete(b.byKey, entry.key)
			slogger().Info("domain pruned", "id", entry.id, "key", entry.key)
			continue
		}
		kept = append(kept, entry)
	}
	b.domains = kept
}

// pruneGroups drops group nodes whose subtree holds no content.
func (b *Batch) pruneGroups() {
	var walk func(n *groupNode) bool
	walk = func(n *groupNode) bool {
		keptChildren := n.children[:0]
		for _, c := range n.children {
			if walk(c) {
				keptChildren = append(keptChildren, c)
			} else {
				b.dropNode(c)
			}
		}
		n.children = keptChildren
		return b.hasContent(n)
	}
	keptRoots := b.roots[:0]
	for _, n := range b.roots {
		if walk(n) {
			keptRoots = append(keptRoots, n)
		} else {
			b.dropNode(n)
		}
	}
	b.roots = keptRoots
}

func (b *Batch) dropNode(n *groupNode) {
	key := n.group.Key()
	peers := b.nodes[key]
	for i, p := range peers {
		if p == n {
			b.nodes[key] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	if len(b.nodes[key]) == 0 {
		delete(b.nodes, key)
	}
}

// sortNodes orders siblings by group Order, then by the order they were
// first added to the batch.
func sortNodes(nodes []*groupNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		oi, oj := nodes[i].group.Order(), nodes[j].group.Order()
		if oi != oj {
			return oi < oj
		}
		return nodes[i].seq < nodes[j].seq
	})
}
