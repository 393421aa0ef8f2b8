package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/api"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
	"github.com/charlesng35/storedesk/pkg/metrics"
)

// DefaultPageSize is the number of entities requested per page.
const DefaultPageSize = 10

// ErrNotLoaded is returned by local operations that target an entity the store does not hold.
var ErrNotLoaded = errors.New("store: entity not loaded")

// Entity is implemented by every type held in a collection.
type Entity[T any] interface {
	EntityID() string
	Clone() T
}

// Binding connects a collection to its backend endpoints. Page is always 1-based here;
// bindings translate to whatever the endpoint expects.
type Binding[T Entity[T], F any] struct {
	Name string
	List func(ctx context.Context, filters F, page, limit int) (api.Page[T], error)
	Get  func(ctx context.Context, id string) (T, error)
}

// State is a point-in-time copy of a collection.
type State[T Entity[T], F any] struct {
	Items           []T
	Selected        *T
	Filters         F
	Page            int
	HasMore         bool
	IsLoading       bool
	IsRefreshing    bool
	IsLoadingMore   bool
	IsLoadingDetail bool
	Error           string
}

// Option customises a collection.
type Option func(*options)

type options struct {
	pageSize int
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Collection owns a paginated, filtered list of entities, a selected detail slot and the
// snapshots used to revert optimistic writes. It is safe for concurrent use; the lock is never
// held across a backend call.
//
// Every list request records the list generation at dispatch. Resets, refreshes and filter
// changes advance the generation, and a response whose generation is no longer current is
// dropped. Detail requests are tracked the same way so a late response cannot repopulate a
// cleared or re-targeted detail slot.
type Collection[T Entity[T], F any] struct {
	binding  Binding[T, F]
	pageSize int
	log      *zap.Logger

	mu        sync.Mutex
	state     State[T, F]
	originals map[string]T
	listGen   uint64
	detailGen uint64
	listeners map[int]func(State[T, F])
	nextID    int
}

// NewCollection constructs a collection around binding.
func NewCollection[T Entity[T], F any](binding Binding[T, F], filters F, opts ...Option) *Collection[T, F] {
	o := buildOptions(opts)
	return &Collection[T, F]{
		binding:   binding,
		pageSize:  o.pageSize,
		log:       logger.WithModule("store." + binding.Name),
		state:     State[T, F]{Filters: filters, Page: 1},
		originals: make(map[string]T),
		listeners: make(map[int]func(State[T, F])),
	}
}

// Name identifies the collection in logs and metrics.
func (c *Collection[T, F]) Name() string { return c.binding.Name }

// PageSize returns the page limit sent with every list request.
func (c *Collection[T, F]) PageSize() int { return c.pageSize }

// Fetch loads the list. With reset the list is cleared and page 1 is requested; otherwise the
// current page is requested again and merged into the list. Failures are recorded in the
// state's Error field and also returned for callers that aggregate them.
func (c *Collection[T, F]) Fetch(ctx context.Context, reset bool) error {
	c.mu.Lock()
	var page int
	if reset {
		c.listGen++
		c.clearListFlagsLocked()
		c.state.Items = nil
		c.state.Page = 1
		c.state.HasMore = false
		page = 1
	} else {
		page = c.state.Page
	}
	c.state.IsLoading = true
	c.state.Error = ""
	gen := c.listGen
	filters := c.state.Filters
	c.mu.Unlock()
	c.notify()

	mode := "merge"
	if reset {
		mode = "reset"
	}

	result, err := c.binding.List(ctx, filters, page, c.pageSize)

	c.mu.Lock()
	if gen != c.listGen {
		c.mu.Unlock()
		c.discardStale(mode)
		return nil
	}
	c.state.IsLoading = false
	if err != nil {
		c.state.Error = apperrors.UserMessage(err)
		c.mu.Unlock()
		metrics.StoreFetches.WithLabelValues(c.binding.Name, mode, "failure").Inc()
		c.log.Warn("fetch failed", zap.String("mode", mode), zap.Int("page", page), zap.Error(err))
		c.notify()
		return err
	}
	if reset {
		c.state.Items = cloneAll(result.Data)
	} else {
		c.state.Items = upsertAll(c.state.Items, result.Data)
	}
	c.state.HasMore = c.hasMore(result)
	c.mu.Unlock()

	metrics.StoreFetches.WithLabelValues(c.binding.Name, mode, "success").Inc()
	c.notify()
	return nil
}

// Refresh re-requests page 1 under the current filters and replaces the list once the response
// arrives; the old list stays visible meanwhile. Failures leave the list untouched and are not
// recorded in Error.
func (c *Collection[T, F]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.listGen++
	c.clearListFlagsLocked()
	c.state.IsRefreshing = true
	gen := c.listGen
	filters := c.state.Filters
	c.mu.Unlock()
	c.notify()

	result, err := c.binding.List(ctx, filters, 1, c.pageSize)

	c.mu.Lock()
	if gen != c.listGen {
		c.mu.Unlock()
		c.discardStale("refresh")
		return nil
	}
	c.state.IsRefreshing = false
	if err != nil {
		c.mu.Unlock()
		metrics.StoreFetches.WithLabelValues(c.binding.Name, "refresh", "failure").Inc()
		c.log.Warn("refresh failed; keeping stale list", zap.Error(err))
		c.notify()
		return err
	}
	c.state.Items = cloneAll(result.Data)
	c.state.Page = 1
	c.state.HasMore = c.hasMore(result)
	c.mu.Unlock()

	metrics.StoreFetches.WithLabelValues(c.binding.Name, "refresh", "success").Inc()
	c.notify()
	return nil
}

// LoadMore appends the next page. It is a no-op when there is nothing more to load, a
// load-more is already in flight, or a fetch or refresh is about to replace the list.
func (c *Collection[T, F]) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.HasMore || c.state.IsLoadingMore || c.state.IsLoading || c.state.IsRefreshing {
		c.mu.Unlock()
		return nil
	}
	c.state.IsLoadingMore = true
	gen := c.listGen
	next := c.state.Page + 1
	filters := c.state.Filters
	c.mu.Unlock()
	c.notify()

	result, err := c.binding.List(ctx, filters, next, c.pageSize)

	c.mu.Lock()
	if gen != c.listGen {
		c.mu.Unlock()
		c.discardStale("more")
		return nil
	}
	c.state.IsLoadingMore = false
	if err != nil {
		c.mu.Unlock()
		metrics.StoreFetches.WithLabelValues(c.binding.Name, "more", "failure").Inc()
		c.log.Warn("load more failed", zap.Int("page", next), zap.Error(err))
		c.notify()
		return err
	}
	c.state.Items = appendNew(c.state.Items, result.Data)
	c.state.Page = next
	c.state.HasMore = c.hasMore(result)
	c.mu.Unlock()

	metrics.StoreFetches.WithLabelValues(c.binding.Name, "more", "success").Inc()
	c.notify()
	return nil
}

// FetchDetail loads a single entity into the selected slot. Failures are recorded and returned.
func (c *Collection[T, F]) FetchDetail(ctx context.Context, id string) (T, error) {
	var zero T
	if c.binding.Get == nil {
		return zero, errors.New("store: " + c.binding.Name + " has no detail endpoint")
	}

	c.mu.Lock()
	c.detailGen++
	gen := c.detailGen
	c.state.IsLoadingDetail = true
	c.state.Error = ""
	c.mu.Unlock()
	c.notify()

	entity, err := c.binding.Get(ctx, id)

	c.mu.Lock()
	if gen != c.detailGen {
		c.mu.Unlock()
		c.discardStale("detail")
		if err != nil {
			return zero, err
		}
		return entity, nil
	}
	c.state.IsLoadingDetail = false
	if err != nil {
		c.state.Error = apperrors.UserMessage(err)
		c.mu.Unlock()
		metrics.StoreFetches.WithLabelValues(c.binding.Name, "detail", "failure").Inc()
		c.log.Warn("fetch detail failed", zap.String("id", id), zap.Error(err))
		c.notify()
		return zero, err
	}
	selected := entity.Clone()
	c.state.Selected = &selected
	c.mu.Unlock()

	metrics.StoreFetches.WithLabelValues(c.binding.Name, "detail", "success").Inc()
	c.notify()
	return entity, nil
}

// ClearSelected empties the detail slot and invalidates any detail request still in flight.
func (c *Collection[T, F]) ClearSelected() {
	c.mu.Lock()
	c.detailGen++
	c.state.Selected = nil
	c.state.IsLoadingDetail = false
	c.mu.Unlock()
	c.notify()
}

// SetFilters replaces the filters and reloads from page 1, discarding the loaded pages.
func (c *Collection[T, F]) SetFilters(ctx context.Context, filters F) error {
	c.mu.Lock()
	c.state.Filters = filters
	c.mu.Unlock()
	return c.Fetch(ctx, true)
}

// Filters returns the active filters.
func (c *Collection[T, F]) Filters() F {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Filters
}

// Mutate runs a backend write for id and merges the confirmed entity into the store. Errors are
// returned unchanged; the store is left as it was.
func (c *Collection[T, F]) Mutate(ctx context.Context, op, id string, call func(ctx context.Context) (T, error)) (T, error) {
	result, err := call(ctx)
	metrics.StoreMutations.WithLabelValues(c.binding.Name, op, metrics.Result(err)).Inc()
	if err != nil {
		var zero T
		c.log.Info("mutation failed", zap.String("op", op), zap.String("id", id), zap.Error(err))
		return zero, err
	}
	c.ApplyOptimistic(result)
	return result, nil
}

// MutateOptimistic applies local to the held copy of id before calling the backend. On success
// the confirmed entity replaces the prediction; on failure the pre-mutation snapshot is
// restored and the error returned.
func (c *Collection[T, F]) MutateOptimistic(ctx context.Context, op, id string, local func(T) T, call func(ctx context.Context) (T, error)) (T, error) {
	c.SaveOriginalState(id)
	c.UpdateLocal(id, local)

	result, err := call(ctx)
	metrics.StoreMutations.WithLabelValues(c.binding.Name, op, metrics.Result(err)).Inc()
	if err != nil {
		var zero T
		c.RevertOptimisticUpdate(id)
		c.log.Info("optimistic mutation reverted", zap.String("op", op), zap.String("id", id), zap.Error(err))
		return zero, err
	}
	c.ApplyOptimistic(result)
	c.ConfirmOptimisticUpdate(id)
	return result, nil
}

// ApplyOptimistic replaces the entity with the same id in the list and the selected slot.
// Entities the store does not hold are ignored.
func (c *Collection[T, F]) ApplyOptimistic(entity T) {
	id := entity.EntityID()
	c.mu.Lock()
	changed := c.replaceLocked(id, entity)
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// UpdateLocal rewrites the held copies of id through fn. It reports whether anything changed.
func (c *Collection[T, F]) UpdateLocal(id string, fn func(T) T) bool {
	if fn == nil {
		return false
	}
	c.mu.Lock()
	changed := false
	for i, item := range c.state.Items {
		if item.EntityID() == id {
			c.state.Items[i] = fn(item.Clone())
			changed = true
		}
	}
	if c.state.Selected != nil && (*c.state.Selected).EntityID() == id {
		updated := fn((*c.state.Selected).Clone())
		c.state.Selected = &updated
		changed = true
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return changed
}

// UpdateWhere rewrites every held entity accepted by match through fn and returns the ids it
// touched.
func (c *Collection[T, F]) UpdateWhere(match func(T) bool, fn func(T) T) []string {
	if match == nil || fn == nil {
		return nil
	}
	c.mu.Lock()
	seen := make(map[string]struct{})
	var touched []string
	mark := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			touched = append(touched, id)
		}
	}
	for i, item := range c.state.Items {
		if match(item) {
			c.state.Items[i] = fn(item.Clone())
			mark(item.EntityID())
		}
	}
	if c.state.Selected != nil && match(*c.state.Selected) {
		updated := fn((*c.state.Selected).Clone())
		mark(updated.EntityID())
		c.state.Selected = &updated
	}
	c.mu.Unlock()
	if len(touched) > 0 {
		c.notify()
	}
	return touched
}

// SaveOriginalState snapshots the held copy of id before a speculative write. The first
// snapshot wins: repeated calls keep the earliest state. It reports whether a snapshot exists.
func (c *Collection[T, F]) SaveOriginalState(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.originals[id]; exists {
		return true
	}
	if entity, ok := c.findLocked(id); ok {
		c.originals[id] = entity.Clone()
		return true
	}
	return false
}

// RevertOptimisticUpdate restores the snapshot of id into the list and the selected slot and
// discards it. Without a snapshot it does nothing and returns false.
func (c *Collection[T, F]) RevertOptimisticUpdate(id string) bool {
	c.mu.Lock()
	original, ok := c.originals[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.originals, id)
	c.replaceLocked(id, original)
	c.mu.Unlock()

	metrics.StoreMutations.WithLabelValues(c.binding.Name, "revert", "success").Inc()
	c.notify()
	return true
}

// ConfirmOptimisticUpdate discards the snapshot of id without restoring it.
func (c *Collection[T, F]) ConfirmOptimisticUpdate(id string) {
	c.mu.Lock()
	delete(c.originals, id)
	c.mu.Unlock()
}

// HasOriginalState reports whether a snapshot is held for id.
func (c *Collection[T, F]) HasOriginalState(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.originals[id]
	return ok
}

// Items returns a copy of the loaded list.
func (c *Collection[T, F]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.state.Items)
}

// Selected returns a copy of the selected entity.
func (c *Collection[T, F]) Selected() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Selected == nil {
		var zero T
		return zero, false
	}
	return (*c.state.Selected).Clone(), true
}

// Find returns a copy of the held entity with id from the selected slot or the list.
func (c *Collection[T, F]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entity, ok := c.findLocked(id)
	if !ok {
		return entity, false
	}
	return entity.Clone(), true
}

// Remove drops id from the list and the selected slot.
func (c *Collection[T, F]) Remove(id string) bool {
	c.mu.Lock()
	changed := false
	kept := c.state.Items[:0]
	for _, item := range c.state.Items {
		if item.EntityID() == id {
			changed = true
			continue
		}
		kept = append(kept, item)
	}
	c.state.Items = kept
	if c.state.Selected != nil && (*c.state.Selected).EntityID() == id {
		c.state.Selected = nil
		changed = true
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return changed
}

// Snapshot returns a deep copy of the whole state.
func (c *Collection[T, F]) Snapshot() State[T, F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Reset returns the collection to its initial state with the supplied filters and invalidates
// every in-flight request.
func (c *Collection[T, F]) Reset(filters F) {
	c.mu.Lock()
	c.listGen++
	c.detailGen++
	c.state = State[T, F]{Filters: filters, Page: 1}
	c.originals = make(map[string]T)
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn to receive a snapshot after every state change.
func (c *Collection[T, F]) Subscribe(fn func(State[T, F])) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Collection[T, F]) hasMore(page api.Page[T]) bool {
	return page.HasMore && len(page.Data) >= c.pageSize
}

func (c *Collection[T, F]) clearListFlagsLocked() {
	c.state.IsLoading = false
	c.state.IsRefreshing = false
	c.state.IsLoadingMore = false
}

func (c *Collection[T, F]) discardStale(mode string) {
	metrics.StaleResponses.WithLabelValues(c.binding.Name).Inc()
	c.log.Debug("discarded stale response", zap.String("mode", mode))
}

func (c *Collection[T, F]) findLocked(id string) (T, bool) {
	if c.state.Selected != nil && (*c.state.Selected).EntityID() == id {
		return *c.state.Selected, true
	}
	for _, item := range c.state.Items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T, F]) replaceLocked(id string, entity T) bool {
	changed := false
	for i, item := range c.state.Items {
		if item.EntityID() == id {
			c.state.Items[i] = entity.Clone()
			changed = true
		}
	}
	if c.state.Selected != nil && (*c.state.Selected).EntityID() == id {
		selected := entity.Clone()
		c.state.Selected = &selected
		changed = true
	}
	return changed
}

func (c *Collection[T, F]) snapshotLocked() State[T, F] {
	out := c.state
	out.Items = cloneAll(c.state.Items)
	if c.state.Selected != nil {
		selected := (*c.state.Selected).Clone()
		out.Selected = &selected
	}
	return out
}

func (c *Collection[T, F]) notify() {
	c.mu.Lock()
	if len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	snapshot := c.snapshotLocked()
	listeners := make([]func(State[T, F]), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func cloneAll[T Entity[T]](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// appendNew appends incoming entities, replacing any already held with the same id so a page
// boundary shift never produces duplicates.
func appendNew[T Entity[T]](items, incoming []T) []T {
	return upsertAll(items, incoming)
}

func upsertAll[T Entity[T]](items, incoming []T) []T {
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[item.EntityID()] = i
	}
	for _, entity := range incoming {
		if i, ok := index[entity.EntityID()]; ok {
			items[i] = entity.Clone()
			continue
		}
		index[entity.EntityID()] = len(items)
		items = append(items, entity.Clone())
	}
	return items
}
