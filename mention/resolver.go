// Package mention resolves inline @contact references while a message is
// being composed. The resolver keeps two views of the draft: the display
// buffer the user sees, where accepted mentions read as friendly names, and
// the transmit projection, where each mention is replaced by the contact's
// address. Directory lookups for the active token are debounced and
// generation-checked so slow responses never clobber newer state.
package mention

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/meetingmuse/musechat/schema"
)

// DefaultDebounce is the lookup debounce applied when Config leaves it zero.
const DefaultDebounce = 300 * time.Millisecond

// Searcher performs contact directory lookups.
type Searcher interface {
	Search(ctx context.Context, query string, sessionID schema.SessionID) ([]schema.Contact, error)
}

// Pending is an accepted mention still live in the display buffer.
type Pending struct {
	ID          string
	DisplayName string
	Address     string
	// Start is the rune offset of the display name in the display buffer.
	Start int
}

// End reports the rune offset just past the display name.
func (p Pending) End() int {
	return p.Start + len([]rune(p.DisplayName))
}

// Config configures a Resolver.
type Config struct {
	// Searcher performs directory lookups. Nil disables lookups; token
	// tracking and buffer editing still work.
	Searcher Searcher
	// Debounce is the delay between the last keystroke and the directory
	// lookup. Zero means DefaultDebounce.
	Debounce time.Duration
	Logger   pslog.Logger
}

// Resolver tracks the composer state for one draft message.
type Resolver struct {
	searcher Searcher
	debounce *debouncer
	log      pslog.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	identity   schema.Identity
	display    []rune
	caret      int
	mentions   []Pending
	token      *Token
	candidates []schema.Contact
	loading    bool
	listener   func([]schema.Contact)
}

// NewResolver returns a Resolver for the given identity. The identity's
// session scopes every directory lookup.
func NewResolver(identity schema.Identity, cfg Config) *Resolver {
	delay := cfg.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		searcher: cfg.Searcher,
		debounce: newDebouncer(delay),
		log:      logger.With("component", "mention"),
		ctx:      ctx,
		cancel:   cancel,
		identity: identity,
	}
}

// Close cancels any in-flight lookup and stops the debounce timer. The
// resolver must not be used afterwards.
func (r *Resolver) Close() {
	r.debounce.Cancel()
	r.cancel()
}

// SetCandidateListener registers a callback invoked whenever the candidate
// list changes, including when it is cleared. At most one listener is
// active; passing nil removes it.
func (r *Resolver) SetCandidateListener(fn func([]schema.Contact)) {
	r.mu.Lock()
	r.listener = fn
	r.mu.Unlock()
}

// SetText replaces the draft with text and moves the caret, reconciling
// accepted mentions against the edit. Mentions entirely before the edited
// region keep their offsets, mentions entirely after it shift by the length
// delta, and mentions the edit touched revert to plain text. Caret is a
// rune offset.
func (r *Resolver) SetText(text string, caret int) {
	r.mu.Lock()
	next := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret > len(next) {
		caret = len(next)
	}
	r.mentions = reconcileMentions(r.display, next, r.mentions)
	r.display = next
	r.caret = caret

	tok, ok := DetectToken(r.display, r.caret)
	var notify func([]schema.Contact)
	switch {
	case !ok:
		if r.token != nil || r.candidates != nil {
			r.token = nil
			r.candidates = nil
			r.loading = false
			r.debounce.Cancel()
			notify = r.listener
		}
	case tok.Query == "":
		// Bare '@': the token is open but nothing to look up yet.
		if r.token == nil || r.token.Query != "" || r.candidates != nil {
			r.candidates = nil
			r.loading = false
			r.debounce.Cancel()
			notify = r.listener
		}
		r.token = &Token{Start: tok.Start, Query: tok.Query}
	default:
		prev := ""
		if r.token != nil {
			prev = r.token.Query
		}
		r.token = &Token{Start: tok.Start, Query: tok.Query}
		if tok.Query != prev {
			if r.searcher == nil {
				r.log.Warn("mention lookup skipped", "reason", "no searcher", "query", tok.Query)
				break
			}
			query := tok.Query
			r.loading = true
			r.debounce.Schedule(func(gen uint64) {
				r.lookup(gen, query)
			})
		}
	}
	r.mu.Unlock()
	if notify != nil {
		notify(nil)
	}
}

// lookup runs on the debounce timer goroutine once the delay elapses.
func (r *Resolver) lookup(gen uint64, query string) {
	r.mu.Lock()
	if r.token == nil || r.token.Query != query {
		r.mu.Unlock()
		return
	}
	sessionID := r.identity.SessionID
	r.mu.Unlock()

	results, err := r.searcher.Search(r.ctx, query, sessionID)
	if err != nil {
		r.log.Warn("contact lookup failed", "query", query, "error", err)
		results = nil
	}

	r.mu.Lock()
	// A newer schedule or an edit that closed or changed the token makes
	// this response stale.
	if gen != r.debounce.Generation() || r.token == nil || r.token.Query != query {
		r.mu.Unlock()
		return
	}
	r.candidates = results
	r.loading = false
	listener := r.listener
	r.mu.Unlock()
	if listener != nil {
		listener(results)
	}
}

// Accept resolves the active token to the given contact: the '@query' span
// is replaced in the display buffer by the contact's display name and a
// pending mention is recorded for transmit substitution.
func (r *Resolver) Accept(c schema.Contact) error {
	if !schema.ValidAddress(c.Address) {
		return schema.ErrInvalidAddress
	}
	r.mu.Lock()
	if r.token == nil {
		r.mu.Unlock()
		return ErrNoActiveToken
	}
	tok := *r.token
	name := []rune(c.DisplayName())

	spanEnd := tok.Start + 1 + len([]rune(tok.Query))
	delta := len(name) - (spanEnd - tok.Start)

	next := make([]rune, 0, len(r.display)+delta)
	next = append(next, r.display[:tok.Start]...)
	next = append(next, name...)
	next = append(next, r.display[spanEnd:]...)
	r.display = next
	r.caret = tok.Start + len(name)

	for i := range r.mentions {
		if r.mentions[i].Start >= spanEnd {
			r.mentions[i].Start += delta
		}
	}
	r.mentions = append(r.mentions, Pending{
		ID:          "mention-" + uuid.NewString(),
		DisplayName: string(name),
		Address:     c.Address,
		Start:       tok.Start,
	})

	r.token = nil
	r.candidates = nil
	r.loading = false
	r.debounce.Cancel()
	listener := r.listener
	r.mu.Unlock()
	if listener != nil {
		listener(nil)
	}
	return nil
}

// Remove deletes an accepted mention and its display name from the draft.
// It reports whether the mention was found.
func (r *Resolver) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, m := range r.mentions {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	m := r.mentions[idx]
	start, end := m.Start, m.End()
	length := end - start

	next := make([]rune, 0, len(r.display)-length)
	next = append(next, r.display[:start]...)
	next = append(next, r.display[end:]...)
	r.display = next

	switch {
	case r.caret >= end:
		r.caret -= length
	case r.caret > start:
		r.caret = start
	}

	r.mentions = append(r.mentions[:idx], r.mentions[idx+1:]...)
	for i := range r.mentions {
		if r.mentions[i].Start >= end {
			r.mentions[i].Start -= length
		}
	}
	return true
}

// Dismiss closes the active token and clears candidates without touching
// the draft text.
func (r *Resolver) Dismiss() {
	r.mu.Lock()
	r.token = nil
	cleared := r.candidates != nil
	r.candidates = nil
	r.loading = false
	r.debounce.Cancel()
	listener := r.listener
	r.mu.Unlock()
	if cleared && listener != nil {
		listener(nil)
	}
}

// Display returns the display buffer and the caret rune offset.
func (r *Resolver) Display() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.display), r.caret
}

// Mentions returns the accepted mentions in display order.
func (r *Resolver) Mentions() []Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Pending, len(r.mentions))
	copy(out, r.mentions)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ActiveToken reports the token under the caret, if any.
func (r *Resolver) ActiveToken() (Token, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token == nil {
		return Token{}, false
	}
	return *r.token, true
}

// Candidates returns the current lookup results.
func (r *Resolver) Candidates() []schema.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Contact, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Loading reports whether a lookup is pending or in flight for the active
// token.
func (r *Resolver) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Transmit projects the draft into its wire form: each accepted mention's
// display name is replaced by the contact's address. The display buffer is
// untouched.
func (r *Resolver) Transmit() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.transmitLocked())
}

func (r *Resolver) transmitLocked() []rune {
	out := make([]rune, len(r.display))
	copy(out, r.display)
	ms := make([]Pending, len(r.mentions))
	copy(ms, r.mentions)
	// Substitute right to left so earlier offsets stay valid.
	sort.Slice(ms, func(i, j int) bool { return ms[i].Start > ms[j].Start })
	for _, m := range ms {
		addr := []rune(m.Address)
		next := make([]rune, 0, len(out)+len(addr)-(m.End()-m.Start))
		next = append(next, out[:m.Start]...)
		next = append(next, addr...)
		next = append(next, out[m.End():]...)
		out = next
	}
	return out
}

// Submit returns the transmit projection and resets the resolver to an
// empty draft.
func (r *Resolver) Submit() string {
	r.mu.Lock()
	out := string(r.transmitLocked())
	r.display = nil
	r.caret = 0
	r.mentions = nil
	r.token = nil
	cleared := r.candidates != nil
	r.candidates = nil
	r.loading = false
	r.debounce.Cancel()
	listener := r.listener
	r.mu.Unlock()
	if cleared && listener != nil {
		listener(nil)
	}
	return out
}

// reconcileMentions maps mention offsets across an edit. The edited region
// is derived from the longest common prefix and suffix of the old and new
// buffers; a mention the edit overlaps is dropped, reverting that name to
// plain text.
func reconcileMentions(old, next []rune, mentions []Pending) []Pending {
	if len(mentions) == 0 {
		return mentions
	}
	prefix := 0
	max := len(old)
	if len(next) < max {
		max = len(next)
	}
	for prefix < max && old[prefix] == next[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < max-prefix && old[len(old)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}
	editStart := prefix
	editEnd := len(old) - suffix
	if editEnd < editStart {
		editEnd = editStart
	}
	delta := len(next) - len(old)

	kept := mentions[:0]
	for _, m := range mentions {
		switch {
		case m.End() <= editStart:
			kept = append(kept, m)
		case m.Start >= editEnd:
			m.Start += delta
			kept = append(kept, m)
		}
	}
	// An edit inside the common affix can still corrupt a name when prefix
	// and suffix overlap; verify the name survived verbatim.
	out := kept[:0]
	for _, m := range kept {
		name := []rune(m.DisplayName)
		end := m.Start + len(name)
		if m.Start < 0 || end > len(next) || string(next[m.Start:end]) != m.DisplayName {
			continue
		}
		out = append(out, m)
	}
	return out
}
