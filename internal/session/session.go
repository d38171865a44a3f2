package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/landarea-core/internal/conversion"
)

// Default form values, restored by Reset.
const (
	DefaultInput  = "1"
	DefaultFrom   = conversion.UnitAcre
	DefaultTo     = conversion.UnitSquareFoot
	DefaultRegion = conversion.RegionStandard
)

// Converter produces the displayed output for a request.
// Both *conversion.Engine and *conversion.Registry satisfy it.
type Converter interface {
	Convert(req conversion.Request) string
}

// State is a snapshot of one converter form.
type State struct {
	Input  string            `json:"input"`
	From   conversion.Unit   `json:"from"`
	To     conversion.Unit   `json:"to"`
	Region conversion.Region `json:"region"`

	// Output is "" for empty input, "Invalid Input" for unparseable input,
	// and the formatted result otherwise.
	Output string `json:"output"`
}

// Defaults returns the initial form state without Output.
func Defaults() State {
	return State{
		Input:  DefaultInput,
		From:   DefaultFrom,
		To:     DefaultTo,
		Region: DefaultRegion,
	}
}

// Request returns the conversion request described by the state's inputs.
func (s State) Request() conversion.Request {
	return conversion.Request{
		Input:  s.Input,
		From:   s.From,
		To:     s.To,
		Region: s.Region,
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Input  *string `json:"input,omitempty"`
	From   *string `json:"from,omitempty"`
	To     *string `json:"to,omitempty"`
	Region *string `json:"region,omitempty"`
}

// Session is one converter form. Its methods are safe for concurrent use,
// though a session normally has a single owner.
type Session struct {
	id        string
	createdAt time.Time

	mu         sync.Mutex
	state      State
	conv       Converter
	lastActive time.Time
	attached   int
	now        func() time.Time
}

// New creates a session with default inputs and a computed output.
func New(id string, conv Converter) *Session {
	return newSession(id, conv, time.Now)
}

func newSession(id string, conv Converter, now func() time.Time) *Session {
	t := now()
	s := &Session{
		id:         id,
		createdAt:  t,
		conv:       conv,
		lastActive: t,
		now:        now,
	}
	s.state = Defaults()
	s.recompute()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActive returns when the session was last read or changed.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Attach marks the session as held by a live connection until the
// returned release func is called. Attached sessions never expire.
// Release is idempotent.
func (s *Session) Attach() (release func()) {
	s.mu.Lock()
	s.attached++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.attached--
			s.lastActive = s.now()
			s.mu.Unlock()
		})
	}
}

// idleSince reports when the session went idle; ok is false while a
// connection holds it.
func (s *Session) idleSince() (t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.attached == 0
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.state
}

// SetInput replaces the raw value text.
func (s *Session) SetInput(input string) State {
	return s.update(func(st *State) { st.Input = input })
}

// SetFrom selects the source unit.
func (s *Session) SetFrom(unit string) (State, error) {
	u, err := parseUnit(unit)
	if err != nil {
		return s.State(), err
	}
	return s.update(func(st *State) { st.From = u }), nil
}

// SetTo selects the target unit.
func (s *Session) SetTo(unit string) (State, error) {
	u, err := parseUnit(unit)
	if err != nil {
		return s.State(), err
	}
	return s.update(func(st *State) { st.To = u }), nil
}

// SetRegion selects the regional convention.
func (s *Session) SetRegion(region string) (State, error) {
	r, err := parseRegion(region)
	if err != nil {
		return s.State(), err
	}
	return s.update(func(st *State) { st.Region = r }), nil
}

// Swap exchanges the source and target units. Input and region are kept.
func (s *Session) Swap() State {
	return s.update(func(st *State) { st.From, st.To = st.To, st.From })
}

// Reset restores the default inputs regardless of prior state.
func (s *Session) Reset() State {
	return s.update(func(st *State) { *st = Defaults() })
}

// Apply validates every field of p and then applies them together.
// When any field is invalid nothing changes.
func (s *Session) Apply(p Patch) (State, error) {
	var (
		from, to conversion.Unit
		region   conversion.Region
		err      error
	)
	if p.From != nil {
		if from, err = parseUnit(*p.From); err != nil {
			return s.State(), err
		}
	}
	if p.To != nil {
		if to, err = parseUnit(*p.To); err != nil {
			return s.State(), err
		}
	}
	if p.Region != nil {
		if region, err = parseRegion(*p.Region); err != nil {
			return s.State(), err
		}
	}

	return s.update(func(st *State) {
		if p.Input != nil {
			st.Input = *p.Input
		}
		if p.From != nil {
			st.From = from
		}
		if p.To != nil {
			st.To = to
		}
		if p.Region != nil {
			st.Region = region
		}
	}), nil
}

// Recompute re-derives the output from unchanged inputs, for use after the
// factor tables behind the converter change. It does not count as activity.
func (s *Session) Recompute() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recompute()
	return s.state
}

// update applies fn to the inputs and recomputes the output under the lock.
func (s *Session) update(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	s.recompute()
	s.lastActive = s.now()
	return s.state
}

func (s *Session) recompute() {
	s.state.Output = s.conv.Convert(s.state.Request())
}

func parseUnit(key string) (conversion.Unit, error) {
	u, err := conversion.ParseUnit(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, key)
	}
	return u, nil
}

func parseRegion(key string) (conversion.Region, error) {
	r, err := conversion.ParseRegion(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, key)
	}
	return r, nil
}
