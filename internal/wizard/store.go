// Package wizard holds the server-side state of one will questionnaire
// session: the document being drafted, the current step, validation errors
// and the identity used to persist it.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"willvault/api/internal/debounce"
	"willvault/api/internal/persist"
	"willvault/api/internal/util"
	"willvault/api/internal/validate"
	"willvault/api/internal/will"
)

const (
	StepPersonalInfo  = 1
	StepDigitalAssets = 2
	StepCryptoSetup   = 3
	StepBeneficiaries = 4
	StepPreview       = 5
	StepPayment       = 6

	FirstStep = StepPersonalInfo
	LastStep  = StepPayment
)

var (
	ErrDisposed      = errors.New("wizard session disposed")
	ErrNotSignedIn   = errors.New("sign in required")
	ErrInvalidStatus = errors.New("invalid document status")
)

// Persister is the subset of the persistence gateway the store needs.
type Persister interface {
	SaveSnapshot(ctx context.Context, sessionID string, snap will.Snapshot, who persist.Identity) error
	LoadSnapshot(ctx context.Context, sessionID string, who persist.Identity) (will.Snapshot, bool, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
	SaveDocument(ctx context.Context, doc will.Document, who persist.Identity) (will.Document, error)
	LoadDocument(ctx context.Context, who persist.Identity) (will.Document, bool, error)
}

type Deps struct {
	Persister     Persister
	Logger        *zap.Logger
	Clock         clock.Clock
	SaveTimeout   time.Duration
	DebounceDelay time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.SaveTimeout <= 0 {
		d.SaveTimeout = 10 * time.Second
	}
	if d.DebounceDelay <= 0 {
		d.DebounceDelay = 500 * time.Millisecond
	}
	return d
}

// State is a copy of the store contents safe to hand to callers.
type State struct {
	Document             will.Document              `json:"willData"`
	CurrentStep          int                        `json:"currentStep"`
	Loading              bool                       `json:"isLoading"`
	Errors               map[string]validate.Errors `json:"errors"`
	SessionID            string                     `json:"sessionId"`
	Authenticated        bool                       `json:"isAuthenticated"`
	UserID               string                     `json:"userId,omitempty"`
	CompletionPercentage int                        `json:"completionPercentage"`
}

type Store struct {
	deps   Deps
	logger *zap.Logger
	saver  *saver

	mu         sync.Mutex
	doc        will.Document
	step       int
	loading    bool
	errors     map[string]validate.Errors
	sessionID  string
	identity   persist.Identity
	fields     map[string]*debounce.Input[string]
	fieldGen   uint64 // bumped by ClearSession; older debounce commits are stale
	lastAccess time.Time
	disposed   bool
}

func New(deps Deps) *Store {
	deps = deps.withDefaults()
	s := &Store{
		deps:       deps,
		logger:     deps.Logger,
		doc:        will.NewDocument(),
		step:       FirstStep,
		errors:     map[string]validate.Errors{},
		fields:     map[string]*debounce.Input[string]{},
		lastAccess: deps.Clock.Now(),
	}
	s.saver = newSaver(s.persistSnapshot, deps.SaveTimeout, deps.Logger)
	return s
}

func (s *Store) persistSnapshot(ctx context.Context, job saveJob) error {
	if s.deps.Persister == nil {
		return nil
	}
	return s.deps.Persister.SaveSnapshot(ctx, job.sessionID, job.snapshot, job.identity)
}

// InitializeSession adopts sessionID, or generates one when empty, and tries
// to restore a previously saved snapshot. Restore failures are logged; the
// session then starts empty.
func (s *Store) InitializeSession(ctx context.Context, sessionID string) (restored bool) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}
	if sessionID == "" {
		sessionID = s.sessionID
	}
	if sessionID == "" {
		sessionID = util.NewSessionID(s.deps.Clock.Now())
		s.sessionID = sessionID
		s.touchLocked()
		s.mu.Unlock()
		s.logger.Debug("wizard session created", zap.String("session_id", sessionID))
		return false
	}
	s.sessionID = sessionID
	s.loading = true
	who := s.identity
	s.mu.Unlock()

	return s.restore(ctx, sessionID, who)
}

func (s *Store) restore(ctx context.Context, sessionID string, who persist.Identity) bool {
	var (
		snap will.Snapshot
		ok   bool
		err  error
	)
	if s.deps.Persister != nil {
		snap, ok, err = s.deps.Persister.LoadSnapshot(ctx, sessionID, who)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.touchLocked()
	if err != nil {
		s.logger.Warn("session snapshot load failed", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	s.doc = snap.Document.Clone()
	if s.doc.Status == "" {
		s.doc.Status = will.StatusDraft
	}
	if snap.UserID != "" {
		// the session belongs to its owner whoever resumed it
		s.identity = persist.Identity{Authenticated: true, UserID: snap.UserID}
		if s.doc.UserID == "" {
			s.doc.UserID = snap.UserID
		}
	}
	s.step = clampStep(snap.CurrentStep)
	s.logger.Debug("wizard session restored",
		zap.String("session_id", sessionID),
		zap.Int("step", s.step),
		zap.Int64("snapshot_ms", snap.Timestamp),
	)
	return true
}

func clampStep(n int) int {
	if n < FirstStep {
		return FirstStep
	}
	if n > LastStep {
		return LastStep
	}
	return n
}

func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Store) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Store) Document() will.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Store) Identity() persist.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Document:             s.doc.Clone(),
		CurrentStep:          s.step,
		Loading:              s.loading,
		Errors:               cloneErrors(s.errors),
		SessionID:            s.sessionID,
		Authenticated:        s.identity.Authenticated,
		UserID:               s.identity.UserID,
		CompletionPercentage: completion(s.doc),
	}
}

func (s *Store) SaveStats() SaveStats {
	return s.saver.stats()
}

// LastAccess is when the store was last read or written through a mutator.
func (s *Store) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Store) touchLocked() {
	s.lastAccess = s.deps.Clock.Now()
}

func cloneErrors(in map[string]validate.Errors) map[string]validate.Errors {
	out := make(map[string]validate.Errors, len(in))
	for section, fields := range in {
		cp := make(validate.Errors, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		out[section] = cp
	}
	return out
}

// commitLocked is the tail of every mutation: it stamps the document and
// queues a snapshot save. mu must be held.
func (s *Store) commitLocked() {
	s.touchLocked()
	if s.sessionID == "" {
		return
	}
	s.saver.enqueue(saveJob{
		sessionID: s.sessionID,
		snapshot:  will.NewSnapshot(s.doc, s.step, s.deps.Clock.Now()),
		identity:  s.identity,
	})
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	fn()
	s.commitLocked()
}

func (s *Store) UpdatePersonalInfo(p PersonalInfoPatch) {
	s.mutate(func() {
		merged := p.apply(s.doc.PersonalInfo)
		s.doc.PersonalInfo = &merged
	})
}

func (s *Store) UpdateDigitalAssets(p DigitalAssetsPatch) {
	s.mutate(func() {
		merged := p.apply(s.doc.DigitalAssets)
		s.doc.DigitalAssets = &merged
	})
}

func (s *Store) UpdateCryptoSetup(p CryptoSetupPatch) {
	s.mutate(func() {
		merged := p.apply(s.doc.CryptoSetup)
		s.doc.CryptoSetup = &merged
	})
}

func (s *Store) UpdateBeneficiaries(p BeneficiariesPatch) {
	s.mutate(func() {
		merged := p.apply(s.doc.Beneficiaries)
		s.doc.Beneficiaries = &merged
	})
}

// ToggleCategory selects or deselects one digital asset category.
func (s *Store) ToggleCategory(id string) {
	s.mutate(func() {
		if s.doc.DigitalAssets == nil {
			s.doc.DigitalAssets = &will.DigitalAssets{}
		}
		s.doc.DigitalAssets.Toggle(id)
	})
}

func (s *Store) SetShare(which will.Share, value float64) {
	s.mutate(func() {
		updated := will.SetShare(*beneficiaries(&s.doc), which, value)
		s.doc.Beneficiaries = &updated
	})
}

func (s *Store) AddSecondary(b will.Beneficiary) {
	s.mutate(func() {
		base := *beneficiaries(&s.doc)
		if base.Secondary != nil {
			b.Percentage = base.Secondary.Percentage
		}
		updated := will.AddSecondary(base, BeneficiaryPatch{}.details(b))
		s.doc.Beneficiaries = &updated
	})
}

func (s *Store) RemoveSecondary() {
	s.mutate(func() {
		updated := will.RemoveSecondary(*beneficiaries(&s.doc))
		s.doc.Beneficiaries = &updated
	})
}

// SetStatus moves the document through draft, completed and paid.
func (s *Store) SetStatus(status will.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	s.mutate(func() { s.doc.Status = status })
	return nil
}

// SetFieldText records a keystroke-level edit. The value is committed to the
// document once the field has been idle for the debounce delay.
func (s *Store) SetFieldText(field, value string) error {
	spec, ok := textFields[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	in, ok := s.fields[field]
	if !ok {
		gen := s.fieldGen
		in = debounce.New("", func(v string) { s.applyField(gen, field, spec, v) }, s.deps.DebounceDelay,
			debounce.WithSanitizer(spec.clean),
			debounce.WithClock[string](s.deps.Clock),
		)
		s.fields[field] = in
	}
	s.touchLocked()
	s.mu.Unlock()

	in.Set(value)
	return nil
}

// FieldValue returns the unsettled value of a debounced field.
func (s *Store) FieldValue(field string) (string, bool) {
	s.mu.Lock()
	in, ok := s.fields[field]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	return in.Value(), true
}

func (s *Store) applyField(gen uint64, field string, spec textField, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || gen != s.fieldGen {
		return
	}
	if !spec.apply(&s.doc, v) {
		s.logger.Debug("debounced field dropped, target missing", zap.String("field", field))
	}
	s.commitLocked()
}

// FlushFields commits every pending debounced edit immediately.
func (s *Store) FlushFields() {
	s.mu.Lock()
	inputs := make([]*debounce.Input[string], 0, len(s.fields))
	for _, in := range s.fields {
		inputs = append(inputs, in)
	}
	s.mu.Unlock()
	for _, in := range inputs {
		in.Flush()
	}
}

// Flush waits for queued snapshot saves to finish.
func (s *Store) Flush(ctx context.Context) error {
	return s.saver.flush(ctx)
}

// SaveSnapshot queues the current state and waits until it is written,
// returning the save error if the write failed.
func (s *Store) SaveSnapshot(ctx context.Context) error {
	s.FlushFields()
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.commitLocked()
	s.mu.Unlock()
	if err := s.Flush(ctx); err != nil {
		return err
	}
	if err := s.saver.lastError(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot replaces the state with the session's saved snapshot and
// reports whether one was found.
func (s *Store) LoadSnapshot(ctx context.Context) bool {
	s.mu.Lock()
	if s.disposed || s.sessionID == "" {
		s.mu.Unlock()
		return false
	}
	id, who := s.sessionID, s.identity
	s.loading = true
	s.mu.Unlock()
	return s.restore(ctx, id, who)
}

// SetAuthStatus switches the persistence path. A sign-in re-saves the
// current snapshot under the new identity.
func (s *Store) SetAuthStatus(authenticated bool, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if !authenticated {
		userID = ""
	}
	next := persist.Identity{Authenticated: authenticated, UserID: userID}
	if next == s.identity {
		return
	}
	s.identity = next
	if authenticated && s.doc.UserID == "" {
		s.doc.UserID = userID
	}
	s.commitLocked()
}

// SaveDocument writes the document to the owner's remote record.
func (s *Store) SaveDocument(ctx context.Context) (will.Document, error) {
	s.FlushFields()
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return will.Document{}, ErrDisposed
	}
	who := s.identity
	if !who.Authenticated || who.UserID == "" {
		s.mu.Unlock()
		return will.Document{}, ErrNotSignedIn
	}
	doc := s.doc.Clone()
	s.loading = true
	s.mu.Unlock()

	var (
		saved will.Document
		err   = persist.ErrUnavailable
	)
	if s.deps.Persister != nil {
		saved, err = s.deps.Persister.SaveDocument(ctx, doc, who)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Error("document save failed", zap.String("session_id", s.sessionID), zap.String("user_id", who.UserID), zap.Error(err))
		return will.Document{}, err
	}
	s.doc.ID = saved.ID
	s.doc.UserID = saved.UserID
	s.doc.CreatedAt = saved.CreatedAt
	s.doc.UpdatedAt = saved.UpdatedAt
	s.touchLocked()
	return saved, nil
}

// LoadDocument replaces the in-memory document with the owner's saved one.
// It reports false when the owner has no document yet.
func (s *Store) LoadDocument(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, ErrDisposed
	}
	who := s.identity
	if !who.Authenticated || who.UserID == "" {
		s.mu.Unlock()
		return false, ErrNotSignedIn
	}
	s.loading = true
	s.mu.Unlock()

	var (
		doc will.Document
		ok  bool
		err = persist.ErrUnavailable
	)
	if s.deps.Persister != nil {
		doc, ok, err = s.deps.Persister.LoadDocument(ctx, who)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Error("document load failed", zap.String("user_id", who.UserID), zap.Error(err))
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.doc = doc.Clone()
	s.commitLocked()
	return true, nil
}

// ClearSession drops the session: pending edits and saves are discarded, the
// stored snapshot is deleted and the state returns to its initial values.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	for name, in := range s.fields {
		in.Close()
		delete(s.fields, name)
	}
	// a timer that fired before Close may still be waiting on s.mu
	s.fieldGen++
	sessionID := s.sessionID
	// with no session id, mutations racing the clear queue nothing
	s.sessionID = ""
	s.saver.discard()
	s.mu.Unlock()

	// an in-flight save must land before the delete or it would resurrect
	// the snapshot
	if err := s.saver.flush(ctx); err != nil {
		return err
	}

	var err error
	if sessionID != "" && s.deps.Persister != nil {
		if err = s.deps.Persister.DeleteSnapshot(ctx, sessionID); err != nil {
			s.logger.Warn("session snapshot delete failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	s.mu.Lock()
	s.doc = will.NewDocument()
	s.step = FirstStep
	s.errors = map[string]validate.Errors{}
	s.loading = false
	s.touchLocked()
	s.mu.Unlock()
	return err
}

// Dispose stops debounced inputs, waits briefly for queued saves and makes
// the store inert.
func (s *Store) Dispose(ctx context.Context) {
	s.FlushFields()
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	for _, in := range s.fields {
		in.Close()
	}
	s.mu.Unlock()

	if err := s.saver.flush(ctx); err != nil {
		s.logger.Warn("dispose: pending snapshot save abandoned", zap.String("session_id", s.SessionID()), zap.Error(err))
	}
	s.saver.close()
}
