package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/approval/services"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/eventbus"
	"github.com/pubdesk/pubdesk/pkg/outbox"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

// stubTx satisfies the transaction surface for fakes that never touch the
// database.
type stubTx struct{}

func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

var _ repo.Tx = stubTx{}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*changerequest.ChangeRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*changerequest.ChangeRequest)}
}

func (f *fakeRequestRepo) Create(_ context.Context, cr *changerequest.ChangeRequest) (*changerequest.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.requests {
		if existing.Status != changerequest.StatusPending {
			continue
		}
		if existing.EntityKind == cr.EntityKind && existing.EntityID == cr.EntityID {
			return nil, changerequest.ErrRequestAlreadyPending
		}
		if cr.NaturalKey != "" && existing.EntityKind == cr.EntityKind && existing.NaturalKey == cr.NaturalKey {
			return nil, changerequest.ErrDuplicateRequest
		}
	}
	cp := *cr
	f.requests[cr.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *cr
	return &cp, nil
}

func (f *fakeRequestRepo) GetPendingByID(_ context.Context, id uuid.UUID) (*changerequest.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.requests[id]
	if !ok || cr.Status != changerequest.StatusPending {
		return nil, nil
	}
	cp := *cr
	return &cp, nil
}

func (f *fakeRequestRepo) TransitionIfPending(_ context.Context, id uuid.UUID, status changerequest.Status, decidedBy uint, reason *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.requests[id]
	if !ok || cr.Status != changerequest.StatusPending {
		return false, nil
	}
	cr.Status = status
	cr.DecidedBy = &decidedBy
	cr.RejectionReason = reason
	return true, nil
}

func (f *fakeRequestRepo) ExistsPendingForEntity(_ context.Context, kind changerequest.EntityKind, entityID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cr := range f.requests {
		if cr.EntityKind == kind && cr.EntityID == entityID && cr.Status == changerequest.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestRepo) ExistsPendingForNaturalKey(_ context.Context, kind changerequest.EntityKind, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cr := range f.requests {
		if cr.EntityKind == kind && cr.NaturalKey == key && cr.Status == changerequest.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestRepo) ListByStatus(_ context.Context, status changerequest.Status, _, _ int) ([]*changerequest.ChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*changerequest.ChangeRequest
	for _, cr := range f.requests {
		if cr.Status == status {
			cp := *cr
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeEntity struct {
	naturalKey string
	payload    json.RawMessage
	locked     bool
	active     bool
	deleted    bool
}

type appliedEffect struct {
	action  changerequest.Action
	payload json.RawMessage
}

type fakeAdapter struct {
	kind     changerequest.EntityKind
	roleName string
	nextID   uint
	entities map[uint]*fakeEntity
	applied  []appliedEffect
	note     string
}

func newFakeAdapter(kind changerequest.EntityKind, roleName string) *fakeAdapter {
	return &fakeAdapter{
		kind:     kind,
		roleName: roleName,
		entities: make(map[uint]*fakeEntity),
	}
}

func (f *fakeAdapter) addEntity(id uint, naturalKey string, active bool) {
	f.entities[id] = &fakeEntity{naturalKey: naturalKey, active: active}
	if id > f.nextID {
		f.nextID = id
	}
}

func (f *fakeAdapter) Kind() changerequest.EntityKind {
	return f.kind
}

func (f *fakeAdapter) AuthorizerRole(changerequest.Action) string {
	return f.roleName
}

func (f *fakeAdapter) ValidatePayload(_ context.Context, action changerequest.Action, payload json.RawMessage) error {
	if action != changerequest.ActionInsert && action != changerequest.ActionEdit {
		return nil
	}
	if len(payload) == 0 {
		return changerequest.ErrValidation
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return changerequest.ErrValidation
	}
	if _, ok := m["key"]; !ok {
		return changerequest.ErrValidation
	}
	return nil
}

func (f *fakeAdapter) NaturalKey(payload json.RawMessage) (string, error) {
	var m map[string]string
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", err
	}
	return m["key"], nil
}

func (f *fakeAdapter) CreatePending(_ context.Context, payload json.RawMessage) (uint, error) {
	key, err := f.NaturalKey(payload)
	if err != nil {
		return 0, err
	}
	f.nextID++
	f.entities[f.nextID] = &fakeEntity{
		naturalKey: key,
		payload:    payload,
		locked:     true,
	}
	return f.nextID, nil
}

func (f *fakeAdapter) SetLocked(_ context.Context, id uint, locked bool) error {
	e, ok := f.entities[id]
	if !ok {
		return fmt.Errorf("entity %d not found", id)
	}
	e.locked = locked
	return nil
}

func (f *fakeAdapter) Exists(_ context.Context, id uint) (bool, error) {
	e, ok := f.entities[id]
	return ok && !e.deleted, nil
}

func (f *fakeAdapter) FindActiveByNaturalKey(_ context.Context, key string) (bool, error) {
	for _, e := range f.entities {
		if e.naturalKey == key && e.active && !e.deleted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAdapter) ApplyEffect(_ context.Context, req *changerequest.ChangeRequest) (string, error) {
	e, ok := f.entities[req.EntityID]
	if !ok {
		return "", fmt.Errorf("entity %d not found", req.EntityID)
	}
	f.applied = append(f.applied, appliedEffect{action: req.Action, payload: req.Payload})
	switch req.Action {
	case changerequest.ActionInsert:
		e.active = true
	case changerequest.ActionEdit:
		e.payload = req.Payload
	case changerequest.ActionDelete:
		e.deleted = true
		e.active = false
	case changerequest.ActionEnable:
		e.active = true
	case changerequest.ActionDisable:
		e.active = false
	}
	return f.note, nil
}

func (f *fakeAdapter) EntityLabel(_ context.Context, req *changerequest.ChangeRequest) (string, error) {
	e, ok := f.entities[req.EntityID]
	if !ok || e.deleted {
		return "", fmt.Errorf("entity %d not found", req.EntityID)
	}
	return e.naturalKey, nil
}

type fakeDirectory struct {
	actors map[uint]*changerequest.Actor
	roles  map[uint][]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		actors: make(map[uint]*changerequest.Actor),
		roles:  make(map[uint][]string),
	}
}

func (f *fakeDirectory) addActor(id uint, email string, roles ...string) {
	f.actors[id] = &changerequest.Actor{ID: id, Name: email, Email: email}
	f.roles[id] = roles
}

func (f *fakeDirectory) FindActive(_ context.Context, id uint) (*changerequest.Actor, error) {
	a, ok := f.actors[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return a, nil
}

func (f *fakeDirectory) HasRole(_ context.Context, userID uint, roleName string) (bool, error) {
	for _, r := range f.roles[userID] {
		if r == roleName {
			return true, nil
		}
	}
	return false, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeNotifier struct {
	fail bool
	sent []sentMail
}

func (f *fakeNotifier) Notify(_ context.Context, to, subject, body string) error {
	if f.fail {
		return fmt.Errorf("smtp unreachable")
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeQueue struct {
	enqueued []outbox.Message
}

func (f *fakeQueue) Enqueue(_ context.Context, _ repo.Tx, msg outbox.Message) (int64, error) {
	f.enqueued = append(f.enqueued, msg)
	return int64(len(f.enqueued)), nil
}

type fixture struct {
	service   *services.ApprovalService
	repo      *fakeRequestRepo
	adapter   *fakeAdapter
	directory *fakeDirectory
	notifier  *fakeNotifier
	queue     *fakeQueue
	bus       eventbus.EventBus
	ctx       context.Context
}

const (
	inputterID   = uint(1)
	authorizerID = uint(2)
	testRole     = "Super_Admin_Authoriser"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &fixture{
		repo:      newFakeRequestRepo(),
		adapter:   newFakeAdapter(changerequest.KindUser, testRole),
		directory: newFakeDirectory(),
		notifier:  &fakeNotifier{},
		queue:     &fakeQueue{},
		bus:       eventbus.NewEventPublisher(logger),
	}
	f.directory.addActor(inputterID, "inputter@example.com")
	f.directory.addActor(authorizerID, "authorizer@example.com", testRole)

	f.service = services.NewApprovalService(
		f.repo, f.directory, f.notifier, f.queue, f.bus, f.adapter,
	)
	f.ctx = composables.WithTx(context.Background(), stubTx{})
	return f
}

func payload(key string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"key":%q}`, key))
}

func submitInsert(t *testing.T, f *fixture, key string) *services.SubmitResult {
	t.Helper()
	res, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionInsert,
		Payload:      payload(key),
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.NoError(t, err)
	return res
}

func TestSubmit_InsertCreatesLockedEntityAndPendingRequest(t *testing.T) {
	f := newFixture(t)

	var submitted []*changerequest.SubmittedEvent
	f.bus.Subscribe(func(e *changerequest.SubmittedEvent) {
		submitted = append(submitted, e)
	})

	res := submitInsert(t, f, "alice@example.com")

	require.NotEqual(t, uuid.Nil, res.RequestID)
	assert.True(t, res.NotificationSent)

	entity := f.adapter.entities[res.EntityID]
	require.NotNil(t, entity)
	assert.True(t, entity.locked)
	assert.False(t, entity.active)

	cr, err := f.repo.GetPendingByID(f.ctx, res.RequestID)
	require.NoError(t, err)
	require.NotNil(t, cr)
	assert.Equal(t, changerequest.StatusPending, cr.Status)
	assert.Equal(t, "alice@example.com", cr.NaturalKey)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "authorizer@example.com", f.notifier.sent[0].to)
	assert.Equal(t, "Approval required", f.notifier.sent[0].subject)

	require.Len(t, submitted, 1)
	assert.Equal(t, res.RequestID, submitted[0].Request.ID)
}

func TestSubmit_SelfApprovalRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionInsert,
		Payload:      payload("alice@example.com"),
		InputterID:   inputterID,
		AuthorizerID: inputterID,
	})
	require.ErrorIs(t, err, changerequest.ErrInvalidActor)
	assert.Empty(t, f.repo.requests)
	assert.Empty(t, f.adapter.entities)
}

func TestSubmit_AuthorizerWithoutRole(t *testing.T) {
	f := newFixture(t)
	f.directory.addActor(3, "norole@example.com")

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionInsert,
		Payload:      payload("alice@example.com"),
		InputterID:   inputterID,
		AuthorizerID: 3,
	})
	require.ErrorIs(t, err, changerequest.ErrUnauthorizedApprover)
	assert.Empty(t, f.repo.requests)
}

func TestSubmit_InvalidPayload(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionInsert,
		Payload:      json.RawMessage(`{"other":"x"}`),
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.ErrorIs(t, err, changerequest.ErrValidation)
}

func TestSubmit_EditMissingEntity(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionEdit,
		EntityID:     99,
		Payload:      payload("alice@example.com"),
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.ErrorIs(t, err, changerequest.ErrEntityNotFound)
}

func TestSubmit_SecondRequestOnSameEntity(t *testing.T) {
	f := newFixture(t)
	f.adapter.addEntity(10, "alice@example.com", true)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionDisable,
		EntityID:     10,
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.NoError(t, err)
	assert.True(t, f.adapter.entities[10].locked)

	_, err = f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionDelete,
		EntityID:     10,
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.ErrorIs(t, err, changerequest.ErrRequestAlreadyPending)
}

func TestSubmit_DuplicateActiveEntity(t *testing.T) {
	f := newFixture(t)
	f.adapter.addEntity(10, "alice@example.com", true)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionInsert,
		Payload:      payload("alice@example.com"),
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.ErrorIs(t, err, changerequest.ErrDuplicateEntity)
}

func TestSubmit_DuplicatePendingInsert(t *testing.T) {
	f := newFixture(t)

	submitInsert(t, f, "alice@example.com")

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionInsert,
		Payload:      payload("alice@example.com"),
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.ErrorIs(t, err, changerequest.ErrDuplicateRequest)
}

func TestSubmit_NotificationFailureDegradesResult(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true

	res := submitInsert(t, f, "alice@example.com")

	assert.False(t, res.NotificationSent)
	require.ErrorIs(t, res.Warning, changerequest.ErrNotificationFailure)
	// The pending request survives the failed notification.
	cr, err := f.repo.GetPendingByID(f.ctx, res.RequestID)
	require.NoError(t, err)
	require.NotNil(t, cr)

	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, "notification.send", f.queue.enqueued[0].Topic)
}

func TestDecide_ApproveInsertActivatesEntity(t *testing.T) {
	f := newFixture(t)
	f.adapter.note = "Temporary password for the new account: s3cret"

	var decided []*changerequest.DecidedEvent
	f.bus.Subscribe(func(e *changerequest.DecidedEvent) {
		decided = append(decided, e)
	})

	res := submitInsert(t, f, "alice@example.com")

	out, err := f.service.Decide(f.ctx, services.DecideParams{
		RequestID: res.RequestID,
		Decision:  changerequest.StatusApproved,
		ActorID:   authorizerID,
	})
	require.NoError(t, err)
	assert.True(t, out.NotificationSent)
	assert.Equal(t, changerequest.StatusApproved, out.Request.Status)

	entity := f.adapter.entities[res.EntityID]
	assert.True(t, entity.active)
	assert.False(t, entity.locked)

	// Inputter gets the outcome and the one-time credential.
	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, "inputter@example.com", last.to)
	assert.Equal(t, "Request approved", last.subject)
	assert.Contains(t, last.body, "s3cret")

	require.Len(t, decided, 1)
	assert.Equal(t, changerequest.StatusApproved, decided[0].Decision)
}

func TestDecide_EditAppliesExactPayload(t *testing.T) {
	f := newFixture(t)
	f.adapter.addEntity(10, "alice@example.com", true)

	edited := payload("alice-renamed@example.com")
	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionEdit,
		EntityID:     10,
		Payload:      edited,
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.NoError(t, err)

	pending, err := f.repo.ListByStatus(f.ctx, changerequest.StatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.service.Decide(f.ctx, services.DecideParams{
		RequestID: pending[0].ID,
		Decision:  changerequest.StatusApproved,
		ActorID:   authorizerID,
	})
	require.NoError(t, err)

	require.Len(t, f.adapter.applied, 1)
	assert.Equal(t, changerequest.ActionEdit, f.adapter.applied[0].action)
	assert.JSONEq(t, string(edited), string(f.adapter.applied[0].payload))
	assert.JSONEq(t, string(edited), string(f.adapter.entities[10].payload))
}

func TestDecide_DeleteSoftDeletes(t *testing.T) {
	f := newFixture(t)
	f.adapter.addEntity(10, "alice@example.com", true)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionDelete,
		EntityID:     10,
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.NoError(t, err)

	pending, _ := f.repo.ListByStatus(f.ctx, changerequest.StatusPending, 0, 0)
	require.Len(t, pending, 1)

	_, err = f.service.Decide(f.ctx, services.DecideParams{
		RequestID: pending[0].ID,
		Decision:  changerequest.StatusApproved,
		ActorID:   authorizerID,
	})
	require.NoError(t, err)

	entity := f.adapter.entities[10]
	assert.True(t, entity.deleted)
	assert.False(t, entity.active)
	assert.False(t, entity.locked)
}

func TestDecide_RejectOnlyClearsLock(t *testing.T) {
	f := newFixture(t)
	f.adapter.addEntity(10, "alice@example.com", true)

	_, err := f.service.Submit(f.ctx, services.SubmitParams{
		Kind:         changerequest.KindUser,
		Action:       changerequest.ActionDisable,
		EntityID:     10,
		InputterID:   inputterID,
		AuthorizerID: authorizerID,
	})
	require.NoError(t, err)
	require.True(t, f.adapter.entities[10].locked)

	pending, _ := f.repo.ListByStatus(f.ctx, changerequest.StatusPending, 0, 0)
	require.Len(t, pending, 1)

	out, err := f.service.Decide(f.ctx, services.DecideParams{
		RequestID:       pending[0].ID,
		Decision:        changerequest.StatusRejected,
		ActorID:         authorizerID,
		RejectionReason: "numbers do not add up",
	})
	require.NoError(t, err)
	assert.Equal(t, changerequest.StatusRejected, out.Request.Status)

	entity := f.adapter.entities[10]
	assert.False(t, entity.locked)
	// Entity state beyond the lock is untouched.
	assert.True(t, entity.active)
	assert.Empty(t, f.adapter.applied)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, "Request rejected", last.subject)
	assert.Contains(t, last.body, "numbers do not add up")
}

func TestDecide_RejectWithoutReasonLeavesRequestPending(t *testing.T) {
	f := newFixture(t)

	res := submitInsert(t, f, "alice@example.com")

	_, err := f.service.Decide(f.ctx, services.DecideParams{
		RequestID:       res.RequestID,
		Decision:        changerequest.StatusRejected,
		ActorID:         authorizerID,
		RejectionReason: "   ",
	})
	require.ErrorIs(t, err, changerequest.ErrMissingRejectionReason)

	cr, err := f.repo.GetPendingByID(f.ctx, res.RequestID)
	require.NoError(t, err)
	require.NotNil(t, cr)
	assert.True(t, f.adapter.entities[res.EntityID].locked)
}

func TestDecide_WrongActor(t *testing.T) {
	f := newFixture(t)
	f.directory.addActor(3, "other@example.com", testRole)

	res := submitInsert(t, f, "alice@example.com")

	_, err := f.service.Decide(f.ctx, services.DecideParams{
		RequestID: res.RequestID,
		Decision:  changerequest.StatusApproved,
		ActorID:   3,
	})
	require.ErrorIs(t, err, changerequest.ErrRequestNotFoundOrDecided)
}

func TestDecide_SecondDecisionFails(t *testing.T) {
	f := newFixture(t)

	res := submitInsert(t, f, "alice@example.com")

	_, err := f.service.Decide(f.ctx, services.DecideParams{
		RequestID: res.RequestID,
		Decision:  changerequest.StatusApproved,
		ActorID:   authorizerID,
	})
	require.NoError(t, err)

	_, err = f.service.Decide(f.ctx, services.DecideParams{
		RequestID:       res.RequestID,
		Decision:        changerequest.StatusRejected,
		ActorID:         authorizerID,
		RejectionReason: "changed my mind",
	})
	require.ErrorIs(t, err, changerequest.ErrRequestNotFoundOrDecided)
}

func TestDecide_UnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Decide(f.ctx, services.DecideParams{
		RequestID: uuid.New(),
		Decision:  changerequest.StatusApproved,
		ActorID:   authorizerID,
	})
	require.ErrorIs(t, err, changerequest.ErrRequestNotFoundOrDecided)
}
