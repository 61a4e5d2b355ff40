package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pubdesk/pubdesk/modules/approval/domain/changerequest"
	"github.com/pubdesk/pubdesk/modules/core/domain/aggregates/user"
)

type fakeUserRepo struct {
	created      []*user.User
	updated      map[uint]user.UpdateFields
	passwords    map[uint]string
	active       map[uint]bool
	locked       map[uint]bool
	deleted      map[uint]bool
	activeEmails map[string]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		updated:      make(map[uint]user.UpdateFields),
		passwords:    make(map[uint]string),
		active:       make(map[uint]bool),
		locked:       make(map[uint]bool),
		deleted:      make(map[uint]bool),
		activeEmails: make(map[string]bool),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) (uint, error) {
	f.created = append(f.created, u)
	return uint(len(f.created)), nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (*user.User, error) {
	return user.New("Test", "test@example.com", user.WithID(id)), nil
}

func (f *fakeUserRepo) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) ExistsActiveByEmail(_ context.Context, email string) (bool, error) {
	return f.activeEmails[email], nil
}

func (f *fakeUserRepo) Exists(context.Context, uint) (bool, error) {
	return true, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id uint, fields user.UpdateFields) error {
	f.updated[id] = fields
	return nil
}

func (f *fakeUserRepo) SetLocked(_ context.Context, id uint, locked bool) error {
	f.locked[id] = locked
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id uint, active bool) error {
	f.active[id] = active
	return nil
}

func (f *fakeUserRepo) SetPasswordHash(_ context.Context, id uint, hash string) error {
	f.passwords[id] = hash
	return nil
}

func (f *fakeUserRepo) SoftDelete(_ context.Context, id uint) error {
	f.deleted[id] = true
	return nil
}

func TestUserAdapter_ValidatePayload(t *testing.T) {
	a := NewUserAdapter(newFakeUserRepo())
	ctx := context.Background()

	err := a.ValidatePayload(ctx, changerequest.ActionInsert, json.RawMessage(`{"name":"Alice Bello","email":"alice@example.com"}`))
	require.NoError(t, err)

	err = a.ValidatePayload(ctx, changerequest.ActionInsert, json.RawMessage(`{"name":"A","email":"not-an-email"}`))
	require.ErrorIs(t, err, changerequest.ErrValidation)

	err = a.ValidatePayload(ctx, changerequest.ActionInsert, nil)
	require.ErrorIs(t, err, changerequest.ErrValidation)

	// Actions without a snapshot skip payload validation.
	err = a.ValidatePayload(ctx, changerequest.ActionDelete, nil)
	require.NoError(t, err)
}

func TestUserAdapter_NaturalKeyNormalizesEmail(t *testing.T) {
	a := NewUserAdapter(newFakeUserRepo())

	key, err := a.NaturalKey(json.RawMessage(`{"name":"Alice","email":"  Alice@Example.COM "}`))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", key)
}

func TestUserAdapter_CreatePendingStartsLockedInactive(t *testing.T) {
	repo := newFakeUserRepo()
	a := NewUserAdapter(repo)

	id, err := a.CreatePending(context.Background(), json.RawMessage(`{"name":"Alice","email":"alice@example.com"}`))
	require.NoError(t, err)
	require.Equal(t, uint(1), id)

	created := repo.created[0]
	assert.True(t, created.Locked())
	assert.False(t, created.Active())
}

func TestUserAdapter_ApplyInsertIssuesCredential(t *testing.T) {
	repo := newFakeUserRepo()
	a := NewUserAdapter(repo)

	note, err := a.ApplyEffect(context.Background(), &changerequest.ChangeRequest{
		EntityID: 7,
		Action:   changerequest.ActionInsert,
	})
	require.NoError(t, err)
	require.NotEmpty(t, note)
	assert.True(t, repo.active[7])

	hash, ok := repo.passwords[7]
	require.True(t, ok)

	// The note carries the plaintext matching the stored hash.
	parts := note[len(note)-tempPasswordLength:]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(parts)))
}

func TestUserAdapter_ApplyEditCopiesSnapshot(t *testing.T) {
	repo := newFakeUserRepo()
	a := NewUserAdapter(repo)

	instID := uint(3)
	payload, err := json.Marshal(UserPayload{
		Name:          "Alice Renamed",
		Email:         "alice.renamed@example.com",
		InstitutionID: &instID,
	})
	require.NoError(t, err)

	_, err = a.ApplyEffect(context.Background(), &changerequest.ChangeRequest{
		EntityID: 7,
		Action:   changerequest.ActionEdit,
		Payload:  payload,
	})
	require.NoError(t, err)

	fields := repo.updated[7]
	assert.Equal(t, "Alice Renamed", fields.Name)
	assert.Equal(t, "alice.renamed@example.com", fields.Email)
	require.NotNil(t, fields.InstitutionID)
	assert.Equal(t, instID, *fields.InstitutionID)
}

func TestUserAdapter_ApplyDeleteAndToggles(t *testing.T) {
	repo := newFakeUserRepo()
	a := NewUserAdapter(repo)
	ctx := context.Background()

	_, err := a.ApplyEffect(ctx, &changerequest.ChangeRequest{EntityID: 1, Action: changerequest.ActionDelete})
	require.NoError(t, err)
	assert.True(t, repo.deleted[1])

	_, err = a.ApplyEffect(ctx, &changerequest.ChangeRequest{EntityID: 2, Action: changerequest.ActionDisable})
	require.NoError(t, err)
	assert.False(t, repo.active[2])

	_, err = a.ApplyEffect(ctx, &changerequest.ChangeRequest{EntityID: 2, Action: changerequest.ActionEnable})
	require.NoError(t, err)
	assert.True(t, repo.active[2])
}

func TestGenerateTempPassword(t *testing.T) {
	plaintext, hash, err := generateTempPassword()
	require.NoError(t, err)
	assert.Len(t, plaintext, tempPasswordLength)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)))

	other, _, err := generateTempPassword()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}
