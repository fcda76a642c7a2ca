package service

import (
	"context"
	"testing"

	"shoptrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func TestGetProfile(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	created, err := svc.Register(context.Background(), RegisterUserRequest{
		Username: "shopkeeper",
		Password: "secret1",
	})
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, profile.ID)
	assert.Equal(t, "shopkeeper", profile.Username)
}

func TestGetProfile_InvalidID(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.GetProfile(context.Background(), "not-a-uuid")
	require.Error(t, err)
}

func TestGetProfile_UnknownUser(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.GetProfile(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterUserRequest{Username: "shopkeeper", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterUserRequest{Username: "shopkeeper", Password: "secret2"})
	require.Error(t, err)
}
