package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelframe/client-portal/client-portal-backend/internal/users"
)

type fakeUserRepo struct {
	byID    map[uuid.UUID]*users.User
	byEmail map[string]*users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[uuid.UUID]*users.User),
		byEmail: make(map[string]*users.User),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) ResolveContact(ctx context.Context, userID uuid.UUID) (*users.Contact, error) {
	user, ok := r.byID[userID]
	if !ok || user.Email == "" {
		return nil, nil
	}
	return &users.Contact{Email: user.Email, Name: user.Name}, nil
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewService(repo, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := service.Register(ctx, "ada@example.com", "Ada", "correct horse", users.RoleClient)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	token, loggedIn, err := service.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	userID, role, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, users.RoleClient, role)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewService(repo, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := service.Register(ctx, "ada@example.com", "Ada", "correct horse", users.RoleClient)
	require.NoError(t, err)

	_, _, err = service.Login(ctx, "ada@example.com", "battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDefaultsUnknownRoleToClient(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewService(repo, "test-secret", time.Hour)

	user, err := service.Register(context.Background(), "ada@example.com", "Ada", "pw", "SUPERADMIN")
	require.NoError(t, err)
	assert.Equal(t, users.RoleClient, user.Role)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := NewService(repo, "secret-a", time.Hour)
	verifier := NewService(repo, "secret-b", time.Hour)

	user := &users.User{ID: uuid.New(), Role: users.RoleStaff}
	token, err := issuer.IssueToken(user)
	require.NoError(t, err)

	_, _, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	repo := newFakeUserRepo()
	service := NewService(repo, "test-secret", time.Hour)
	service.ttl = -time.Minute

	token, err := service.IssueToken(&users.User{ID: uuid.New(), Role: users.RoleClient})
	require.NoError(t, err)

	_, _, err = service.ParseToken(token)
	assert.Error(t, err)
}
