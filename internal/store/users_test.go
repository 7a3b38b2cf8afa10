package store

import (
	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/testutil"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newUser(name string) *model.User {
	return &model.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "$argon2id$hash",
	}
}

func TestUserStore_CreateAndLookup(t *testing.T) {
	s := NewUserStore(testutil.NewDB(t))
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, s.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, model.DefaultImageFile, u.ImageFile)

	byEmail, err := s.ByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := s.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := s.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = s.ByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStore_CreateDuplicate(t *testing.T) {
	d := testutil.NewDB(t)
	s := NewUserStore(d)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newUser("alice")))

	sameName := newUser("alice")
	sameName.Email = "other@example.com"
	assert.ErrorIs(t, s.Create(ctx, sameName), ErrDuplicate)

	sameEmail := newUser("bob")
	sameEmail.Email = "alice@example.com"
	assert.ErrorIs(t, s.Create(ctx, sameEmail), ErrDuplicate)

	var count int64
	require.NoError(t, d.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUserStore_Taken(t *testing.T) {
	s := NewUserStore(testutil.NewDB(t))
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, s.Create(ctx, alice))

	taken, err := s.UsernameTaken(ctx, "alice", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.UsernameTaken(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own username must not count as taken")

	taken, err = s.EmailTaken(ctx, "bob@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserStore_Updates(t *testing.T) {
	s := NewUserStore(testutil.NewDB(t))
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, s.Create(ctx, alice))
	require.NoError(t, s.Create(ctx, newUser("bob")))

	alice.Username = "alice2"
	alice.ImageFile = "abc.png"
	require.NoError(t, s.UpdateProfile(ctx, alice))

	got, err := s.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "abc.png", got.ImageFile)

	alice.Username = "bob"
	assert.ErrorIs(t, s.UpdateProfile(ctx, alice), ErrDuplicate)

	require.NoError(t, s.UpdatePassword(ctx, alice.ID, "new-hash"))
	got, err = s.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)

	assert.ErrorIs(t, s.UpdatePassword(ctx, 999, "x"), ErrNotFound)
}

func TestUserStore_DatabaseError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("alice@example.com", 1).
		WillReturnError(errors.New("connection reset"))

	_, err = NewUserStore(gormDB).ByEmail(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
