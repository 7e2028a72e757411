package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Marketplace/internal/models"
	"Marketplace/internal/services"
	"Marketplace/internal/testutil"
)

type userFixture struct {
	db       *gorm.DB
	svc      *services.UserService
	tokens   *services.TokenService
	denylist *services.DBDenylist
	store    *testutil.MemoryStore
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	db := testutil.NewDB(t)
	tokens := services.NewTokenService("test-secret", time.Hour)
	denylist := services.NewDBDenylist(db)
	store := testutil.NewMemoryStore()
	return userFixture{
		db:       db,
		svc:      services.NewUserService(db, tokens, denylist, store, "setup-key"),
		tokens:   tokens,
		denylist: denylist,
		store:    store,
	}
}

func TestRegisterDefaultsToBuyer(t *testing.T) {
	f := newUserFixture(t)

	user, err := f.svc.Register(context.Background(), services.RegisterInput{
		Name: "Jane", Email: "  Jane@Example.com ", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, user.Role)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password)
}

func TestRegisterValidation(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), services.RegisterInput{
		Email: "not-an-email", Password: "short", Role: "wizard",
	})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "role")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	in := services.RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "password123", Role: "seller"}

	_, err := f.svc.Register(ctx, in)
	require.NoError(t, err)

	in.Email = "JANE@example.com"
	_, err = f.svc.Register(ctx, in)
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestRegisterAdminNeedsSetupKey(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, services.RegisterInput{
		Name: "Root", Email: "root@example.com", Password: "password123", Role: "admin",
	})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.svc.Register(ctx, services.RegisterInput{
		Name: "Root", Email: "root@example.com", Password: "password123", Role: "admin", SetupKey: "wrong",
	})
	assert.ErrorIs(t, err, services.ErrForbidden)

	admin, err := f.svc.Register(ctx, services.RegisterInput{
		Name: "Root", Email: "root@example.com", Password: "password123", Role: "admin", SetupKey: "setup-key",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestCreateAdminBypassesSetupKey(t *testing.T) {
	f := newUserFixture(t)

	admin, err := f.svc.CreateAdmin(context.Background(), "Ops", "ops@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestLoginAndLogout(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Jane", models.RoleSeller)

	_, _, err := f.svc.Login(ctx, services.LoginInput{Email: user.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: testutil.Password})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	got, token, err := f.svc.Login(ctx, services.LoginInput{Email: user.Email, Password: testutil.Password})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := f.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleSeller, claims.Role)

	revoked, err := f.denylist.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.Logout(ctx, claims))
	require.NoError(t, f.svc.Logout(ctx, claims))

	revoked, err = f.denylist.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUpdateProfile(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "Jane", models.RoleBuyer)
	other := testutil.CreateUser(t, f.db, "Other", models.RoleBuyer)

	updated, err := f.svc.UpdateProfile(ctx, user.ID, services.ProfileInput{
		Name:  "Jane Doe",
		Email: user.Email,
		Age:   ptr(30),
		Sex:   ptr("female"),
		City:  ptr("Lagos"),
	}, testutil.FileHeader(t, "me.png", testutil.PNG))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Name)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 30, *updated.Age)
	require.NotNil(t, updated.Image)
	first := *updated.Image

	again, err := f.svc.UpdateProfile(ctx, user.ID, services.ProfileInput{
		Name: "Jane Doe", Email: user.Email,
	}, testutil.FileHeader(t, "me2.png", testutil.PNG))
	require.NoError(t, err)
	assert.NotEqual(t, first, *again.Image)
	assert.Equal(t, []string{first}, f.store.Deleted)
	require.NotNil(t, again.City)
	assert.Equal(t, "Lagos", *again.City)

	_, err = f.svc.UpdateProfile(ctx, user.ID, services.ProfileInput{Name: "Jane", Email: other.Email}, nil)
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestUpdateProfileValidation(t *testing.T) {
	f := newUserFixture(t)
	user := testutil.CreateUser(t, f.db, "Jane", models.RoleBuyer)

	_, err := f.svc.UpdateProfile(context.Background(), user.ID, services.ProfileInput{
		Email: "bad",
		Age:   ptr(0),
		Sex:   ptr("robot"),
		Phone: ptr("012345678901234567890"),
	}, testutil.FileHeader(t, "doc.png", []byte("%PDF-1.4 not an image")))

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"name", "email", "age", "sex", "phone", "image"} {
		assert.Contains(t, verr.Fields, field)
	}
	assert.Empty(t, f.store.Objects)
}
