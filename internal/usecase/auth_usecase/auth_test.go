package auth_test

import (
	"context"
	"testing"
	"time"

	"campusmarket/internal/domain/model"
	"campusmarket/internal/infra/memory"
	auth "campusmarket/internal/usecase/auth_usecase"
	"campusmarket/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return now }

type uuidGen struct{}

func (uuidGen) NewID() string { return uuid.NewString() }

const secret = "test-secret"

type authFixture struct {
	store    *memory.Store
	register *auth.RegisterUserUsecase
	login    *auth.LoginUsecase
	me       *auth.MeUsecase
}

func newAuthFixture() authFixture {
	store := memory.NewStore()
	return authFixture{
		store:    store,
		register: auth.NewRegisterUserUsecase(store.Users(), auth.NewBcryptPasswordHasher(bcrypt.MinCost), uuidGen{}, fixedClock{}),
		login:    auth.NewLoginUsecase(store.Users(), auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(secret, 15*time.Minute), fixedClock{}),
		me:       auth.NewMeUsecase(store.Users()),
	}
}

func TestRegisterUser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	out, err := f.register.Execute(ctx, validator.RegisterRequest{Email: " Ola@Campus.Test ", Password: "correct horse", DisplayName: "Ola"})
	require.NoError(t, err)
	assert.Equal(t, "ola@campus.test", out.User.Email)
	assert.Equal(t, model.RoleUser, out.User.Role)
	assert.True(t, out.User.IsActive)
	assert.NotEqual(t, "correct horse", out.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(out.User.PasswordHash), []byte("correct horse")))

	_, err = f.register.Execute(ctx, validator.RegisterRequest{Email: "ola@campus.test", Password: "another one"})
	var cErr *model.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestRegisterUser_Validation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	var vErr *model.ValidationError
	_, err := f.register.Execute(ctx, validator.RegisterRequest{Email: "nope", Password: "short"})
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("email"))
	assert.True(t, vErr.HasField("password"))

	_, err = f.register.Execute(ctx, validator.RegisterRequest{Email: "a@campus.test", Password: "Password123"})
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("password"))

	_, err = f.register.Execute(ctx, validator.RegisterRequest{Email: "marta@campus.test", Password: "Marta-2026!"})
	require.ErrorAs(t, err, &vErr)
	assert.True(t, vErr.HasField("password"))
}

func TestRegisterUser_DefaultDisplayName(t *testing.T) {
	f := newAuthFixture()

	out, err := f.register.Execute(context.Background(), validator.RegisterRequest{Email: "zofia.k@campus.test", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "zofia.k", out.User.DisplayName)
	assert.Equal(t, now, out.User.CreatedAt)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	reg, err := f.register.Execute(ctx, validator.RegisterRequest{Email: "kuba@campus.test", Password: "correct horse"})
	require.NoError(t, err)

	out, err := f.login.Execute(ctx, validator.LoginRequest{Email: "KUBA@campus.test", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", out.Token.TokenType)
	assert.Equal(t, 900, out.Token.ExpiresIn)
	require.NotNil(t, out.User.LastLoginAt)

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	_, err = parser.ParseWithClaims(out.Token.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims["sub"])
	assert.Equal(t, "USER", claims["role"])
	assert.Equal(t, float64(now.Add(15*time.Minute).Unix()), claims["exp"])

	me, err := f.me.Execute(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "kuba@campus.test", me.Email)
}

func TestLogin_Rejects(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	reg, err := f.register.Execute(ctx, validator.RegisterRequest{Email: "kuba@campus.test", Password: "correct horse"})
	require.NoError(t, err)

	_, err = f.login.Execute(ctx, validator.LoginRequest{Email: "kuba@campus.test", Password: "wrong horse"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.login.Execute(ctx, validator.LoginRequest{Email: "nobody@campus.test", Password: "correct horse"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	user := reg.User
	user.IsActive = false
	require.NoError(t, f.store.Users().Update(ctx, &user))
	_, err = f.login.Execute(ctx, validator.LoginRequest{Email: "kuba@campus.test", Password: "correct horse"})
	assert.ErrorIs(t, err, auth.ErrUserInactive)

	var uaErr *model.UnauthorizedError
	_, err = f.me.Execute(ctx, uuid.NewString())
	require.ErrorAs(t, err, &uaErr)
}
