package user_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/user"
)

func TestService_Register(t *testing.T) {
	type testCase struct {
		name      string
		params    user.RegisterParams
		setupMock func(repo *user.MockRepository, hasher *user.MockPasswordHasher)
		wantField string
		wantErr   error
	}

	valid := user.RegisterParams{Name: " Ada ", Email: "  Ada@Example.COM ", Password: "secret1"}

	tests := []testCase{
		{
			name:   "Success",
			params: valid,
			setupMock: func(repo *user.MockRepository, hasher *user.MockPasswordHasher) {
				hasher.EXPECT().Hash("secret1").Return("hashed", nil)
				repo.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						assert.Equal(t, "Ada", u.Name)
						assert.Equal(t, "ada@example.com", u.Email)
						assert.Equal(t, "hashed", u.PasswordHash)
						u.ID = uuid.New()

						return nil
					})
			},
		},
		{
			name:      "MissingName",
			params:    user.RegisterParams{Email: "a@b.co", Password: "secret1"},
			wantField: "name",
		},
		{
			name:      "InvalidEmail",
			params:    user.RegisterParams{Name: "A", Email: "not-an-email", Password: "secret1"},
			wantField: "email",
		},
		{
			name:      "ShortPassword",
			params:    user.RegisterParams{Name: "A", Email: "a@b.co", Password: "12345"},
			wantField: "password",
		},
		{
			name:      "MultibytePasswordTooLong",
			params:    user.RegisterParams{Name: "A", Email: "a@b.co", Password: strings.Repeat("é", 40)},
			wantField: "password",
		},
		{
			name:   "MultibytePasswordWithinLimit",
			params: user.RegisterParams{Name: "A", Email: "a@b.co", Password: strings.Repeat("é", 36)},
			setupMock: func(repo *user.MockRepository, hasher *user.MockPasswordHasher) {
				hasher.EXPECT().Hash(strings.Repeat("é", 36)).Return("hashed", nil)
				repo.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						u.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:   "EmailTaken",
			params: valid,
			setupMock: func(repo *user.MockRepository, hasher *user.MockPasswordHasher) {
				hasher.EXPECT().Hash(gomock.Any()).Return("hashed", nil)
				repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(user.ErrEmailTaken)
			},
			wantErr: user.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := user.NewMockRepository(ctrl)
			hasher := user.NewMockPasswordHasher(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, hasher)
			}

			got, err := user.NewService(repo, hasher).Register(context.Background(), tt.params)

			switch {
			case tt.wantField != "":
				var verr *user.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, got.ID)
			}
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	stored := &user.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "hashed"}

	type testCase struct {
		name      string
		setupMock func(repo *user.MockRepository, hasher *user.MockPasswordHasher)
		wantErr   error
		wantFail  bool
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(repo *user.MockRepository, hasher *user.MockPasswordHasher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "ada@example.com").Return(stored, nil)
				hasher.EXPECT().Compare("hashed", "secret1").Return(nil)
			},
		},
		{
			name: "UnknownEmail",
			setupMock: func(repo *user.MockRepository, _ *user.MockPasswordHasher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(nil, user.ErrNotFound)
			},
			wantErr: user.ErrInvalidCredentials,
		},
		{
			name: "WrongPassword",
			setupMock: func(repo *user.MockRepository, hasher *user.MockPasswordHasher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(stored, nil)
				hasher.EXPECT().Compare(gomock.Any(), gomock.Any()).Return(errors.New("mismatch"))
			},
			wantErr: user.ErrInvalidCredentials,
		},
		{
			name: "StoreFailure",
			setupMock: func(repo *user.MockRepository, _ *user.MockPasswordHasher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := user.NewMockRepository(ctrl)
			hasher := user.NewMockPasswordHasher(ctrl)
			tt.setupMock(repo, hasher)

			got, err := user.NewService(repo, hasher).Authenticate(context.Background(), " ADA@example.com", "secret1")

			if tt.wantFail {
				require.Error(t, err)
				assert.NotErrorIs(t, err, user.ErrInvalidCredentials)

				return
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, stored.ID, got.ID)
		})
	}
}

func TestService_GetAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := user.NewMockRepository(ctrl)
	svc := user.NewService(repo, user.NewMockPasswordHasher(ctrl))
	id := uuid.New()

	repo.EXPECT().GetUser(gomock.Any(), id).Return(nil, user.ErrNotFound)
	repo.EXPECT().DeleteUser(gomock.Any(), id).Return(nil)

	_, err := svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.NoError(t, svc.Delete(context.Background(), id))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", user.NormalizeEmail("  Ada@Example.com\t"))
}
