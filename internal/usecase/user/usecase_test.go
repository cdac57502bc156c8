package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-item-service/internal/domain/user"
	pkgerrors "user-item-service/pkg/errors"
	"user-item-service/pkg/security"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockItemRepository is a mock implementation of the ItemRepository interface
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func setupTestService(t *testing.T) (*Service, *MockRepository, *MockItemRepository) {
	mockRepo := new(MockRepository)
	mockItems := new(MockItemRepository)
	svc := New(mockRepo, mockItems, zaptest.NewLogger(t))
	return svc, mockRepo, mockItems
}

// ==================== CREATE USER TESTS ====================

func TestCreateUser_Success(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	req := CreateUserRequest{
		Email:    "john@example.com",
		Password: "secret",
		FullName: "John Doe",
	}

	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		// The plaintext never reaches the store; only a verifiable hash does.
		return u.Email == req.Email &&
			u.HashedPassword != req.Password &&
			security.VerifyPassword(u.HashedPassword, req.Password) &&
			u.IsActive && !u.IsSuperuser
	})).Return(&domain.User{
		ID:             1,
		Email:          req.Email,
		HashedPassword: "stored-hash",
		FullName:       req.FullName,
		IsActive:       true,
	}, nil)

	resp, err := svc.CreateUser(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, req.Email, resp.Email)
	assert.True(t, resp.IsActive)
	assert.False(t, resp.IsSuperuser)

	mockRepo.AssertExpectations(t)
}

func TestCreateUser_ExplicitFlags(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	inactive := false
	super := true
	req := CreateUserRequest{
		Email:       "admin@example.com",
		Password:    "secret",
		IsActive:    &inactive,
		IsSuperuser: &super,
	}

	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return !u.IsActive && u.IsSuperuser
	})).Return(&domain.User{ID: 2, Email: req.Email, IsSuperuser: true}, nil)

	resp, err := svc.CreateUser(ctx, req)

	require.NoError(t, err)
	assert.True(t, resp.IsSuperuser)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	req := CreateUserRequest{Email: "john@example.com", Password: "secret"}

	mockRepo.On("GetByEmail", ctx, req.Email).Return(&domain.User{ID: 1, Email: req.Email}, nil)

	resp, err := svc.CreateUser(ctx, req)

	require.Error(t, err)
	assert.Nil(t, resp)

	var exists *pkgerrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateUserRequest
	}{
		{"missing email", CreateUserRequest{Password: "secret"}},
		{"missing password", CreateUserRequest{Email: "john@example.com"}},
		{"invalid email", CreateUserRequest{Email: "not-an-email", Password: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.CreateUser(ctx, tt.req)
			require.Error(t, err)
			assert.Nil(t, resp)

			var invalid *pkgerrors.ValidationError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

// ==================== GET USER TESTS ====================

func TestGetUser_Success(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{
		ID:             1,
		Email:          "john@example.com",
		HashedPassword: "hash",
		IsActive:       true,
	}, nil)

	resp, err := svc.GetUser(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "john@example.com", resp.Email)
	mockRepo.AssertExpectations(t)
}

func TestGetUser_NotFound(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(42)).Return(nil, nil)

	resp, err := svc.GetUser(ctx, 42)

	require.Error(t, err)
	assert.Nil(t, resp)

	var notFound *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGetUser_ZeroID(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	// No row ever has id 0, so the lookup takes the ordinary absent path.
	mockRepo.On("GetByID", ctx, int64(0)).Return(nil, nil)

	resp, err := svc.GetUser(ctx, 0)

	require.Error(t, err)
	assert.Nil(t, resp)

	var notFound *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// ==================== UPDATE USER TESTS ====================

func TestUpdateUser_Success(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	name := "New Name"
	req := UpdateUserRequest{ID: 1, FullName: &name}

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Email: "john@example.com"}, nil)
	mockRepo.On("Update", ctx, int64(1), mock.MatchedBy(func(p domain.Patch) bool {
		return p.FullName != nil && *p.FullName == name && p.Email == nil && p.HashedPassword == nil
	})).Return(&domain.User{ID: 1, Email: "john@example.com", FullName: name, IsActive: true}, nil)

	resp, err := svc.UpdateUser(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, name, resp.FullName)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_EmptyBodyIsNoOp(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Email: "john@example.com", IsActive: true}, nil)
	mockRepo.On("Update", ctx, int64(1), domain.Patch{}).
		Return(&domain.User{ID: 1, Email: "john@example.com", IsActive: true}, nil)

	resp, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 1})

	require.NoError(t, err)
	assert.Equal(t, "john@example.com", resp.Email)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_HashesNewPassword(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	password := "new-secret"
	req := UpdateUserRequest{ID: 1, Password: &password}

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Email: "john@example.com"}, nil)
	mockRepo.On("Update", ctx, int64(1), mock.MatchedBy(func(p domain.Patch) bool {
		return p.HashedPassword != nil &&
			*p.HashedPassword != password &&
			security.VerifyPassword(*p.HashedPassword, password)
	})).Return(&domain.User{ID: 1, Email: "john@example.com"}, nil)

	_, err := svc.UpdateUser(ctx, req)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(42)).Return(nil, nil)

	resp, err := svc.UpdateUser(ctx, UpdateUserRequest{ID: 42})

	require.Error(t, err)
	assert.Nil(t, resp)

	var notFound *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	email := "taken@example.com"
	req := UpdateUserRequest{ID: 1, Email: &email}

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Email: "john@example.com"}, nil)
	mockRepo.On("GetByEmail", ctx, email).Return(&domain.User{ID: 2, Email: email}, nil)

	resp, err := svc.UpdateUser(ctx, req)

	require.Error(t, err)
	assert.Nil(t, resp)

	var exists *pkgerrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// ==================== DELETE USER TESTS ====================

func TestDeleteUser_Success(t *testing.T) {
	svc, mockRepo, mockItems := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Email: "john@example.com"}, nil)
	mockItems.On("CountByOwner", ctx, int64(1)).Return(int64(0), nil)
	mockRepo.On("Delete", ctx, int64(1)).Return(nil)

	err := svc.DeleteUser(ctx, 1)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestDeleteUser_NotFound(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(42)).Return(nil, nil)
	mockRepo.On("GetByID", ctx, int64(0)).Return(nil, nil)

	var notFound *pkgerrors.NotFoundError

	err := svc.DeleteUser(ctx, 42)
	require.Error(t, err)
	assert.ErrorAs(t, err, &notFound)

	// Zero is just another id without a row behind it.
	err = svc.DeleteUser(ctx, 0)
	require.Error(t, err)
	assert.ErrorAs(t, err, &notFound)

	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUser_RestrictedWhileOwningItems(t *testing.T) {
	svc, mockRepo, mockItems := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, Email: "john@example.com"}, nil)
	mockItems.On("CountByOwner", ctx, int64(1)).Return(int64(3), nil)

	err := svc.DeleteUser(ctx, 1)

	require.Error(t, err)

	var conflict *pkgerrors.ConflictError
	assert.ErrorAs(t, err, &conflict)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// ==================== LIST USERS TESTS ====================

func TestListUsers_Success(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx, 2, 2).Return([]domain.User{
		{ID: 3, Email: "user3@example.com", HashedPassword: "h", IsActive: true},
		{ID: 4, Email: "user4@example.com", HashedPassword: "h", IsActive: true},
	}, nil)

	resp, err := svc.ListUsers(ctx, ListUsersRequest{Skip: 2, Limit: 2})

	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, int64(3), resp[0].ID)
	assert.Equal(t, int64(4), resp[1].ID)
	mockRepo.AssertExpectations(t)
}

func TestListUsers_NegativeInput(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)

	_, err := svc.ListUsers(context.Background(), ListUsersRequest{Skip: -1, Limit: 10})
	require.Error(t, err)

	var invalid *pkgerrors.ValidationError
	assert.ErrorAs(t, err, &invalid)
	mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUsers_RepositoryError(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx, 0, 0).Return(nil, errors.New("db gone"))

	_, err := svc.ListUsers(ctx, ListUsersRequest{})
	require.Error(t, err)
}

// ==================== AUTHENTICATE TESTS ====================

func TestAuthenticateUser(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	hashed, err := security.HashPassword("right-password")
	require.NoError(t, err)

	mockRepo.On("GetByEmail", ctx, "john@example.com").Return(&domain.User{
		ID:             1,
		Email:          "john@example.com",
		HashedPassword: hashed,
		IsActive:       true,
	}, nil)
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, nil)

	t.Run("correct credentials", func(t *testing.T) {
		u, err := svc.AuthenticateUser(ctx, "john@example.com", "right-password")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, int64(1), u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		u, err := svc.AuthenticateUser(ctx, "john@example.com", "wrong-password")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("unknown email", func(t *testing.T) {
		u, err := svc.AuthenticateUser(ctx, "nobody@example.com", "right-password")
		require.NoError(t, err)
		assert.Nil(t, u)
	})
}
