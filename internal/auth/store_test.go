package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "helpdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, s.Save(&User{ID: 395, EmployeeCode: "NV0395", EmployeeName: "Nguyễn Văn A"}))

	u, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, int64(395), u.ID)
	assert.Equal(t, "NV0395", u.EmployeeCode)
	assert.Equal(t, "Nguyễn Văn A", u.EmployeeName)
}

func TestStoreSaveReplacesPreviousLogin(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(&User{ID: 1, EmployeeCode: "NV0001", EmployeeName: "First"}))
	require.NoError(t, s.Save(&User{ID: 2, EmployeeCode: "NV0002", EmployeeName: "Second"}))

	u, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
}

func TestStoreClearIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(&User{ID: 5, EmployeeCode: "NV0005", EmployeeName: "X"}))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

type fakeResolver struct {
	user *User
	err  error
}

func (f *fakeResolver) Login(ctx context.Context, code string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func TestServiceLogin(t *testing.T) {
	store := openTestStore(t)
	svc := NewService(&fakeResolver{user: &User{ID: 9, EmployeeCode: "NV0009", EmployeeName: "Y"}}, store)

	u, err := svc.Login(context.Background(), "  NV0009  ")
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)

	stored, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
}

func TestServiceLoginFailureDoesNotPersist(t *testing.T) {
	store := openTestStore(t)
	svc := NewService(&fakeResolver{err: errors.New("unknown employee")}, store)

	_, err := svc.Login(context.Background(), "NV9999")
	require.Error(t, err)

	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestServiceLoginRequiresCode(t *testing.T) {
	store := openTestStore(t)
	svc := NewService(&fakeResolver{}, store)

	_, err := svc.Login(context.Background(), "   ")
	assert.Error(t, err)
}
