package memory

import (
	"context"
	"math"
	"testing"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*Store)(nil)

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Users(nil).Create(ctx, &models.User{ID: "a", PasswordHash: "h"}))
	assert.ErrorIs(t, s.Users(nil).Create(ctx, &models.User{ID: "a"}), common.ErrorDuplicateUser)

	u, err := s.Users(nil).GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "h", u.PasswordHash)

	_, err = s.Users(nil).GetByID(ctx, "b")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRefreshTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Users(nil).Create(ctx, &models.User{ID: "a"}))

	repo := s.RefreshTokens(nil)
	assert.ErrorIs(t, repo.Create(ctx, "ghost", "t0"), common.ErrorNotFound)
	require.NoError(t, repo.Create(ctx, "a", "t1"))
	assert.Equal(t, 1, s.TokenCount("a"))

	rt, err := repo.FindByUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "t1", rt.Token)

	_, err = repo.Find(ctx, "t1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "t1"))
	assert.ErrorIs(t, repo.Delete(ctx, "t1"), common.ErrorNotFound)
	_, err = repo.FindByUser(ctx, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFiles_OwnershipAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Files(nil)

	for _, name := range []string{"1", "2", "3"} {
		require.NoError(t, repo.Create(ctx, &models.File{Name: name, UserID: "a"}))
	}
	require.NoError(t, repo.Create(ctx, &models.File{Name: "x", UserID: "b"}))

	page, total, err := repo.ListOwned(ctx, "a", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "2", page[0].Name)

	page, _, err = repo.ListOwned(ctx, "a", 10, 30)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, total, err = repo.ListOwned(ctx, "a", 10, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, page)

	page, _, err = repo.ListOwned(ctx, "a", math.MaxInt, 1)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	_, err = repo.FindOwned(ctx, 4, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 4, "a"), common.ErrorNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.File{ID: 4, UserID: "a"}), common.ErrorNotFound)

	require.NoError(t, repo.Delete(ctx, 1, "a"))
	_, err = repo.FindOwned(ctx, 1, "a")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
