package directory

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage"
	"github.com/Rishika-pasricha/Hack-Hub/internal/storage/memory"
)

const dataset = `District,Municipality_Name,Municipality_Type,Area_SqKm,Population,Contact_Email,Contact_Phone,Admin_Password
Gurugram,Gurugram Municipal Corporation,Municipal Corporation,232,876824,MCG@Haryana.gov.in,0124-2222222,secret123
"Faridabad, NCR","Faridabad ""Metro"" Corporation",Municipal Corporation,n/a,1414050,mcf@haryana.gov.in,0129-1111111,
Rewari,,Municipal Council,25,143021,mcr@haryana.gov.in,01274-000000,
`

type fakeHasher struct{}

func (fakeHasher) HashPassword(p string) (string, error) { return "hashed:" + p, nil }

func TestResolveOrder(t *testing.T) {
	list := []models.Municipality{
		{Name: "Sohna Municipal Council", District: "Gurugram"},
		{Name: "Gurugram Municipal Corporation", District: "Gurugram"},
		{Name: "Gurugram", District: "Gurugram"},
	}

	m, ok := Resolve(list, "  GURUGRAM ")
	require.True(t, ok)
	assert.Equal(t, "Gurugram", m.Name, "exact name beats earlier substring matches")

	m, ok = Resolve(list[:2], "gurugram")
	require.True(t, ok)
	assert.Equal(t, "Gurugram Municipal Corporation", m.Name, "name substring beats district")

	m, ok = Resolve(list[:1], "gurugram")
	require.True(t, ok)
	assert.Equal(t, "Sohna Municipal Council", m.Name, "district substring is the last resort")

	_, ok = Resolve(list, "Panipat")
	assert.False(t, ok)
	_, ok = Resolve(list, "   ")
	assert.False(t, ok)
}

func TestParseDataset(t *testing.T) {
	rows, skipped, err := ParseDataset(strings.NewReader(dataset))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 2)

	assert.Equal(t, "mcg@haryana.gov.in", rows[0].ContactEmail)
	assert.Equal(t, 232.0, rows[0].AreaSqKm)
	assert.Equal(t, "secret123", rows[0].AdminPassword)

	assert.Equal(t, "Faridabad, NCR", rows[1].District)
	assert.Equal(t, `Faridabad "Metro" Corporation`, rows[1].Name)
	assert.Zero(t, rows[1].AreaSqKm)
	assert.Empty(t, rows[1].AdminPassword)
}

func TestParseDatasetMissingColumns(t *testing.T) {
	_, _, err := ParseDataset(strings.NewReader("District,Municipality_Name\nA,B\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Contact_Email")
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, _, err = ParseDataset(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.ErrorIs(t, err, ErrInvalidDataset)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, "")
	ctx := context.Background()

	_, loaded, err := c.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, c.Replace(ctx, nil))
	found, loaded, err := c.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, loaded, "empty directory still counts as loaded")
	assert.False(t, found)

	require.NoError(t, c.Replace(ctx, []string{"a@x.com"}))
	found, _, err = c.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, found)

	members, err := mr.Members(DefaultCacheKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{loadedMarker, "a@x.com"}, members)
}

func TestSyncHashesAndRefreshesCache(t *testing.T) {
	store := memory.New()
	cache := NewMemoryCache()
	d := New(store, cache, fakeHasher{}, nil)
	ctx := context.Background()

	res, err := d.Sync(ctx, strings.NewReader(dataset))
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Upserts: 2, Skipped: 1}, res)

	m, err := d.Get(ctx, "MCG@haryana.gov.in")
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret123", m.PasswordHash)

	ok, err := d.IsMunicipality(ctx, " mcf@haryana.gov.in ")
	require.NoError(t, err)
	assert.True(t, ok)

	// re-import without the password keeps the stored credential
	_, err = d.Sync(ctx, strings.NewReader(strings.Replace(dataset, "secret123", "", 1)))
	require.NoError(t, err)
	m, err = d.Get(ctx, "mcg@haryana.gov.in")
	require.NoError(t, err)
	assert.Equal(t, "hashed:secret123", m.PasswordHash)
}

func TestIsMunicipalityReadsThrough(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.UpsertMunicipality(ctx, models.Municipality{
		District: "Gurugram", Name: "Gurugram Municipal Corporation", Type: "MC", ContactEmail: "mcg@haryana.gov.in",
	}))

	mr := miniredis.RunT(t)
	d := New(store, NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ""), nil, nil)

	ok, err := d.IsMunicipality(ctx, "mcg@haryana.gov.in")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(DefaultCacheKey))

	ok, err = d.IsMunicipality(ctx, "citizen@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := d.ResolveArea(ctx, "gurugram")
	require.NoError(t, err)
	assert.Equal(t, "Gurugram Municipal Corporation", m.Name)

	_, err = d.ResolveArea(ctx, "Nowhere")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
