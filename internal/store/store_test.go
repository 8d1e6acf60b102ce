package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mwi/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesSchemaAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.CreateLand("persisted", "", "fr")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	l, err := s2.GetLand("persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", l.Name)
}

func TestCreateLand(t *testing.T) {
	s := newTestStore(t)

	l, err := s.CreateLand("climat", "étude du climat", "")
	require.NoError(t, err)
	assert.Equal(t, "fr", l.Lang, "default language falls back to fr")
	assert.NotZero(t, l.ID)

	_, err = s.CreateLand("climat", "duplicate", "fr")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetLand_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetLand("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLands(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateLand("alpha", "", "fr")
	require.NoError(t, err)
	_, err = s.CreateLand("beta", "", "en")
	require.NoError(t, err)

	all, err := s.ListLands("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.ListLands("beta")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "beta", filtered[0].Name)
}

func TestDictionary_AddWordAndLink(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)

	require.NoError(t, s.AddTerm(land.ID, "écologie", "ecolog"))
	require.NoError(t, s.AddTerm(land.ID, "écologique", "ecolog"))
	require.NoError(t, s.AddTerm(land.ID, "climat", "climat"))

	lemmas, err := s.Dictionary(land.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ecolog", "climat"}, lemmas, "distinct lemmas only")
}

func TestAddWordIfAbsent_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	w1, err := s.AddWordIfAbsent("eau", "eau")
	require.NoError(t, err)
	w2, err := s.AddWordIfAbsent("eau", "eau")
	require.NoError(t, err)
	assert.Equal(t, w1.ID, w2.ID)
}

func TestUpsertExpression_NeverRaisesDepth(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)

	e1, err := s.UpsertExpression(land.ID, "https://example.com/a", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, e1.Depth)

	e2, err := s.UpsertExpression(land.ID, "https://example.com/a", 5)
	require.NoError(t, err)
	assert.Equal(t, e1.ID, e2.ID)
	assert.Equal(t, 1, e2.Depth, "rediscovery at a deeper depth does not raise the stored depth")
}

func TestSaveExpression_PersistsFullFieldSet(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)

	e, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)

	e.Title = "Le Climat"
	e.Relevance = 42
	e.Lang = "fr"
	require.NoError(t, s.SaveExpression(e))

	got, err := s.GetExpression(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Le Climat", got.Title)
	assert.Equal(t, 42, got.Relevance)
}

func TestListExpressions_Filters(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)

	e1, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	_, err = s.UpsertExpression(land.ID, "https://example.com/b", 0)
	require.NoError(t, err)

	min := 1
	e1.Relevance = 5
	require.NoError(t, s.SaveExpression(e1))

	filtered, err := s.ListExpressions(ExpressionFilter{LandID: land.ID, MinRelevance: &min})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, e1.ID, filtered[0].ID)
}

func TestAddLink_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	a, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	b, err := s.UpsertExpression(land.ID, "https://example.com/b", 1)
	require.NoError(t, err)

	require.NoError(t, s.AddLink(a.ID, b.ID))
	require.NoError(t, s.AddLink(a.ID, b.ID))

	out, err := s.Outlinks(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, out)
}

func TestGetOrCreateDomain(t *testing.T) {
	s := newTestStore(t)
	d1, err := s.GetOrCreateDomain("example.com")
	require.NoError(t, err)
	d2, err := s.GetOrCreateDomain("example.com")
	require.NoError(t, err)
	assert.Equal(t, d1.ID, d2.ID)

	d1.Title = "Example"
	require.NoError(t, s.SaveDomain(d1))

	got, err := s.GetDomain(d1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Example", got.Title)
}

func TestMedia_UpsertAndSave(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	e, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)

	m1, err := s.UpsertMedia(e.ID, "https://example.com/a.jpg", "img")
	require.NoError(t, err)
	m2, err := s.UpsertMedia(e.ID, "https://example.com/a.jpg", "img")
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)

	m1.Width = 800
	m1.Height = 600
	m1.PerceptualHash = "abc123"
	require.NoError(t, s.SaveMedia(m1))

	got, err := s.GetMediaByID(m1.ID)
	require.NoError(t, err)
	assert.Equal(t, 800, got.Width)
	assert.Equal(t, "abc123", got.PerceptualHash)

	require.NoError(t, s.DeleteMedia(m1.ID))
	_, err = s.GetMediaByID(m1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLand_CascadesExpressionsLinksAndMedia(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	a, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	b, err := s.UpsertExpression(land.ID, "https://example.com/b", 1)
	require.NoError(t, err)
	require.NoError(t, s.AddLink(a.ID, b.ID))
	_, err = s.UpsertMedia(a.ID, "https://example.com/a.jpg", "img")
	require.NoError(t, err)

	require.NoError(t, s.DeleteLand("climat", nil))

	_, err = s.GetLand("climat")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetExpression(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	out, err := s.Outlinks(a.ID)
	require.NoError(t, err)
	assert.Empty(t, out)

	media, err := s.ListMedia(a.ID, false)
	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestDeleteExpressions_Predicate(t *testing.T) {
	s := newTestStore(t)
	land, err := s.CreateLand("climat", "", "fr")
	require.NoError(t, err)
	a, err := s.UpsertExpression(land.ID, "https://example.com/a", 0)
	require.NoError(t, err)
	a.Relevance = 0
	require.NoError(t, s.SaveExpression(a))

	b, err := s.UpsertExpression(land.ID, "https://example.com/b", 0)
	require.NoError(t, err)
	b.Relevance = 10
	require.NoError(t, s.SaveExpression(b))

	n, err := s.DeleteExpressions(land.ID, func(e *model.Expression) bool { return e.Relevance == 0 })
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetExpression(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetExpression(b.ID)
	assert.NoError(t, err)
}
