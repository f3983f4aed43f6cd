// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package post_test

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/board/post"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/pagination"
)

// # Test Doubles

type fakeStore struct {
	mu    sync.Mutex
	posts map[string]*post.Post
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: make(map[string]*post.Post)}
}

func (store *fakeStore) sorted(match func(*post.Post) bool) []post.Post {
	store.mu.Lock()
	defer store.mu.Unlock()
	var out []post.Post
	for _, p := range store.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (store *fakeStore) List(_ context.Context, filter post.Filter, page pagination.Params) ([]post.Post, int, error) {
	matches := store.sorted(func(p *post.Post) bool {
		if !filter.IncludeInactive && p.Status == post.StatusInactive {
			return false
		}
		if filter.Type != "" && p.Type != filter.Type {
			return false
		}
		if filter.Status != "" && p.Status != filter.Status {
			return false
		}
		return true
	})

	total := len(matches)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (store *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]post.Post, error) {
	return store.sorted(func(p *post.Post) bool { return p.OwnerID == ownerID }), nil
}

func (store *fakeStore) Get(_ context.Context, id string) (*post.Post, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if found, ok := store.posts[id]; ok {
		copied := *found
		return &copied, nil
	}
	return nil, apperr.NotFound("Post")
}

func (store *fakeStore) Create(_ context.Context, p *post.Post) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	copied := *p
	store.posts[p.ID] = &copied
	return nil
}

func (store *fakeStore) Update(_ context.Context, p *post.Post) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.posts[p.ID]; !ok {
		return apperr.NotFound("Post")
	}
	copied := *p
	store.posts[p.ID] = &copied
	return nil
}

type fakeDirectory struct {
	accounts map[string]*auth.Account
}

func (directory *fakeDirectory) FindByID(_ context.Context, id string) (*auth.Account, error) {
	if account, ok := directory.accounts[id]; ok {
		return account, nil
	}
	return nil, apperr.NotFound("Account")
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]struct {
		posts []post.Post
		total int
	}
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]struct {
		posts []post.Post
		total int
	})}
}

func (cache *fakeCache) GetFeed(_ context.Context, key string) ([]post.Post, int, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if entry, ok := cache.entries[key]; ok {
		return entry.posts, entry.total, true
	}
	return nil, 0, false
}

func (cache *fakeCache) SetFeed(_ context.Context, key string, posts []post.Post, total int) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries[key] = struct {
		posts []post.Post
		total int
	}{posts, total}
}

func (cache *fakeCache) Invalidate(_ context.Context) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries = make(map[string]struct {
		posts []post.Post
		total int
	})
	cache.invalidated++
}

// # Fixture

const (
	ownerID = "owner-1"
	adminID = "admin-1"
	otherID = "other-1"
)

func newService(t *testing.T) (*post.Service, *fakeStore, *fakeCache) {
	t.Helper()

	store := newFakeStore()
	cache := newFakeCache()
	directory := &fakeDirectory{accounts: map[string]*auth.Account{
		ownerID: {ID: ownerID, Name: "Ana", Email: "ana@example.test", Role: auth.RoleUser, Active: true},
		adminID: {ID: adminID, Name: "Root", Email: "root@example.test", Role: auth.RoleAdmin, Active: true},
		otherID: {ID: otherID, Name: "Otro", Email: "otro@example.test", Role: auth.RoleUser, Active: true},
	}}

	service := post.NewService(store, directory, cache, slog.New(slog.DiscardHandler))
	return service, store, cache
}

func boolPtr(v bool) *bool { return &v }

func lostPostInput() *post.Post {
	return &post.Post{
		Type:      "perdido",
		Species:   "perro",
		Breed:     "  caniche  ",
		WhatsApp:  "+54 9 381 555-0000",
		Image:     "HTTPS://CDN.example/IMG.JPG",
		Place:     "parque 9 de julio",
		EventDate: "2026-08-15",
	}
}

func adoptionPostInput() *post.Post {
	return &post.Post{
		Type:           "adopcion",
		Species:        "gato",
		WhatsApp:       "+54 9 381 555-0001",
		Affinity:       "familias",
		AnimalAffinity: "alta",
		Energy:         "media",
		Neutered:       boolPtr(true),
	}
}

// # Create

func TestCreate(t *testing.T) {
	t.Run("derives the status from the type", func(t *testing.T) {
		cases := []struct {
			postType   string
			wantStatus string
		}{
			{post.TypeLost, post.StatusWanted},
			{post.TypeFound, post.StatusSearchingHome},
			{post.TypeAdoption, post.StatusForAdoption},
		}
		for _, tc := range cases {
			t.Run(tc.postType, func(t *testing.T) {
				service, _, _ := newService(t)

				var input *post.Post
				if tc.postType == post.TypeAdoption {
					input = adoptionPostInput()
				} else {
					input = lostPostInput()
				}
				input.Type = tc.postType
				// An attempted status is ignored outright.
				input.Status = "ENCONTRADO YA"

				created, err := service.Create(context.Background(), ownerID, input)
				require.NoError(t, err)
				assert.Equal(t, tc.wantStatus, created.Status)
				assert.Equal(t, ownerID, created.OwnerID)
				assert.NotEmpty(t, created.ID)
			})
		}
	})

	t.Run("normalizes display text but not the whatsapp handle", func(t *testing.T) {
		service, _, _ := newService(t)

		created, err := service.Create(context.Background(), ownerID, lostPostInput())
		require.NoError(t, err)

		assert.Equal(t, "PERDIDO", created.Type)
		assert.Equal(t, "CANICHE", created.Breed)
		assert.Equal(t, "PARQUE 9 DE JULIO", created.Place)
		assert.Equal(t, "+54 9 381 555-0000", created.WhatsApp)
		assert.Equal(t, "https://cdn.example/img.jpg", created.Image)
	})

	t.Run("requires the type-dependent fields", func(t *testing.T) {
		service, _, _ := newService(t)

		t.Run("lost without place and date", func(t *testing.T) {
			input := lostPostInput()
			input.Place = ""
			input.EventDate = ""
			_, err := service.Create(context.Background(), ownerID, input)
			require.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
			assert.Len(t, apperr.As(err).Details, 2)
		})

		t.Run("adoption without the affinity block", func(t *testing.T) {
			input := adoptionPostInput()
			input.Affinity = ""
			input.Neutered = nil
			_, err := service.Create(context.Background(), ownerID, input)
			require.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
			assert.Len(t, apperr.As(err).Details, 2)
		})

		t.Run("unknown type", func(t *testing.T) {
			input := lostPostInput()
			input.Type = "REGALO"
			_, err := service.Create(context.Background(), ownerID, input)
			assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
		})
	})

	t.Run("invalidates the feed cache", func(t *testing.T) {
		service, _, cache := newService(t)

		_, err := service.Create(context.Background(), ownerID, lostPostInput())
		require.NoError(t, err)
		assert.Equal(t, 1, cache.invalidated)
	})
}

// # Update

func TestUpdate(t *testing.T) {
	strPtr := func(v string) *string { return &v }

	create := func(t *testing.T, service *post.Service, input *post.Post) *post.Post {
		t.Helper()
		created, err := service.Create(context.Background(), ownerID, input)
		require.NoError(t, err)
		return created
	}

	t.Run("strips fields that do not belong to the type", func(t *testing.T) {
		service, _, _ := newService(t)

		t.Run("adoption post rejects place and date", func(t *testing.T) {
			created := create(t, service, adoptionPostInput())

			updated, err := service.Update(context.Background(), ownerID, created.ID, post.UpdateInput{
				Place:     strPtr("plaza urquiza"),
				EventDate: strPtr("2026-01-01"),
				Energy:    strPtr("alta"),
			})
			require.NoError(t, err)
			assert.Empty(t, updated.Place)
			assert.Empty(t, updated.EventDate)
			assert.Equal(t, "ALTA", updated.Energy)
		})

		t.Run("lost post rejects the adoption block", func(t *testing.T) {
			created := create(t, service, lostPostInput())

			updated, err := service.Update(context.Background(), ownerID, created.ID, post.UpdateInput{
				Affinity: strPtr("familias"),
				Neutered: boolPtr(true),
				Place:    strPtr("plaza urquiza"),
			})
			require.NoError(t, err)
			assert.Empty(t, updated.Affinity)
			assert.Nil(t, updated.Neutered)
			assert.Equal(t, "PLAZA URQUIZA", updated.Place)
		})
	})

	t.Run("only the owner or an admin may update", func(t *testing.T) {
		service, _, _ := newService(t)
		created := create(t, service, lostPostInput())

		_, err := service.Update(context.Background(), otherID, created.ID, post.UpdateInput{Breed: strPtr("mestizo")})
		assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

		updated, err := service.Update(context.Background(), adminID, created.ID, post.UpdateInput{Breed: strPtr("mestizo")})
		require.NoError(t, err)
		assert.Equal(t, "MESTIZO", updated.Breed)
	})
}

// # Status and Delete

func TestStatusLifecycle(t *testing.T) {
	service, _, cache := newService(t)

	created, err := service.Create(context.Background(), ownerID, lostPostInput())
	require.NoError(t, err)

	t.Run("status updates are normalized", func(t *testing.T) {
		updated, err := service.UpdateStatus(context.Background(), ownerID, created.ID, "  encontrado ")
		require.NoError(t, err)
		assert.Equal(t, "ENCONTRADO", updated.Status)
	})

	t.Run("delete retires the post from public surfaces", func(t *testing.T) {
		require.NoError(t, service.Delete(context.Background(), ownerID, created.ID))

		_, err := service.Get(context.Background(), created.ID)
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

		// The owner's dashboard still sees it.
		mine, err := service.ListByOwner(context.Background(), ownerID, ownerID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, post.StatusInactive, mine[0].Status)
	})

	t.Run("every mutation invalidated the cache", func(t *testing.T) {
		assert.Equal(t, 3, cache.invalidated)
	})
}

// # Listings

func TestListPublic(t *testing.T) {
	service, _, cache := newService(t)

	_, err := service.Create(context.Background(), ownerID, lostPostInput())
	require.NoError(t, err)
	_, err = service.Create(context.Background(), ownerID, adoptionPostInput())
	require.NoError(t, err)

	page := pagination.Params{Page: 1, Limit: pagination.DefaultLimit}

	t.Run("serves and fills the cache for unsearched pages", func(t *testing.T) {
		posts, meta, err := service.ListPublic(context.Background(), post.Filter{}, page)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
		assert.Equal(t, 2, meta.Total)
		assert.Len(t, cache.entries, 1)

		// Second read is served from the cache.
		again, _, err := service.ListPublic(context.Background(), post.Filter{}, page)
		require.NoError(t, err)
		assert.Equal(t, posts, again)
	})

	t.Run("filters by type", func(t *testing.T) {
		posts, _, err := service.ListPublic(context.Background(), post.Filter{Type: "adopcion"}, page)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, post.TypeAdoption, posts[0].Type)
	})

	t.Run("searched pages bypass the cache", func(t *testing.T) {
		before := len(cache.entries)
		_, _, err := service.ListPublic(context.Background(), post.Filter{Search: "caniche"}, page)
		require.NoError(t, err)
		assert.Len(t, cache.entries, before)
	})
}

func TestListByOwnerPermissions(t *testing.T) {
	service, _, _ := newService(t)

	_, err := service.ListByOwner(context.Background(), otherID, ownerID)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	_, err = service.ListByOwner(context.Background(), adminID, ownerID)
	assert.NoError(t, err)
}

// # Contact

func TestGetContact(t *testing.T) {
	service, _, _ := newService(t)

	created, err := service.Create(context.Background(), ownerID, lostPostInput())
	require.NoError(t, err)

	contact, err := service.GetContact(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", contact.Name)
	assert.Equal(t, "ana@example.test", contact.Email)
	assert.Equal(t, "+54 9 381 555-0000", contact.WhatsApp)

	require.NoError(t, service.Delete(context.Background(), ownerID, created.ID))
	_, err = service.GetContact(context.Background(), created.ID)
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}
