package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickyzatnika/new-spinner/store"
)

func TestRegister_IssuesCode(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		f := newFixture(t, s, DrawModeServer)
		u, err := f.users.Register(context.Background(), RegisterInput{
			Name: "  <i>Budi</i> Santoso ", Email: " Budi@Example.com", Phone: "0812 3456 7890",
		})
		require.NoError(t, err)

		assert.Regexp(t, `^[0-9]{3}[A-Z]$`, u.Code)
		assert.Equal(t, "Budi Santoso", u.Name)
		assert.Equal(t, "budi@example.com", u.Email)
		assert.Equal(t, "081234567890", u.Phone)
		assert.False(t, u.HasSpun)
		assert.Contains(t, f.events.types(), EventUserRegistered)
	})
}

func TestRegister_CodesAreUnique(t *testing.T) {
	f := newFixture(t, store.NewMemory(), DrawModeServer)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		u, err := f.users.Register(context.Background(), RegisterInput{
			Name: "User", Email: "u" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + "@example.com", Phone: "081234567890",
		})
		require.NoError(t, err)
		require.False(t, seen[u.Code], "duplicate code %s", u.Code)
		seen[u.Code] = true
	}
}

func TestRegister_RetriesTakenCode(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	codes := []string{"123A", "123A", "456B"}
	i := 0
	users := NewUserService(s, UserOptions{Codes: CodeGenerator{MaxAttempts: 3, Random: func() (string, error) {
		c := codes[i]
		i++
		return c, nil
	}}})

	first, err := users.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Phone: "081234567890"})
	require.NoError(t, err)
	assert.Equal(t, "123A", first.Code)

	second, err := users.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Phone: "081234567890"})
	require.NoError(t, err)
	assert.Equal(t, "456B", second.Code)
}

func TestRegister_CodeSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	users := NewUserService(store.NewMemory(), UserOptions{Codes: CodeGenerator{MaxAttempts: 2, Random: func() (string, error) {
		return "777Z", nil
	}}})
	_, err := users.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Phone: "081234567890"})
	require.NoError(t, err)

	_, err = users.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Phone: "081234567890"})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	users := NewUserService(s, UserOptions{OnePerIP: true})

	_, err := users.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Phone: "081234567890", IP: "[::1]:5000"})
	require.NoError(t, err)

	_, err = users.Register(ctx, RegisterInput{Name: "B", Email: "A@example.com", Phone: "081234567890"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = users.Register(ctx, RegisterInput{Name: "C", Email: "c@example.com", Phone: "081234567890", IP: "127.0.0.1"})
	assert.ErrorIs(t, err, ErrIPAlreadyRegistered)

	_, err = users.Register(ctx, RegisterInput{Name: "", Email: "d@example.com", Phone: "081234567890"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = users.Register(ctx, RegisterInput{Name: "E", Email: "not-an-email", Phone: "081234567890"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = users.Register(ctx, RegisterInput{Name: "F", Email: "f@example.com", Phone: "abc"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)
}

func TestLookupByCode_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemory(), DrawModeServer)
	u := f.register(t, "Sari", "sari@example.com")

	found, err := f.users.LookupByCode(ctx, " "+strings.ToLower(u.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = f.users.LookupByCode(ctx, "000A0")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.users.LookupByCode(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkDeleteUsers(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		f := newFixture(t, s, DrawModeServer)
		f.prize(t, "A", 10, true)
		a := f.register(t, "A", "a@example.com")
		b := f.register(t, "B", "b@example.com")
		_, err := f.spins.Resolve(ctx, SpinRequest{UserID: a.ID})
		require.NoError(t, err)

		n, err := f.users.BulkDelete(ctx, []string{a.ID, a.ID, " "})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, 0, f.recordCount(t, a.ID))

		users, total, err := f.users.List(ctx, store.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, b.ID, users[0].ID)

		_, err = f.users.BulkDelete(ctx, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestNormalizeIP(t *testing.T) {
	assert.Equal(t, "127.0.0.1", NormalizeIP("::1"))
	assert.Equal(t, "127.0.0.1", NormalizeIP("[::1]:8080"))
	assert.Equal(t, "127.0.0.1", NormalizeIP("::ffff:127.0.0.1"))
	assert.Equal(t, "203.0.113.9", NormalizeIP("203.0.113.9:443"))
	assert.Equal(t, "203.0.113.9", NormalizeIP("::ffff:203.0.113.9"))
	assert.Equal(t, "", NormalizeIP(" "))
}
