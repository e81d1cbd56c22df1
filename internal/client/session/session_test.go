package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/models"
)

type fakeAuthAPI struct {
	mu sync.Mutex

	loginResult *api.LoginResult
	loginErr    error
	logoutErr   error
	profile     *models.User
	profileErr  error
	updated     *models.User
	updateErr   error

	profileCalls int
	logoutCalls  int
}

func (f *fakeAuthAPI) Login(_ context.Context, _, _ string) (*api.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthAPI) Logout(context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeAuthAPI) GetProfile(context.Context) (*models.User, error) {
	f.mu.Lock()
	f.profileCalls++
	f.mu.Unlock()
	return f.profile, f.profileErr
}

func (f *fakeAuthAPI) UpdateProfile(context.Context, models.ProfileUpdate) (*models.User, error) {
	return f.updated, f.updateErr
}

type probe bool

func (p probe) HasSession() bool { return bool(p) }

func TestNewManager_StartsUninitialized(t *testing.T) {
	m := NewManager(&fakeAuthAPI{}, probe(false))
	s := m.State()
	assert.Equal(t, StatusUninitialized, s.Status)
	assert.True(t, s.Loading)
	assert.False(t, s.IsAuthenticated)
}

func TestInit(t *testing.T) {
	admin := &models.User{ID: "1", Role: models.RoleAdmin}

	tests := []struct {
		name      string
		api       *fakeAuthAPI
		probe     CredentialProbe
		want      Status
		wantCalls int
	}{
		{"no credential skips probe", &fakeAuthAPI{profile: admin}, probe(false), StatusAnonymous, 0},
		{"profile resolves", &fakeAuthAPI{profile: admin}, probe(true), StatusAuthenticated, 1},
		{"nil probe always asks", &fakeAuthAPI{profile: admin}, nil, StatusAuthenticated, 1},
		{"profile failure is anonymous", &fakeAuthAPI{profileErr: api.NewError(500, "down", nil)}, probe(true), StatusAnonymous, 1},
		{"empty profile is anonymous", &fakeAuthAPI{}, probe(true), StatusAnonymous, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.api, tt.probe)
			s := m.Init(context.Background())
			assert.Equal(t, tt.want, s.Status)
			assert.False(t, s.Loading)
			assert.Equal(t, tt.want == StatusAuthenticated, s.IsAuthenticated)
			assert.Empty(t, s.Error)

			m.Init(context.Background())
			assert.Equal(t, tt.wantCalls, tt.api.profileCalls, "probe runs once")
		})
	}
}

func TestInit_DoesNotOverrideEarlierTransition(t *testing.T) {
	fake := &fakeAuthAPI{
		loginResult: &api.LoginResult{User: &models.User{ID: "2", Role: models.RoleCustomer}},
		profileErr:  errors.New("no session"),
	}
	m := NewManager(fake, probe(true))

	require.NoError(t, m.Login(context.Background(), "c@x.com", "password1"))
	s := m.Init(context.Background())
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "2", s.User.ID)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeAuthAPI{loginResult: &api.LoginResult{User: &models.User{ID: "1", Role: models.RoleAdmin}, SessionID: "s1"}}
		m := NewManager(fake, probe(false))
		m.Init(context.Background())

		require.NoError(t, m.Login(context.Background(), "admin@x.com", "secret"))
		s := m.State()
		assert.Equal(t, StatusAuthenticated, s.Status)
		assert.True(t, s.IsAuthenticated)
		assert.False(t, s.Loading)
		assert.Equal(t, "s1", s.SessionID)
	})

	t.Run("backend error", func(t *testing.T) {
		fake := &fakeAuthAPI{loginErr: api.NewError(401, "Invalid credentials", nil)}
		m := NewManager(fake, probe(false))

		err := m.Login(context.Background(), "admin@x.com", "wrong")
		require.Error(t, err)
		s := m.State()
		assert.Equal(t, StatusFailed, s.Status)
		assert.False(t, s.IsAuthenticated)
		assert.False(t, s.Loading)
		assert.Equal(t, "Invalid credentials", s.Error)
	})

	t.Run("missing user", func(t *testing.T) {
		fake := &fakeAuthAPI{loginResult: &api.LoginResult{SessionID: "s1"}}
		m := NewManager(fake, probe(false))

		err := m.Login(context.Background(), "admin@x.com", "secret")
		require.ErrorIs(t, err, ErrNoUser)
		assert.Equal(t, StatusFailed, m.State().Status)
		assert.Nil(t, m.User())
	})

	t.Run("retry after failure", func(t *testing.T) {
		fake := &fakeAuthAPI{loginErr: errors.New("bad")}
		m := NewManager(fake, probe(false))
		require.Error(t, m.Login(context.Background(), "a@x.com", "x"))

		fake.loginErr = nil
		fake.loginResult = &api.LoginResult{User: &models.User{ID: "1"}}
		require.NoError(t, m.Login(context.Background(), "a@x.com", "y"))
		assert.Empty(t, m.State().Error)
	})
}

func TestLogout_SwallowsBackendFailure(t *testing.T) {
	fake := &fakeAuthAPI{
		loginResult: &api.LoginResult{User: &models.User{ID: "1"}},
		logoutErr:   api.NewError(0, api.NetworkErrorMessage, nil),
	}
	m := NewManager(fake, probe(false))
	require.NoError(t, m.Login(context.Background(), "a@x.com", "secret"))

	m.Logout(context.Background())
	s := m.State()
	assert.Equal(t, StatusAnonymous, s.Status)
	assert.Nil(t, s.User)
	assert.Equal(t, 1, fake.logoutCalls)
}

func TestUpdateProfile(t *testing.T) {
	fake := &fakeAuthAPI{
		loginResult: &api.LoginResult{User: &models.User{ID: "1", Name: "A", Role: models.RoleAdmin}},
		updated:     &models.User{ID: "1", Name: "B", Role: models.RoleAdmin},
	}
	m := NewManager(fake, probe(false))

	_, err := m.UpdateProfile(context.Background(), models.ProfileUpdate{Name: "B"})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, m.Login(context.Background(), "a@x.com", "secret"))
	u, err := m.UpdateProfile(context.Background(), models.ProfileUpdate{Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, "B", u.Name)
	assert.Equal(t, "B", m.User().Name)
	assert.True(t, m.State().IsAuthenticated)

	fake.updateErr = api.NewError(400, "Invalid email format", nil)
	_, err = m.UpdateProfile(context.Background(), models.ProfileUpdate{Email: "x"})
	require.Error(t, err)
	assert.Equal(t, "B", m.User().Name)
}

func TestSubscribe(t *testing.T) {
	fake := &fakeAuthAPI{loginResult: &api.LoginResult{User: &models.User{ID: "1"}}}
	m := NewManager(fake, probe(false))

	var seen []Status
	unsubscribe := m.Subscribe(func(s State) { seen = append(seen, s.Status) })

	m.Init(context.Background())
	require.NoError(t, m.Login(context.Background(), "a@x.com", "secret"))
	m.Reset()
	m.Reset()
	unsubscribe()
	m.Logout(context.Background())

	assert.Equal(t, []Status{StatusAnonymous, StatusAnonymous, StatusAuthenticated, StatusAnonymous}, seen)
}

func TestLoginEndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "s1", Path: "/", HttpOnly: true})
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"data":{"user":{"id":"1","name":"A","role":"admin"},"sessionId":"s1"}}`)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Unauthorized"}`)
		}
	}))
	t.Cleanup(ts.Close)

	nav := api.NewRouteTracker("/dashboard")
	client, err := api.New(ts.URL+"/api", api.WithNavigator(nav))
	require.NoError(t, err)

	m := NewManager(client, client)
	client.OnUnauthorized(m.Reset)
	assert.Equal(t, StatusAnonymous, m.Init(context.Background()).Status)

	require.NoError(t, m.Login(context.Background(), "admin@x.com", "secret"))
	s := m.State()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, models.RoleAdmin, Role(s.User))
	assert.True(t, m.HasAnyRole(models.RoleAdmin, models.RoleSuperAdmin))
	assert.True(t, client.HasSession())

	// any 401 afterwards resets the session and sends the user to login
	_, err = client.GetProfile(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusAnonymous, m.State().Status)
	assert.False(t, client.HasSession())
	assert.Equal(t, api.DefaultLoginRoute, nav.Route())
}
