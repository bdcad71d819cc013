package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"icu-monitor/internal/client"
	"icu-monitor/internal/models"
)

const goodToken = "tok-123"

// authServer 只实现 /auth 的假服务端，requests 统计请求数
func authServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	write := func(w http.ResponseWriter, status, code int, msg string, result any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "type": "success", "message": msg, "result": result})
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		authorized := r.Header.Get("Authorization") == "Bearer "+goodToken
		switch r.URL.Path {
		case "/auth/login":
			if r.FormValue("username") != "nurse@general.org" || r.FormValue("password") != "Pass123" {
				write(w, http.StatusUnauthorized, -1, "Incorrect email or password", nil)
				return
			}
			write(w, http.StatusOK, 2000, "", models.TokenResponse{AccessToken: goodToken, TokenType: "bearer"})
		case "/auth/me":
			if !authorized {
				write(w, http.StatusUnauthorized, 60401, "Token expired", nil)
				return
			}
			write(w, http.StatusOK, 2000, "", User{ID: "u1", Email: "nurse@general.org", Role: "nurse", IsActive: true})
		case "/auth/logout":
			write(w, http.StatusOK, 2000, "", map[string]string{"message": "Logged out"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_LoginLogout(t *testing.T) {
	var n atomic.Int32
	srv := authServer(t, &n)
	store := NewMemoryTokenStore()
	p := NewProvider(client.New(srv.URL, zap.NewNop()), store, false, zap.NewNop())
	ctx := context.Background()

	assert.Nil(t, p.Current())

	u, err := p.Login(ctx, "nurse@general.org", "Pass123")
	require.NoError(t, err)
	assert.Equal(t, "nurse", u.Role)
	tok, _ := store.Load()
	assert.Equal(t, goodToken, tok)
	assert.Equal(t, "u1", p.Current().ID)

	require.NoError(t, p.Logout(ctx))
	assert.Nil(t, p.Current())
	tok, _ = store.Load()
	assert.Empty(t, tok)
}

func TestProvider_LoginFailureKeepsStore(t *testing.T) {
	var n atomic.Int32
	srv := authServer(t, &n)
	store := NewMemoryTokenStore()
	p := NewProvider(client.New(srv.URL, zap.NewNop()), store, false, zap.NewNop())

	_, err := p.Login(context.Background(), "nurse@general.org", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Incorrect email or password", apiErr.Message)
	tok, _ := store.Load()
	assert.Empty(t, tok)
	assert.Nil(t, p.Current())
}

func TestProvider_Restore(t *testing.T) {
	var n atomic.Int32
	srv := authServer(t, &n)
	ctx := context.Background()

	store := NewMemoryTokenStore()
	require.NoError(t, store.Save(goodToken))
	p := NewProvider(client.New(srv.URL, zap.NewNop()), store, false, zap.NewNop())
	u, err := p.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "nurse@general.org", u.Email)

	// 过期 token 被清除
	stale := NewMemoryTokenStore()
	require.NoError(t, stale.Save("expired"))
	p = NewProvider(client.New(srv.URL, zap.NewNop()), stale, false, zap.NewNop())
	u, err = p.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
	tok, _ := stale.Load()
	assert.Empty(t, tok)
}

func TestProvider_BypassSkipsNetwork(t *testing.T) {
	var n atomic.Int32
	srv := authServer(t, &n)
	p := NewProvider(client.New(srv.URL, zap.NewNop()), NewMemoryTokenStore(), true, zap.NewNop())
	ctx := context.Background()

	u := p.Current()
	require.NotNil(t, u)
	assert.Equal(t, "bypass-doctor-123", u.ID)
	assert.Equal(t, "doctor@bypass.com", u.Email)
	assert.Equal(t, "Dr. Bypass", u.DisplayName)
	assert.Equal(t, "doctor", u.Role)
	assert.Equal(t, "bypass-hospital", u.HospitalID)

	_, err := p.Login(ctx, "x", "y")
	require.NoError(t, err)
	_, err = p.Me(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Logout(ctx))
	assert.NotNil(t, p.Current())
	assert.Zero(t, n.Load())
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icuctl", "session.yaml")
	s := NewFileTokenStore(path)

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save("abc"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "access_token: abc")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = NewFileTokenStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestFileTokenStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("access_token: [unterminated"), 0o600))
	_, err := NewFileTokenStore(path).Load()
	assert.Error(t, err)
}

func TestDefaultSessionPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	path, err := DefaultSessionPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/icuctl/session.yaml", path)
}

type staticUser struct{ u *User }

func (s staticUser) Current() *User { return s.u }

func TestRoleProvider_CanAccess(t *testing.T) {
	tests := []struct {
		role                 string
		admin, doctor, nurse bool
	}{
		{"admin", true, true, true},
		{"doctor", false, true, false},
		{"nurse", false, false, true},
		{"janitor", false, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			r := NewRoleProvider(staticUser{&User{Role: tt.role}})
			assert.Equal(t, tt.admin, r.CanAccess("/admin"))
			assert.Equal(t, tt.admin, r.CanAccess("/admin/monitors"))
			assert.Equal(t, tt.doctor, r.CanAccess("/doctor"))
			assert.Equal(t, tt.nurse, r.CanAccess("/nurse"))
			assert.True(t, r.CanAccess("/login"))
			assert.True(t, r.CanAccess("/administrator-guide"))
		})
	}
}

func TestRoleProvider_Role(t *testing.T) {
	assert.Equal(t, "", NewRoleProvider(staticUser{}).Role())
	assert.Nil(t, NewRoleProvider(staticUser{}).RolePtr())

	r := NewRoleProvider(staticUser{&User{Role: "Doctor"}})
	assert.Equal(t, "doctor", r.Role())
	require.NotNil(t, r.RolePtr())
	assert.Equal(t, "doctor", *r.RolePtr())

	unknown := NewRoleProvider(staticUser{&User{Role: "visitor"}})
	require.NotNil(t, unknown.RolePtr())
	assert.Equal(t, "", *unknown.RolePtr())
}
