package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/goldenline/auth"
	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/internal/config"
	"github.com/diewo77/goldenline/internal/db"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/models"
	"github.com/diewo77/goldenline/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", SQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared"}
	gdb, err := db.Open(cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	require.NoError(t, db.SeedProfiles(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, username string, access services.Access) *models.User {
	t.Helper()
	u, err := services.NewUserService(gdb).WithCost(bcrypt.MinCost).Register(context.Background(), services.RegisterInput{
		Username: username, Password: "pw", PasswordConfirm: "pw", Access: access,
	})
	require.NoError(t, err)
	return u
}

func TestDBProfileResolver(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()
	r := NewDBProfileResolver(gdb)

	admin := createUser(t, gdb, "admin", services.Access{Admin: true})
	analyst := createUser(t, gdb, "analyst", services.Access{ViewClient: true})
	plain := createUser(t, gdb, "plain", services.Access{})

	p, err := r.Resolve(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.AdminProfileName, p.Name())
	assert.True(t, p.HasPermission("user:delete"))

	p, err = r.Resolve(ctx, analyst.ID)
	require.NoError(t, err)
	assert.True(t, p.HasPermission("client:view"))
	assert.False(t, p.HasPermission("collecte:view"))

	p, err = r.Resolve(ctx, plain.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Permissions())

	p, err = r.Resolve(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDBProfileResolver_SuperuserAndInactive(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()
	r := NewDBProfileResolver(gdb)

	root := createUser(t, gdb, "root", services.Access{})
	require.NoError(t, gdb.Model(&models.User{ID: root.ID}).Update("is_superuser", true).Error)
	p, err := r.Resolve(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, p.HasPermission(gate.PermissionSuperAdmin))

	gone := createUser(t, gdb, "gone", services.Access{ViewClient: true})
	require.NoError(t, gdb.Model(&models.User{ID: gone.ID}).Update("is_active", false).Error)
	p, err = r.Resolve(ctx, gone.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestAuthGate_CanAndInvalidate(t *testing.T) {
	gdb := setupTestDB(t)
	ag := NewAuthGate(gdb, time.Hour)
	u := createUser(t, gdb, "analyst", services.Access{ViewClient: true})
	ctx := auth.WithUserID(context.Background(), u.ID)

	assert.True(t, ag.Can(ctx, gate.ActionView, "client"))
	assert.False(t, ag.Can(ctx, gate.ActionView, "collecte"))
	assert.False(t, ag.IsAdmin(ctx))
	assert.ErrorIs(t, ag.Authorize(context.Background(), gate.ActionView, "client"), gate.ErrUnauthorized)

	// grant through the service; the cached profile is stale until invalidated
	_, err := services.NewUserService(gdb).WithCost(bcrypt.MinCost).Update(context.Background(), "analyst", services.UpdateInput{
		Username: "analyst", Access: services.Access{ViewCollecte: true},
	})
	require.NoError(t, err)
	assert.True(t, ag.CanUser(ctx, u.ID, gate.ActionView, "client"))
	ag.InvalidateUser(u.ID)
	assert.False(t, ag.CanUser(ctx, u.ID, gate.ActionView, "client"))
	assert.True(t, ag.CanUser(ctx, u.ID, gate.ActionView, "collecte"))
}

func TestAuthGate_RequirePermission(t *testing.T) {
	gdb := setupTestDB(t)
	ag := NewAuthGate(gdb, time.Minute)
	allowed := createUser(t, gdb, "allowed", services.Access{ViewCollecte: true})
	denied := createUser(t, gdb, "denied", services.Access{})

	h := ag.RequirePermission("collecte", gate.ActionView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		userID uint
		accept string
		want   int
	}{
		{"anonymous is sent to login", 0, "", http.StatusFound},
		{"anonymous json client", 0, "application/json", http.StatusUnauthorized},
		{"missing permission", denied.ID, "", http.StatusForbidden},
		{"missing permission json", denied.ID, "application/json", http.StatusForbidden},
		{"granted", allowed.ID, "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/export", nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if tt.userID != 0 {
				r = r.WithContext(auth.WithUserID(r.Context(), tt.userID))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusFound {
				assert.Equal(t, "/connection?next=%2Fexport", rec.Header().Get("Location"))
			}
		})
	}
}
