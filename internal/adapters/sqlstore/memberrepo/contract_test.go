package memberrepo

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zamalek-residents/member-registry/internal/adapters/contracttest"
	"github.com/zamalek-residents/member-registry/internal/adapters/postgres/testutil"
	"github.com/zamalek-residents/member-registry/internal/platform/database"
	memberrepoport "github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "registry.db"), database.Options{LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return db
}

func TestContract_SQLiteMemberRepo(t *testing.T) {
	contracttest.RunMemberRepo(t, func(t *testing.T) (memberrepoport.Repository, func()) {
		t.Helper()
		db := openSQLite(t)
		repo, err := Open(context.Background(), db, false)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return repo, func() { _ = database.Close(db) }
	})
}

func TestContract_SeededSQLiteMemberRepo(t *testing.T) {
	contracttest.RunSeededMemberRepo(t, func(t *testing.T) (memberrepoport.Repository, func()) {
		t.Helper()
		db := openSQLite(t)
		repo, err := Open(context.Background(), db, true)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return repo, func() { _ = database.Close(db) }
	})
}

func TestContract_PostgresMemberRepo(t *testing.T) {
	pool := testutil.OpenPool(t)

	contracttest.RunMemberRepo(t, func(t *testing.T) (memberrepoport.Repository, func()) {
		t.Helper()
		testutil.ResetMembers(t, pool)
		db, err := database.OpenPostgres(pool, database.Options{LogLevel: logger.Silent})
		if err != nil {
			t.Fatalf("OpenPostgres: %v", err)
		}
		repo, err := Open(context.Background(), db, false)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return repo, nil
	})
}
