package integration

import (
	"context"
	"crypto/ecdsa"
	"io/fs"
	"os"
	"strings"
	"testing"

	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
	"pyramid_empire/internal/migrations"
	"pyramid_empire/internal/repository"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// openDB connects to DATABASE_URL and applies the embedded schema. Tests
// are skipped when no database is configured.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(db.Close)

	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	for _, name := range files {
		b, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		_, err = db.Exec(context.Background(), string(b))
		require.NoError(t, err, "apply migration %s", name)
	}
	return db
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

// newUser registers a fresh wallet user with starting progress.
func newUser(t *testing.T, users *repository.UserRepository) *domain.User {
	t.Helper()
	_, wallet := newKey(t)
	u := &domain.User{WalletAddress: wallet}
	p := &domain.GameProgress{Level: 1, Energy: game.MaxEnergy, BoostMultiplier: 1, QuestBonusMultiplier: 1}
	require.NoError(t, users.Register(context.Background(), u, p))
	return u
}
