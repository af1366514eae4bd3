// Package sessions persists the auth session on the device. The session
// JSON is sealed with AES-GCM under a key derived from a local passphrase;
// the argon2 salt lives next to it in the metadata table.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authboot/internal/client/migrations"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/dmitrijs2005/authboot/internal/cryptox"
	"github.com/dmitrijs2005/authboot/internal/dbx"
	"github.com/dmitrijs2005/authboot/internal/logging"

	_ "modernc.org/sqlite"
)

const (
	keySalt    = "session_salt"
	keySession = "session_sealed"
	keyNonce   = "session_nonce"
)

// OpenDB opens (creating if needed) the local SQLite database at path and
// applies the local migrations.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	return dbx.Open(ctx, "sqlite", path, "sqlite3", migrations.Local, migrations.LocalDir)
}

// SQLiteStore implements client.SessionStore.
type SQLiteStore struct {
	db         *sql.DB
	passphrase []byte
	log        logging.Logger

	mu  sync.Mutex
	key []byte
}

func NewSQLiteStore(db *sql.DB, passphrase []byte, log logging.Logger) *SQLiteStore {
	if log == nil {
		log = logging.Discard()
	}
	return &SQLiteStore{db: db, passphrase: passphrase, log: log.With("module", "sessions")}
}

// sealKey derives the sealing key once per store, creating the salt on
// first use.
func (s *SQLiteStore) sealKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	salt, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) ([]byte, error) {
		repo := metadata.NewSQLiteRepository(tx)
		salt, err := repo.Get(ctx, keySalt)
		if errors.Is(err, common.ErrorNotFound) {
			salt = common.GenerateRandByteArray(cryptox.SaltSize)
			err = repo.Set(ctx, keySalt, salt)
		}
		return salt, err
	})
	if err != nil {
		return nil, fmt.Errorf("session salt: %w", err)
	}

	s.key = cryptox.DeriveKey(s.passphrase, salt)
	return s.key, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session *models.Session) error {
	key, err := s.sealKey(ctx)
	if err != nil {
		return err
	}

	ciphertext, nonce, err := cryptox.SealJSON(session, key)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keySession, ciphertext); err != nil {
			return err
		}
		return repo.Set(ctx, keyNonce, nonce)
	})
}

// Load returns the stored session, or (nil, nil) when there is none. A
// session that cannot be decrypted (passphrase changed, data damaged) is
// discarded.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	ciphertext, err := repo.Get(ctx, keySession)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	nonce, err := repo.Get(ctx, keyNonce)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	key, err := s.sealKey(ctx)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := cryptox.OpenJSON(ciphertext, nonce, key, &session); err != nil {
		s.log.Warn(ctx, "discarding unreadable stored session", "error", err)
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &session, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, keySession, keyNonce)
}
