// Package leaderboard keeps player accounts and game scores in an embedded
// badger database and ranks players by total score.
package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var (
	// ErrEmailTaken is returned when registering an email that is in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned when registering a username that is in use.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound is returned for unknown user ids.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	userPrefix     = "user/"
	usernamePrefix = "username/"
	emailPrefix    = "email/"
	scorePrefix    = "score/"

	userSeqKey   = "seq/user"
	scoreSeqKey  = "seq/score"
	seqBandwidth = 100

	maxTxnRetries = 5
)

// StoreOptions configures Open.
type StoreOptions struct {
	// Path is the database directory. Empty keeps everything in memory.
	Path       string
	SyncWrites bool
	Logger     *zap.Logger
}

// Store persists users and score records.
type Store struct {
	db       *badger.DB
	userSeq  *badger.Sequence
	scoreSeq *badger.Sequence
	logger   *zap.Logger
}

// userRecord is the stored form of a user.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	Avatar       string    `json:"avatar,omitempty"`
}

// ScoreRecord is one submitted game score.
type ScoreRecord struct {
	GameID    string    `json:"gameId"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

type zapBadgerLogger struct {
	logger *zap.SugaredLogger
}

func (l zapBadgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(strings.TrimSpace(format), args...)
}

func (l zapBadgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(strings.TrimSpace(format), args...)
}

func (l zapBadgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

func (l zapBadgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

// Open opens the store described by opts.
func Open(opts StoreOptions) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var bopts badger.Options
	if opts.Path == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(zapBadgerLogger{logger: logger.With(zap.String("op", "leaderboard.badger")).Sugar()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard store: %w", err)
	}

	userSeq, err := db.GetSequence([]byte(userSeqKey), seqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open user sequence: %w", err)
	}
	scoreSeq, err := db.GetSequence([]byte(scoreSeqKey), seqBandwidth)
	if err != nil {
		_ = userSeq.Release()
		_ = db.Close()
		return nil, fmt.Errorf("open score sequence: %w", err)
	}

	logger.Info("leaderboard store opened",
		zap.String("op", "leaderboard.Open"),
		zap.Bool("in_memory", opts.Path == ""),
		zap.String("path", opts.Path),
	)
	return &Store{db: db, userSeq: userSeq, scoreSeq: scoreSeq, logger: logger}, nil
}

// Close releases the sequences and closes the database.
func (s *Store) Close() error {
	return errors.Join(s.userSeq.Release(), s.scoreSeq.Release(), s.db.Close())
}

func userKey(id string) []byte {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return []byte(userPrefix + id)
	}
	return []byte(fmt.Sprintf("%s%020d", userPrefix, n))
}

func usernameKey(username string) []byte {
	return []byte(usernamePrefix + username)
}

func emailKey(email string) []byte {
	return []byte(emailPrefix + normalizeEmail(email))
}

func scoreKey(userID string, seq uint64) []byte {
	return append(scoreUserPrefix(userID), []byte(fmt.Sprintf("%020d", seq))...)
}

func scoreUserPrefix(userID string) []byte {
	return []byte(scorePrefix + userID + "/")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *Store) update(op string, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("transaction conflict, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
		)
	}
	return err
}

// createUser stores rec under a fresh id, enforcing unique email and username.
func (s *Store) createUser(rec userRecord) (userRecord, error) {
	next, err := s.userSeq.Next()
	if err != nil {
		return userRecord{}, fmt.Errorf("allocate user id: %w", err)
	}
	rec.ID = strconv.FormatUint(next+1, 10)

	data, err := json.Marshal(rec)
	if err != nil {
		return userRecord{}, fmt.Errorf("encode user: %w", err)
	}

	err = s.update("leaderboard.createUser", func(txn *badger.Txn) error {
		if exists, err := keyExists(txn, emailKey(rec.Email)); err != nil {
			return err
		} else if exists {
			return ErrEmailTaken
		}
		if exists, err := keyExists(txn, usernameKey(rec.Username)); err != nil {
			return err
		} else if exists {
			return ErrUsernameTaken
		}
		if err := txn.Set(userKey(rec.ID), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey(rec.Email), []byte(rec.ID)); err != nil {
			return err
		}
		return txn.Set(usernameKey(rec.Username), []byte(rec.ID))
	})
	if err != nil {
		return userRecord{}, err
	}
	return rec, nil
}

func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func getUser(txn *badger.Txn, id string) (userRecord, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return userRecord{}, ErrUserNotFound
	}
	if err != nil {
		return userRecord{}, err
	}
	var rec userRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

// userByEmail looks up a user through the email index.
func (s *Store) userByEmail(email string) (userRecord, error) {
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = getUser(txn, string(id))
		return err
	})
	return rec, err
}

// userByID returns a user and all of their scores.
func (s *Store) userByID(id string) (userRecord, []ScoreRecord, error) {
	var (
		rec    userRecord
		scores []ScoreRecord
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if rec, err = getUser(txn, id); err != nil {
			return err
		}
		scores, err = userScores(txn, id)
		return err
	})
	return rec, scores, err
}

// addScore appends a score for an existing user and returns all of the
// user's scores, including the new one.
func (s *Store) addScore(userID string, score ScoreRecord) (userRecord, []ScoreRecord, error) {
	seq, err := s.scoreSeq.Next()
	if err != nil {
		return userRecord{}, nil, fmt.Errorf("allocate score id: %w", err)
	}
	data, err := json.Marshal(score)
	if err != nil {
		return userRecord{}, nil, fmt.Errorf("encode score: %w", err)
	}

	var (
		rec    userRecord
		scores []ScoreRecord
	)
	err = s.update("leaderboard.addScore", func(txn *badger.Txn) error {
		var err error
		if rec, err = getUser(txn, userID); err != nil {
			return err
		}
		if err := txn.Set(scoreKey(userID, seq), data); err != nil {
			return err
		}
		scores, err = userScores(txn, userID)
		return err
	})
	if err != nil {
		return userRecord{}, nil, err
	}
	return rec, scores, nil
}

func userScores(txn *badger.Txn, userID string) ([]ScoreRecord, error) {
	prefix := scoreUserPrefix(userID)
	it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
	defer it.Close()

	var scores []ScoreRecord
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var score ScoreRecord
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &score)
		}); err != nil {
			return nil, fmt.Errorf("decode score %s: %w", it.Item().Key(), err)
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// eachUser calls fn for every user in id order with that user's scores.
func (s *Store) eachUser(fn func(rec userRecord, scores []ScoreRecord)) error {
	return s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec userRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode user %s: %w", it.Item().Key(), err)
			}
			scores, err := userScores(txn, rec.ID)
			if err != nil {
				return err
			}
			fn(rec, scores)
		}
		return nil
	})
}
