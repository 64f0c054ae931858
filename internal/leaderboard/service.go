package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/calcsuite/internal/auth"
	"github.com/iwvelando/calcsuite/pkg/constants"
	"go.uber.org/zap"
)

var (
	// ErrMissingFields is returned when username, email or password is blank.
	ErrMissingFields = errors.New("all fields are required")

	// ErrInvalidScore is returned for a blank game id or a negative score.
	ErrInvalidScore = errors.New("invalid game ID or score")
)

// User is the public view of an account.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	TotalScore  float64   `json:"totalScore"`
	GamesPlayed int       `json:"gamesPlayed"`
	Avatar      string    `json:"avatar,omitempty"`
}

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank         int     `json:"rank"`
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	TotalScore   float64 `json:"totalScore"`
	GamesPlayed  int     `json:"gamesPlayed"`
	AverageScore float64 `json:"averageScore"`
	Avatar       string  `json:"avatar,omitempty"`
}

// Service implements registration, login, score submission and rankings.
type Service struct {
	store  *Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService returns a Service backed by store.
func NewService(store *Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Register creates an account. The password is stored as a bcrypt hash.
func (s *Service) Register(username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return User{}, ErrMissingFields
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	rec, err := s.store.createUser(userRecord{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return User{}, err
	}

	s.logger.Info("user registered",
		zap.String("op", "leaderboard.Register"),
		zap.String("user_id", rec.ID),
		zap.String("username", rec.Username),
	)
	return toUser(rec, nil), nil
}

// Login checks the credentials and returns the account with current stats.
func (s *Service) Login(email, password string) (User, error) {
	rec, err := s.store.userByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.CheckPassword(rec.PasswordHash, password)
	if err != nil {
		return User{}, err
	}
	if !ok {
		s.logger.Debug("login rejected",
			zap.String("op", "leaderboard.Login"),
			zap.String("user_id", rec.ID),
		)
		return User{}, ErrInvalidCredentials
	}

	_, scores, err := s.store.userByID(rec.ID)
	if err != nil {
		return User{}, err
	}
	return toUser(rec, scores), nil
}

// User returns an account by id.
func (s *Service) User(id string) (User, error) {
	rec, scores, err := s.store.userByID(id)
	if err != nil {
		return User{}, err
	}
	return toUser(rec, scores), nil
}

// RecordScore adds a score for gameID and returns the updated account.
func (s *Service) RecordScore(userID, gameID string, score float64) (User, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" || score < 0 {
		return User{}, ErrInvalidScore
	}

	rec, scores, err := s.store.addScore(userID, ScoreRecord{
		GameID:    gameID,
		Score:     score,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return User{}, err
	}

	user := toUser(rec, scores)
	s.logger.Debug("score recorded",
		zap.String("op", "leaderboard.RecordScore"),
		zap.String("user_id", userID),
		zap.String("game_id", gameID),
		zap.Float64("score", score),
		zap.Float64("total_score", user.TotalScore),
	)
	return user, nil
}

// Global ranks every account by total score over all games. A non-positive
// limit returns the default number of rows.
func (s *Service) Global(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.store.eachUser(func(rec userRecord, scores []ScoreRecord) {
		entries = append(entries, newEntry(rec, scores))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return rank(entries, limit), nil
}

// ForGame ranks the accounts that have played gameID by their total for that
// game.
func (s *Service) ForGame(gameID string, limit int) ([]Entry, error) {
	var entries []Entry
	err := s.store.eachUser(func(rec userRecord, scores []ScoreRecord) {
		var played []ScoreRecord
		for _, score := range scores {
			if score.GameID == gameID {
				played = append(played, score)
			}
		}
		if len(played) > 0 {
			entries = append(entries, newEntry(rec, played))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read game leaderboard: %w", err)
	}
	return rank(entries, limit), nil
}

func totals(scores []ScoreRecord) (float64, int) {
	total := 0.0
	for _, score := range scores {
		total += score.Score
	}
	return total, len(scores)
}

func toUser(rec userRecord, scores []ScoreRecord) User {
	total, played := totals(scores)
	return User{
		ID:          rec.ID,
		Username:    rec.Username,
		Email:       rec.Email,
		CreatedAt:   rec.CreatedAt,
		TotalScore:  total,
		GamesPlayed: played,
		Avatar:      rec.Avatar,
	}
}

func newEntry(rec userRecord, scores []ScoreRecord) Entry {
	total, played := totals(scores)
	entry := Entry{
		ID:          rec.ID,
		Username:    rec.Username,
		TotalScore:  total,
		GamesPlayed: played,
		Avatar:      rec.Avatar,
	}
	if played > 0 {
		entry.AverageScore = total / float64(played)
	}
	return entry
}

// rank sorts by total score, highest first, keeping id order for ties.
func rank(entries []Entry, limit int) []Entry {
	if limit <= 0 {
		limit = constants.DefaultLeaderboardLimit
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries
}
