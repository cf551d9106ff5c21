// Package archive 把已结束的对局写入 SQLite，仅用于事后查询，不参与对局恢复。
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bunker-be/internal/service/game"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const DEFAULT_LIST_LIMIT = 20

var ErrNotConfigured = errors.New("archive is not configured")

type FinishedGame struct {
	ID          int64     `json:"id"`
	RoomID      string    `json:"roomId"`
	Disaster    string    `json:"disaster"`
	Capacity    int       `json:"capacity"`
	Rounds      int       `json:"rounds"`
	PlayerCount int       `json:"playerCount"`
	Survivors   []string  `json:"survivors"`
	Exiled      []string  `json:"exiled"`
	Ending      string    `json:"ending"`
	FinishedAt  time.Time `json:"finishedAt"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// ArchiveGame 记录一局游戏的最终快照
func (s *Store) ArchiveGame(ctx context.Context, final game.GameState) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}

	if final.Phase != game.PHASE_GAME_OVER {
		return fmt.Errorf("archive game %s: phase is %s", final.RoomID, final.Phase)
	}

	survivors := make([]string, 0, len(final.Survivors))
	for _, p := range final.Survivors {
		survivors = append(survivors, p.Name)
	}

	exiled := make([]string, 0, len(final.Players))
	for _, p := range final.Players {
		if p.IsExiled {
			exiled = append(exiled, p.Name)
		}
	}

	survivorsJSON, err := json.Marshal(survivors)
	if err != nil {
		return fmt.Errorf("encode survivors: %w", err)
	}

	exiledJSON, err := json.Marshal(exiled)
	if err != nil {
		return fmt.Errorf("encode exiled: %w", err)
	}

	var disaster string
	var capacity int
	if final.Bunker != nil {
		disaster = final.Bunker.Disaster
		capacity = final.Bunker.Capacity
	}

	var ending string
	if final.EndingStory != nil {
		ending = *final.EndingStory
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO finished_games (
		   room_id, disaster, capacity, rounds, player_count, survivors, exiled, ending, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		final.RoomID,
		disaster,
		capacity,
		final.Round,
		len(final.Players),
		string(survivorsJSON),
		string(exiledJSON),
		ending,
		s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert finished game: %w", err)
	}

	return nil
}

// List 按结束时间倒序返回最近的对局
func (s *Store) List(ctx context.Context, limit int) ([]FinishedGame, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}

	if limit <= 0 || limit > 100 {
		limit = DEFAULT_LIST_LIMIT
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, room_id, disaster, capacity, rounds, player_count, survivors, exiled, ending, finished_at
		   FROM finished_games
		  ORDER BY finished_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query finished games: %w", err)
	}
	defer rows.Close()

	games := make([]FinishedGame, 0, limit)

	for rows.Next() {
		var (
			g             FinishedGame
			survivorsJSON string
			exiledJSON    string
			finishedAt    int64
		)

		if err := rows.Scan(
			&g.ID,
			&g.RoomID,
			&g.Disaster,
			&g.Capacity,
			&g.Rounds,
			&g.PlayerCount,
			&survivorsJSON,
			&exiledJSON,
			&g.Ending,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan finished game: %w", err)
		}

		if err := json.Unmarshal([]byte(survivorsJSON), &g.Survivors); err != nil {
			return nil, fmt.Errorf("decode survivors: %w", err)
		}

		if err := json.Unmarshal([]byte(exiledJSON), &g.Exiled); err != nil {
			return nil, fmt.Errorf("decode exiled: %w", err)
		}

		g.FinishedAt = time.UnixMilli(finishedAt).UTC()
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate finished games: %w", err)
	}

	return games, nil
}
