package logging

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const DefaultPath = "./completions.db"

var (
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrCompletionNotFound = errors.New("completion not found")
)

type CompletionLog struct {
	ID          int       `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Playthrough string    `json:"playthrough"`
	Speaker     string    `json:"speaker"`
	History     string    `json:"history"`
	Response    string    `json:"response"`
	Metadata    string    `json:"metadata"`
	Rating      *int      `json:"rating,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

type CompletionMetadata struct {
	Model        string        `json:"model"`
	MaxTokens    int           `json:"max_tokens"`
	Temperature  float64       `json:"temperature"`
	TopP         float64       `json:"top_p"`
	ResponseTime time.Duration `json:"response_time_ms"`
	InputTokens  int64         `json:"input_tokens,omitempty"`
	OutputTokens int64         `json:"output_tokens,omitempty"`
	Error        *string       `json:"error,omitempty"`
}

// DecodeMetadata parses the metadata column of a journal row.
func (c CompletionLog) DecodeMetadata() (CompletionMetadata, error) {
	var md CompletionMetadata
	err := json.Unmarshal([]byte(c.Metadata), &md)
	return md, err
}

// CompletionLogger is the completion journal: one row per chat completion, rated
// afterwards with the rate command.
type CompletionLogger struct {
	db *sql.DB
}

func NewCompletionLogger(path string) (*CompletionLogger, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := &CompletionLogger{db: db}
	if err := logger.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return logger, nil
}

func (cl *CompletionLogger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS completions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		playthrough TEXT NOT NULL,
		speaker TEXT NOT NULL,
		history TEXT NOT NULL,
		response TEXT NOT NULL,
		metadata TEXT NOT NULL,
		rating INTEGER,
		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_completions_timestamp ON completions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_completions_playthrough ON completions(playthrough);
	`

	_, err := cl.db.Exec(schema)
	return err
}

// LogCompletion records one request. history is stored as JSON.
func (cl *CompletionLogger) LogCompletion(
	playthrough string,
	speaker string,
	history interface{},
	response string,
	metadata CompletionMetadata,
) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = cl.db.Exec(`
		INSERT INTO completions (playthrough, speaker, history, response, metadata)
		VALUES (?, ?, ?, ?, ?)
	`, playthrough, speaker, string(historyJSON), response, string(metadataJSON))

	return err
}

func (cl *CompletionLogger) GetRecentCompletions(limit int) ([]CompletionLog, error) {
	rows, err := cl.db.Query(`
		SELECT id, timestamp, playthrough, speaker, history, response, metadata, rating, notes
		FROM completions
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []CompletionLog
	for rows.Next() {
		var c CompletionLog
		err := rows.Scan(&c.ID, &c.Timestamp, &c.Playthrough, &c.Speaker,
			&c.History, &c.Response, &c.Metadata, &c.Rating, &c.Notes)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}

	return completions, rows.Err()
}

func (cl *CompletionLogger) RateCompletion(id int, rating int, notes string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	res, err := cl.db.Exec(`
		UPDATE completions
		SET rating = ?, notes = ?
		WHERE id = ?
	`, rating, notesPtr, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrCompletionNotFound, id)
	}
	return nil
}

func (cl *CompletionLogger) Close() error {
	return cl.db.Close()
}
