// Package journal keeps the local, append-only record of what the bot
// published and how it performed. Everything here is best-effort: a journal
// failure is logged by the caller and never blocks publishing.
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	logFileName         = "post_logs.csv"
	topExamplesFileName = "top_examples.txt"
)

// Entry is one published post with its engagement snapshot.
type Entry struct {
	Timestamp time.Time
	PostURI   string
	Text      string
	Likes     int
	Reposts   int
	Replies   int
}

// Reward scores an entry's engagement: likes weigh 1, reposts 2, replies
// 0.5.
func (e Entry) Reward() float64 {
	return float64(e.Likes) + 2*float64(e.Reposts) + 0.5*float64(e.Replies)
}

// Journal appends published posts to a CSV log and accumulates
// high-performing posts in a plain-text examples file.
type Journal struct {
	dir             string
	rewardThreshold float64
}

// New creates a Journal writing under dir. The directory is created on
// first use, not here, so constructing a Journal can never fail.
func New(dir string, rewardThreshold float64) *Journal {
	return &Journal{dir: dir, rewardThreshold: rewardThreshold}
}

// Record appends an entry to the CSV log, writing the header row when the
// file is new, and adds the text to the top-examples file when its reward
// meets the threshold.
func (j *Journal) Record(entry Entry) error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create journal dir: %w", err)
	}

	if err := j.appendCSV(entry); err != nil {
		return err
	}

	if entry.Reward() >= j.rewardThreshold {
		if err := j.appendTopExample(entry.Text); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) appendCSV(entry Entry) error {
	path := filepath.Join(j.dir, logFileName)

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if isNew {
		if err := writer.Write([]string{"Timestamp", "URI", "Text", "Likes", "Reposts", "Replies", "Reward"}); err != nil {
			return fmt.Errorf("failed to write journal header: %w", err)
		}
	}
	record := []string{
		entry.Timestamp.Format(time.RFC3339),
		entry.PostURI,
		entry.Text,
		strconv.Itoa(entry.Likes),
		strconv.Itoa(entry.Reposts),
		strconv.Itoa(entry.Replies),
		strconv.FormatFloat(entry.Reward(), 'f', 1, 64),
	}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write journal entry: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush journal entry: %w", err)
	}
	return nil
}

func (j *Journal) appendTopExample(text string) error {
	path := filepath.Join(j.dir, topExamplesFileName)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open top examples: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(text + "\n"); err != nil {
		return fmt.Errorf("failed to append top example: %w", err)
	}
	return nil
}
