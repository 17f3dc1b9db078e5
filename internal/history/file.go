package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FileStore keeps the history as an append-only file of JSON lines.
type FileStore struct {
	Options
	path string
}

func NewFileStore(path string, opts Options) *FileStore {
	return &FileStore{Options: opts, path: path}
}

func (s *FileStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

func (s *FileStore) Append(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	// The append is the durability checkpoint for the whole statement.
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync history file: %w", err)
	}
	return nil
}

func (s *FileStore) Recover(fn func(r Record) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(text), &r); err != nil {
			return fmt.Errorf("history file line %d: %w", line, err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read history file: %w", err)
	}
	return nil
}
