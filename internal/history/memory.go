package history

// MemoryStore keeps the history in memory. Useful for tests and for
// ephemeral runs where recovery across restarts is not needed.
type MemoryStore struct {
	Options
	Records []Record
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{Options: opts}
}

func (s *MemoryStore) Exists() bool { return len(s.Records) > 0 }

func (s *MemoryStore) Append(r Record) error {
	s.Records = append(s.Records, r)
	return nil
}

func (s *MemoryStore) Recover(fn func(r Record) error) error {
	for _, r := range s.Records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
