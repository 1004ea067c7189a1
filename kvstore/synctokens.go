// ABOUTME: Incremental sync tokens for external providers, keyed by service name
// ABOUTME: A missing token means the next sync starts from a time window
package kvstore

const syncPrefix = "sync:token:"

type SyncTokens struct {
	store *Store
}

func NewSyncTokens(store *Store) *SyncTokens {
	return &SyncTokens{store: store}
}

// Token returns "" when the service has never completed a sync.
func (s *SyncTokens) Token(service string) (string, error) {
	raw, err := s.store.Get(syncPrefix + service)
	if err == ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *SyncTokens) SetToken(service, token string) error {
	return s.store.Set(syncPrefix+service, []byte(token))
}

func (s *SyncTokens) Reset(service string) error {
	return s.store.Delete(syncPrefix + service)
}
