package chat

import "sort"

// ReactionStore keeps, per message and reaction kind, the set of user ids
// holding that reaction. Entries referencing evicted messages are left in
// place and simply become unreachable (the dispatcher's lookup fails
// first).
type ReactionStore struct {
	byMessage map[string]map[string]map[string]struct{} // message -> kind -> user ids
}

// NewReactionStore creates an empty store.
func NewReactionStore() *ReactionStore {
	return &ReactionStore{
		byMessage: make(map[string]map[string]map[string]struct{}),
	}
}

// Add records a reaction. Adding the same (message, kind, user) triple
// twice is a no-op; the return value reports whether membership changed.
func (s *ReactionStore) Add(messageID, kind, userID string) bool {
	kinds := s.byMessage[messageID]
	if kinds == nil {
		kinds = make(map[string]map[string]struct{})
		s.byMessage[messageID] = kinds
	}
	users := kinds[kind]
	if users == nil {
		users = make(map[string]struct{})
		kinds[kind] = users
	}
	if _, ok := users[userID]; ok {
		return false
	}
	users[userID] = struct{}{}
	return true
}

// Reactions returns, for one message, each reaction kind mapped to the
// sorted user ids holding it.
func (s *ReactionStore) Reactions(messageID string) map[string][]string {
	out := make(map[string][]string)
	for kind, users := range s.byMessage[messageID] {
		ids := make([]string, 0, len(users))
		for id := range users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[kind] = ids
	}
	return out
}
