package app

// HeldLocks reports how many session locks are currently tracked.
func (s *TarotService) HeldLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
