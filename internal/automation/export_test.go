package automation

import "context"

// SetNodeCheck replaces the DOM query behind WaitAny.
func SetNodeCheck(s *ChromeSession, check func(ctx context.Context, selector string) (bool, error)) {
	s.hasNode = check
}
