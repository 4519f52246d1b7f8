package leaderboard

import "errors"

// ErrInvalidScore marks a submitted score that can never be stored.
var ErrInvalidScore = errors.New("invalid score")
