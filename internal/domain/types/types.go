// Package types contains the JSON wire shapes shared with game clients.
// Field names are fixed by the clients already in the field.
package types

import "github.com/okian/mazeball/internal/domain/model"

// Entry is one visible leaderboard row.
type Entry struct {
	DeviceID   string `json:"deviceId"`
	PlayerName string `json:"playerName"`
	TimeMillis int64  `json:"timeMillis"`
}

// Leaderboards is the body of GET /leaderboard/all and POST /leaderboard/sync.
// encoding/json writes the int keys as strings.
type Leaderboards map[int][]Entry

// SubmitScore is one locally recorded time inside a sync request.
type SubmitScore struct {
	LevelID    int    `json:"levelId"`
	DeviceID   string `json:"deviceId"`
	TimeMillis int64  `json:"timeMillis"`
}

// SyncRequest is the body of POST /leaderboard/sync.
type SyncRequest struct {
	DeviceID string        `json:"deviceId"`
	Scores   []SubmitScore `json:"scores"`
}

// UpdateNicknameRequest is the body of POST /user/nickname.
type UpdateNicknameRequest struct {
	DeviceID    string `json:"deviceId"`
	NewNickname string `json:"newNickname"`
}

// ModelScores converts the submitted scores. The per-score deviceId is
// ignored; the request-level DeviceID identifies the submitter.
func (r SyncRequest) ModelScores() []model.Score {
	out := make([]model.Score, len(r.Scores))
	for i, s := range r.Scores {
		out[i] = model.Score{LevelID: s.LevelID, TimeMillis: s.TimeMillis}
	}
	return out
}

// FromModel converts domain leaderboards to the wire shape.
func FromModel(boards model.Leaderboards) Leaderboards {
	out := make(Leaderboards, len(boards))
	for level, entries := range boards {
		rows := make([]Entry, len(entries))
		for i, e := range entries {
			rows[i] = Entry{DeviceID: e.DeviceID, PlayerName: e.PlayerName, TimeMillis: e.TimeMillis}
		}
		out[level] = rows
	}
	return out
}
