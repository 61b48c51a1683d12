package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type fileEntry struct {
	Platform           string `json:"platform"`
	NativeID           string `json:"native_id"`
	Title              string `json:"title"`
	PlaytimeMinutes    int    `json:"playtime_minutes"`
	AchievementsEarned int    `json:"achievements_earned"`
	AchievementsTotal  int    `json:"achievements_total"`
	LastPlayedAt       string `json:"last_played_at"`
}

// LoadEntries reads a JSON array of library entries from a platform export
// file. last_played_at is RFC 3339 when present; a malformed timestamp fails
// the load rather than silently dropping progress data.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries file: %w", err)
	}

	var raw []fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse entries file %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, fe := range raw {
		entry := Entry{
			Platform:           fe.Platform,
			NativeID:           fe.NativeID,
			Title:              fe.Title,
			PlaytimeMinutes:    fe.PlaytimeMinutes,
			AchievementsEarned: fe.AchievementsEarned,
			AchievementsTotal:  fe.AchievementsTotal,
		}
		if fe.LastPlayedAt != "" {
			played, err := time.Parse(time.RFC3339, fe.LastPlayedAt)
			if err != nil {
				return nil, fmt.Errorf("entry %d: parse last_played_at %q: %w", i, fe.LastPlayedAt, err)
			}
			played = played.UTC()
			entry.LastPlayedAt = &played
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
