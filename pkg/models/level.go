package models

import "strings"

// Level is an Eiken proficiency tier used to tag vocabulary
type Level string

const (
	Level5    Level = "5級"
	Level4    Level = "4級"
	Level3    Level = "3級"
	LevelPre2 Level = "準2級"
	Level2    Level = "2級"
	LevelPre1 Level = "準1級"
	Level1    Level = "1級"

	// LevelAll disables level filtering
	LevelAll Level = "全レベル"
)

// Levels lists the tiers from easiest to hardest
var Levels = []Level{Level5, Level4, Level3, LevelPre2, Level2, LevelPre1, Level1}

var levelAliases = map[string]Level{
	"5kyu":    Level5,
	"4kyu":    Level4,
	"3kyu":    Level3,
	"jun2kyu": LevelPre2,
	"pre2":    LevelPre2,
	"2kyu":    Level2,
	"jun1kyu": LevelPre1,
	"pre1":    LevelPre1,
	"1kyu":    Level1,
	"all":     LevelAll,
}

// ParseLevel maps a stored level, an ASCII alias or a profile target such as
// "英検準2級" to a Level. Unknown input falls back to 5級.
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	if s == "" {
		return Level5
	}
	if l, ok := levelAliases[strings.ToLower(s)]; ok {
		return l
	}
	if Level(s) == LevelAll {
		return LevelAll
	}
	s = strings.TrimPrefix(s, "英検")
	s = strings.ReplaceAll(s, "准", "準")
	// Longest names first so "準2級" is not read as "2級".
	for _, l := range []Level{LevelPre2, LevelPre1, Level5, Level4, Level3, Level2, Level1} {
		if strings.Contains(s, string(l)) {
			return l
		}
	}
	for _, l := range []Level{LevelPre2, LevelPre1} {
		if strings.Contains(s, strings.TrimSuffix(string(l), "級")) {
			return l
		}
	}
	for _, l := range []Level{Level5, Level4, Level3, Level2, Level1} {
		if strings.Contains(s, strings.TrimSuffix(string(l), "級")) {
			return l
		}
	}
	return Level5
}

// IsAll reports whether the level is the "no filter" value
func (l Level) IsAll() bool {
	return l == LevelAll || l == ""
}

// Matches reports whether an item tagged with other passes the filter l
func (l Level) Matches(other Level) bool {
	return l.IsAll() || l == other
}

// Rank returns the position of the level in Levels, or -1
func (l Level) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}
