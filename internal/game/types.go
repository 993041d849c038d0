package game

import (
	"strings"
	"time"
)

// Option constants for the two sides of a balance question.
const (
	OptionA = "A"
	OptionB = "B"
)

// DateFormat is the local calendar date layout stored in the shared state.
const DateFormat = "2006-01-02"

// SettingsField is the top-level settings-document field owned by the
// balance game. The whole object is rewritten on every merge-write; no
// other settings field is ever touched.
const SettingsField = "balanceGame"

// Question is a forced-choice balance question, fixed at build time.
type Question struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	OptionA  string `json:"optionA"`
	OptionB  string `json:"optionB"`
}

// Answer is one member's pick for the day's question.
type Answer struct {
	Option  string `json:"option"`
	Comment string `json:"comment"`
}

// DailyGameState is the per-couple-per-day shared state, embedded in the
// couple's settings document under SettingsField. It is jointly owned by
// both members and mutated only by full-object merge-writes.
type DailyGameState struct {
	TodayDate    string            `json:"todayDate"`
	QuestionID   string            `json:"questionId"`
	TodayAnswers map[string]Answer `json:"todayAnswers"`
	CompletedIDs []string          `json:"completedIds"`
}

// Clone deep-copies the state so candidates can be built without mutating
// the stored snapshot.
func (s *DailyGameState) Clone() *DailyGameState {
	if s == nil {
		return nil
	}
	out := &DailyGameState{
		TodayDate:    s.TodayDate,
		QuestionID:   s.QuestionID,
		TodayAnswers: make(map[string]Answer, len(s.TodayAnswers)),
		CompletedIDs: append([]string(nil), s.CompletedIDs...),
	}
	for uid, ans := range s.TodayAnswers {
		out.TodayAnswers[uid] = ans
	}
	return out
}

// Completed reports whether a question id is already in the completed set.
func (s *DailyGameState) Completed(questionID string) bool {
	for _, id := range s.CompletedIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// AnswerFor returns a member's answer for the current question, if any.
func (s *DailyGameState) AnswerFor(userID string) (Answer, bool) {
	if s == nil || s.TodayAnswers == nil {
		return Answer{}, false
	}
	ans, ok := s.TodayAnswers[userID]
	return ans, ok
}

// PartnerAnswer returns the first answer belonging to any member other
// than userID. Designed for two members but tolerant of N.
func (s *DailyGameState) PartnerAnswer(userID string) (string, Answer, bool) {
	if s == nil {
		return "", Answer{}, false
	}
	for uid, ans := range s.TodayAnswers {
		if uid != userID {
			return uid, ans, true
		}
	}
	return "", Answer{}, false
}

// DateOf formats a moment as the local calendar date used for rollover checks.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateFormat)
}

// ValidOption reports whether the given option string is "A" or "B".
func ValidOption(option string) bool {
	return option == OptionA || option == OptionB
}

// TrimComment normalizes a submitted comment.
func TrimComment(comment string) string {
	return strings.TrimSpace(comment)
}
