package family

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/docdb"
)

// DateLayout is the format of date-only fields such as Task.DueDate.
const DateLayout = "2006-01-02"

// CompleteTask marks the task completed and credits its points to the
// user. It returns false when the task does not exist; a missing user
// still completes the task but credits nobody.
func (r *Repo) CompleteTask(taskID, userID string) (bool, error) {
	task, ok, err := r.Tasks.Get(taskID)
	if err != nil || !ok {
		return false, err
	}
	if _, _, err := r.Tasks.Update(taskID, docdb.Fields{"status": StatusCompleted}); err != nil {
		return false, err
	}

	user, ok, err := r.Users.Get(userID)
	if err != nil {
		return false, err
	}
	if ok {
		if _, _, err := r.Users.Update(userID, docdb.Fields{"points": user.Points + task.Points}); err != nil {
			return false, err
		}
	}
	r.log.Info("task completed",
		zap.String("task", taskID), zap.String("user", userID), zap.Int("points", task.Points), zap.Bool("credited", ok))
	return true, nil
}

// ClaimResult is the outcome of ClaimReward. A refused claim is not an
// error: Success is false and Message says why.
type ClaimResult struct {
	Success bool
	Message string
	Claim   *RewardClaim
}

// ClaimReward spends the user's points on a reward and records the claim.
func (r *Repo) ClaimReward(rewardID, userID string) (ClaimResult, error) {
	reward, rok, err := r.Rewards.Get(rewardID)
	if err != nil {
		return ClaimResult{}, err
	}
	user, uok, err := r.Users.Get(userID)
	if err != nil {
		return ClaimResult{}, err
	}
	if !rok || !uok {
		return ClaimResult{Message: "Reward or user not found"}, nil
	}
	if user.Points < reward.PointsCost {
		return ClaimResult{Message: "Not enough points"}, nil
	}

	if _, _, err := r.Users.Update(userID, docdb.Fields{"points": user.Points - reward.PointsCost}); err != nil {
		return ClaimResult{}, err
	}
	claim, err := r.RewardClaims.Create(RewardClaim{
		RewardID:   rewardID,
		RewardName: reward.Name,
		UserID:     userID,
		UserName:   user.Name,
		PointsCost: reward.PointsCost,
		ClaimedAt:  docdb.FormatTime(r.now()),
		Status:     "claimed",
		FamilyID:   user.FamilyID,
	})
	if err != nil {
		return ClaimResult{}, err
	}
	r.log.Info("reward claimed", zap.String("reward", rewardID), zap.String("user", userID), zap.Int("cost", reward.PointsCost))
	return ClaimResult{Success: true, Message: "Reward claimed successfully!", Claim: &claim}, nil
}

// Ranked is a user with its leaderboard position.
type Ranked struct {
	User
	Rank int `json:"rank"`
}

// Leaderboard orders users by points, highest first. Ties keep storage order.
func (r *Repo) Leaderboard() ([]Ranked, error) {
	users, err := r.Users.List(nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Points > users[j].Points })
	out := make([]Ranked, len(users))
	for i, u := range users {
		out[i] = Ranked{User: u, Rank: i + 1}
	}
	return out, nil
}

type TaskStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Today      int `json:"today"`
}

// Stats summarises tasks by status; Today counts tasks due on today
// (a DateLayout date).
func (r *Repo) Stats(today string) (TaskStats, error) {
	tasks, err := r.Tasks.List(nil)
	if err != nil {
		return TaskStats{}, err
	}
	s := TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		}
		if t.DueDate == today {
			s.Today++
		}
	}
	return s, nil
}

// EventsBetween returns events starting within [start, end], inclusive.
// Dates are DateLayout strings, which order lexically.
func (r *Repo) EventsBetween(start, end string) ([]Event, error) {
	events, err := r.Events.List(nil)
	if err != nil {
		return nil, err
	}
	out := events[:0]
	for _, e := range events {
		if e.StartDate >= start && e.StartDate <= end {
			out = append(out, e)
		}
	}
	return out, nil
}

// MealsOn returns the meals planned for date.
func (r *Repo) MealsOn(date string) ([]Meal, error) {
	return r.Meals.List(docdb.Filter{"date": date})
}

// WeekMeals returns meals dated within the seven days starting at weekStart.
func (r *Repo) WeekMeals(weekStart string) ([]Meal, error) {
	start, err := time.Parse(DateLayout, weekStart)
	if err != nil {
		return nil, fmt.Errorf("week start: %w", err)
	}
	end := start.AddDate(0, 0, 7)
	meals, err := r.Meals.List(nil)
	if err != nil {
		return nil, err
	}
	out := meals[:0]
	for _, m := range meals {
		d, err := time.Parse(DateLayout, m.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListItems returns the items of one list type, or every item when
// listType is empty.
func (r *Repo) ListItems(listType string) ([]ListItem, error) {
	if listType == "" {
		return r.Lists.List(nil)
	}
	return r.Lists.List(docdb.Filter{"listType": listType})
}

// SleepDuration returns the hours between two "15:04" clock times,
// rounded to one decimal. A wake time at or before the bedtime is taken
// to be on the next day.
func SleepDuration(bedtime, wakeTime string) (float64, error) {
	bed, err := time.Parse("15:04", bedtime)
	if err != nil {
		return 0, fmt.Errorf("bedtime: %w", err)
	}
	wake, err := time.Parse("15:04", wakeTime)
	if err != nil {
		return 0, fmt.Errorf("wake time: %w", err)
	}
	d := wake.Sub(bed)
	if d <= 0 {
		d += 24 * time.Hour
	}
	return math.Round(d.Hours()*10) / 10, nil
}

// LogSleep records a sleep entry, deriving Duration from the clock times
// when it is not set.
func (r *Repo) LogSleep(e SleepEntry) (SleepEntry, error) {
	if e.Duration == 0 {
		d, err := SleepDuration(e.Bedtime, e.WakeTime)
		if err != nil {
			return SleepEntry{}, err
		}
		e.Duration = d
	}
	return r.SleepEntries.Create(e)
}
