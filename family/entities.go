// Package family holds the planner's entity types, the per-entity
// collections the UI works through, and the few operations that span
// collections (points, rewards, stats, seeding).
package family

import "github.com/kukshaus/family-planner/docdb"

// Collection names.
const (
	Users        = "users"
	Families     = "families"
	Events       = "events"
	Tasks        = "tasks"
	Rewards      = "rewards"
	RewardClaims = "rewardClaims"
	Meals        = "meals"
	Recipes      = "recipes"
	Photos       = "photos"
	Albums       = "albums"
	Lists        = "lists"
	SleepEntries = "sleepEntries"
	Settings     = "settings"
)

// Collections is the full enumeration cleared and exported as a unit.
var Collections = []string{
	Users, Families, Events, Tasks, Rewards, RewardClaims,
	Meals, Recipes, Photos, Albums, Lists, SleepEntries, Settings,
}

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

type User struct {
	docdb.Meta
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"` // admin, parent, child, guest
	FamilyID string `json:"familyId"`
	Avatar   string `json:"avatar,omitempty"`
	Points   int    `json:"points"`
	Color    string `json:"color"`
}

type Task struct {
	docdb.Meta
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	AssignedTo     string `json:"assignedTo"`
	AssignedToName string `json:"assignedToName"`
	Priority       string `json:"priority"` // low, medium, high
	Status         string `json:"status"`
	Points         int    `json:"points"`
	DueDate        string `json:"dueDate"`
	DueTime        string `json:"dueTime,omitempty"`
	FamilyID       string `json:"familyId"`
	CreatedBy      string `json:"createdBy"`
}

type Event struct {
	docdb.Meta
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime,omitempty"`
	Location    string   `json:"location,omitempty"`
	Attendees   []string `json:"attendees"`
	Color       string   `json:"color"`
	FamilyID    string   `json:"familyId"`
	CreatedBy   string   `json:"createdBy"`
}

type Meal struct {
	docdb.Meta
	Date        string `json:"date"`
	MealType    string `json:"mealType"` // breakfast, lunch, dinner, snack
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Recipe      string `json:"recipe,omitempty"`
	Calories    int    `json:"calories,omitempty"`
	Notes       string `json:"notes,omitempty"`
	FamilyID    string `json:"familyId"`
}

type ListItem struct {
	docdb.Meta
	ListType string `json:"listType"` // shopping, todo, packing
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
	Checked  bool   `json:"checked"`
	Icon     string `json:"icon,omitempty"`
	FamilyID string `json:"familyId"`
}

type Photo struct {
	docdb.Meta
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	AlbumID     string   `json:"albumId,omitempty"`
	UploadedBy  string   `json:"uploadedBy"`
	Tags        []string `json:"tags,omitempty"`
	FamilyID    string   `json:"familyId"`
}

type Reward struct {
	docdb.Meta
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PointsCost  int    `json:"pointsCost"`
	Icon        string `json:"icon,omitempty"`
	Available   bool   `json:"available"`
	FamilyID    string `json:"familyId"`
}

type RewardClaim struct {
	docdb.Meta
	RewardID   string `json:"rewardId"`
	RewardName string `json:"rewardName"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	PointsCost int    `json:"pointsCost"`
	ClaimedAt  string `json:"claimedAt"`
	Status     string `json:"status"`
	FamilyID   string `json:"familyId"`
}

type SleepEntry struct {
	docdb.Meta
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Date     string  `json:"date"`
	Bedtime  string  `json:"bedtime"`
	WakeTime string  `json:"wakeTime"`
	Duration float64 `json:"duration"`
	Quality  string  `json:"quality"` // poor, fair, good, excellent
	Notes    string  `json:"notes,omitempty"`
	FamilyID string  `json:"familyId"`
}

type Family struct {
	docdb.Meta
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Settings struct {
		WeekStartsOn int    `json:"weekStartsOn"`
		Currency     string `json:"currency"`
		Language     string `json:"language"`
	} `json:"settings"`
}

type Recipe struct {
	docdb.Meta
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	PrepTime     int      `json:"prepTime"`
	Servings     int      `json:"servings"`
	FamilyID     string   `json:"familyId"`
}

type Album struct {
	docdb.Meta
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	CoverPhotoID string `json:"coverPhotoId,omitempty"`
	CreatedBy    string `json:"createdBy"`
	FamilyID     string `json:"familyId"`
}

// Setting is one user's preferences.
type Setting struct {
	docdb.Meta
	UserID        string `json:"userId"`
	Theme         string `json:"theme"` // light, dark, auto
	Notifications struct {
		Email  bool `json:"email"`
		Push   bool `json:"push"`
		Tasks  bool `json:"tasks"`
		Events bool `json:"events"`
	} `json:"notifications"`
	FamilyID string `json:"familyId"`
}
