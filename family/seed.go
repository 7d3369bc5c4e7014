package family

import (
	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/docdb"
	"github.com/kukshaus/family-planner/store"
)

// DemoFamilyID is the family every seeded document belongs to.
const DemoFamilyID = "demo_family_1"

// Initialize loads the demo data set. It does nothing, and returns false,
// when the users collection already has documents. Dates are relative to
// the repo clock.
func (r *Repo) Initialize() (bool, error) {
	n, err := r.Users.Count(nil)
	if err != nil {
		return false, err
	}
	if n > 0 {
		r.log.Info("database already initialized", zap.Int("users", n))
		return false, nil
	}

	now := r.now().UTC()
	today := now.Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(DateLayout)
	twoDaysAgo := now.AddDate(0, 0, -2).Format(DateLayout)

	if _, err := r.Users.CreateMany([]User{
		{Name: "Sarah", Email: "sarah@family.com", Role: "admin", FamilyID: DemoFamilyID, Avatar: "👩", Points: 245, Color: "#6366F1"},
		{Name: "Mike", Email: "mike@family.com", Role: "parent", FamilyID: DemoFamilyID, Avatar: "👨", Points: 198, Color: "#F59E0B"},
		{Name: "Emma", Email: "emma@family.com", Role: "child", FamilyID: DemoFamilyID, Avatar: "👧", Points: 156, Color: "#EC4899"},
		{Name: "Jake", Email: "jake@family.com", Role: "child", FamilyID: DemoFamilyID, Avatar: "👦", Points: 142, Color: "#10B981"},
	}); err != nil {
		return false, err
	}

	if _, err := r.Tasks.CreateMany([]Task{
		{Title: "Clean kitchen", Description: "Wipe counters and load dishwasher", AssignedTo: "emma", AssignedToName: "Emma",
			Priority: "medium", Status: StatusPending, Points: 20, DueDate: today, DueTime: "14:00", FamilyID: DemoFamilyID, CreatedBy: "sarah"},
		{Title: "Grocery shopping", Description: "Get items from shopping list", AssignedTo: "sarah", AssignedToName: "Sarah",
			Priority: "high", Status: StatusInProgress, Points: 30, DueDate: today, DueTime: "16:00", FamilyID: DemoFamilyID, CreatedBy: "sarah"},
		{Title: "Walk the dog", AssignedTo: "jake", AssignedToName: "Jake",
			Priority: "low", Status: StatusPending, Points: 10, DueDate: today, DueTime: "17:00", FamilyID: DemoFamilyID, CreatedBy: "mike"},
		{Title: "Homework - Math", Description: "Complete chapter 5 exercises", AssignedTo: "emma", AssignedToName: "Emma",
			Priority: "high", Status: StatusCompleted, Points: 25, DueDate: today, FamilyID: DemoFamilyID, CreatedBy: "sarah"},
		{Title: "Organize garage", AssignedTo: "mike", AssignedToName: "Mike",
			Priority: "medium", Status: StatusPending, Points: 40, DueDate: tomorrow, FamilyID: DemoFamilyID, CreatedBy: "sarah"},
	}); err != nil {
		return false, err
	}

	if _, err := r.Events.CreateMany([]Event{
		{Title: "Doctor Appointment", Description: "Annual checkup for Emma", StartDate: today, StartTime: "10:30", EndTime: "11:30",
			Location: "City Medical Center", Attendees: []string{"sarah", "emma"}, Color: "#EF4444", FamilyID: DemoFamilyID, CreatedBy: "sarah"},
		{Title: "Soccer Practice", StartDate: today, StartTime: "16:00", EndTime: "17:30",
			Location: "Community Sports Field", Attendees: []string{"jake"}, Color: "#3B82F6", FamilyID: DemoFamilyID, CreatedBy: "mike"},
		{Title: "Family Dinner", Description: "Weekly family meal", StartDate: today, StartTime: "18:30", EndTime: "20:00",
			Location: "Home", Attendees: []string{"sarah", "mike", "emma", "jake"}, Color: "#F59E0B", FamilyID: DemoFamilyID, CreatedBy: "sarah"},
		{Title: "Movie Night", Description: "Family movie at home", StartDate: tomorrow, StartTime: "19:00",
			Location: "Home", Attendees: []string{"sarah", "mike", "emma", "jake"}, Color: "#EC4899", FamilyID: DemoFamilyID, CreatedBy: "mike"},
	}); err != nil {
		return false, err
	}

	if _, err := r.Meals.CreateMany([]Meal{
		{Date: today, MealType: "breakfast", Name: "Avocado Toast with Poached Egg", Calories: 320, FamilyID: DemoFamilyID},
		{Date: today, MealType: "lunch", Name: "Quinoa Salad with Lemon Vinaigrette", Calories: 450, FamilyID: DemoFamilyID},
		{Date: today, MealType: "dinner", Name: "Grilled Salmon with Vegetables", Calories: 520, Notes: "Kids favorite!", FamilyID: DemoFamilyID},
		{Date: tomorrow, MealType: "breakfast", Name: "Oatmeal with Berries", Calories: 280, FamilyID: DemoFamilyID},
	}); err != nil {
		return false, err
	}

	shopping := func(name, qty, category string, checked bool, icon string) ListItem {
		return ListItem{ListType: "shopping", Name: name, Quantity: qty, Category: category, Checked: checked, Icon: icon, FamilyID: DemoFamilyID}
	}
	if _, err := r.Lists.CreateMany([]ListItem{
		shopping("Avocados", "2 pc", "Produce", true, "🥑"),
		shopping("Salmon Fillets", "150g", "Seafood", true, "🐟"),
		shopping("Yogurt", "200g", "Dairy", false, "🥛"),
		shopping("Dark chocolate almonds", "50g", "Snacks", false, "🍫"),
		shopping("Red Onion", "1/4 piece", "Produce", false, "🧅"),
		shopping("Lettuce", "2 pc", "Produce", false, "🥬"),
		shopping("Bread", "1 loaf", "Bakery", false, "🍞"),
		shopping("Eggs", "12 pc", "Dairy", false, "🥚"),
	}); err != nil {
		return false, err
	}

	photo := func(title, id, by string, tags ...string) Photo {
		base := "https://images.unsplash.com/photo-" + id
		return Photo{Title: title, URL: base + "?w=800", Thumbnail: base + "?w=400", UploadedBy: by, Tags: tags, FamilyID: DemoFamilyID}
	}
	if _, err := r.Photos.CreateMany([]Photo{
		photo("Birthday Party", "1511895426328-dc8714191300", "sarah", "birthday", "celebration"),
		photo("Beach Day", "1502086223501-7ea6ecd79368", "mike", "vacation", "summer"),
		photo("Park Visit", "1476703993599-0035a21b17a9", "sarah", "outdoor", "fun"),
		photo("Game Night", "1543168256-418811576931", "mike", "indoor", "games"),
	}); err != nil {
		return false, err
	}

	if _, err := r.Rewards.CreateMany([]Reward{
		{Name: "Extra Screen Time", Description: "30 minutes of extra screen time", PointsCost: 50, Icon: "📱", Available: true, FamilyID: DemoFamilyID},
		{Name: "Choose Dinner", Description: "Pick what the family has for dinner", PointsCost: 75, Icon: "🍕", Available: true, FamilyID: DemoFamilyID},
		{Name: "Movie Night Pick", Description: "Choose the movie for family movie night", PointsCost: 60, Icon: "🎬", Available: true, FamilyID: DemoFamilyID},
		{Name: "Sleep In Saturday", Description: "Sleep in on Saturday morning", PointsCost: 100, Icon: "😴", Available: true, FamilyID: DemoFamilyID},
		{Name: "Ice Cream Trip", Description: "Family trip to the ice cream shop", PointsCost: 80, Icon: "🍦", Available: true, FamilyID: DemoFamilyID},
	}); err != nil {
		return false, err
	}

	if _, err := r.SleepEntries.CreateMany([]SleepEntry{
		{UserID: "emma", UserName: "Emma", Date: yesterday, Bedtime: "21:00", WakeTime: "07:00", Duration: 10, Quality: "excellent", FamilyID: DemoFamilyID},
		{UserID: "jake", UserName: "Jake", Date: yesterday, Bedtime: "21:30", WakeTime: "07:30", Duration: 10, Quality: "good", FamilyID: DemoFamilyID},
		{UserID: "emma", UserName: "Emma", Date: twoDaysAgo, Bedtime: "21:15", WakeTime: "06:45", Duration: 9.5, Quality: "good", FamilyID: DemoFamilyID},
	}); err != nil {
		return false, err
	}

	r.log.Info("seed data initialized", zap.String("family", DemoFamilyID))
	return true, nil
}

// Reset clears every collection and loads the demo data again.
func (r *Repo) Reset() error {
	if err := r.db.ClearDatabase(); err != nil {
		return err
	}
	_, err := r.Initialize()
	return err
}

// CollectionCounts returns the number of documents in each collection of
// the enumeration, for a quick overview of the store.
func (r *Repo) CollectionCounts() (map[string]int, error) {
	counts := make(map[string]int, len(Collections))
	for _, c := range Collections {
		n, err := r.db.Count(c, nil)
		if err != nil {
			return nil, err
		}
		counts[c] = n
	}
	return counts, nil
}

// NewDB builds a document store over kv whose enumeration is Collections.
func NewDB(kv store.Store, opts ...docdb.Option) *docdb.DB {
	return docdb.New(kv, append([]docdb.Option{docdb.WithCollections(Collections...)}, opts...)...)
}
