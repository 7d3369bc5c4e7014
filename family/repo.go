package family

import (
	"time"

	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/docdb"
)

// Repo exposes one typed collection per entity. Each offers the four
// operations the UI relies on (List, Create, Update, Delete) plus the
// rest of docdb.Collection.
type Repo struct {
	db  *docdb.DB
	log *zap.Logger
	now func() time.Time

	Users        *docdb.Collection[User]
	Families     *docdb.Collection[Family]
	Events       *docdb.Collection[Event]
	Tasks        *docdb.Collection[Task]
	Rewards      *docdb.Collection[Reward]
	RewardClaims *docdb.Collection[RewardClaim]
	Meals        *docdb.Collection[Meal]
	Recipes      *docdb.Collection[Recipe]
	Photos       *docdb.Collection[Photo]
	Albums       *docdb.Collection[Album]
	Lists        *docdb.Collection[ListItem]
	SleepEntries *docdb.Collection[SleepEntry]
	Settings     *docdb.Collection[Setting]
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger for planner operations. The default discards.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repo) { r.log = log }
}

// WithClock replaces time.Now for claim timestamps and seed dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// NewRepo binds one typed collection per entity to db.
func NewRepo(db *docdb.DB, opts ...Option) *Repo {
	r := &Repo{
		db:  db,
		log: zap.NewNop(),
		now: time.Now,

		Users:        docdb.NewCollection[User](db, Users),
		Families:     docdb.NewCollection[Family](db, Families),
		Events:       docdb.NewCollection[Event](db, Events),
		Tasks:        docdb.NewCollection[Task](db, Tasks),
		Rewards:      docdb.NewCollection[Reward](db, Rewards),
		RewardClaims: docdb.NewCollection[RewardClaim](db, RewardClaims),
		Meals:        docdb.NewCollection[Meal](db, Meals),
		Recipes:      docdb.NewCollection[Recipe](db, Recipes),
		Photos:       docdb.NewCollection[Photo](db, Photos),
		Albums:       docdb.NewCollection[Album](db, Albums),
		Lists:        docdb.NewCollection[ListItem](db, Lists),
		SleepEntries: docdb.NewCollection[SleepEntry](db, SleepEntries),
		Settings:     docdb.NewCollection[Setting](db, Settings),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DB returns the underlying document store.
func (r *Repo) DB() *docdb.DB { return r.db }
