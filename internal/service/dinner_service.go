package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sundaytable/internal/database"
	"sundaytable/internal/livesync"
	"sundaytable/internal/models"
	"sundaytable/internal/repository"
	"sundaytable/internal/schedule"
)

// DefaultMaxAttempts bounds how often a mutation re-reads after losing a version check
const DefaultMaxAttempts = 5

// DinnerOptions tunes a DinnerService
type DinnerOptions struct {
	MaxAttempts  int
	WindowMonths int
	Notifier     HostNotifier
	Now          func() time.Time
}

// DinnerService runs every dinner and rotation mutation as one
// read-modify-write transaction and publishes the committed result
type DinnerService struct {
	db           *database.DB
	configRepo   *repository.ConfigRepository
	dinnerRepo   *repository.DinnerRepository
	locks        *livesync.KeyedMutex
	hub          *livesync.Hub
	notifier     HostNotifier
	maxAttempts  int
	windowMonths int
	now          func() time.Time
}

// NewDinnerService creates a new dinner service
func NewDinnerService(db *database.DB, hub *livesync.Hub, opts DinnerOptions) *DinnerService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.WindowMonths < 1 {
		opts.WindowMonths = schedule.DefaultWindowMonths
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DinnerService{
		db:           db,
		configRepo:   repository.NewConfigRepository(db),
		dinnerRepo:   repository.NewDinnerRepository(db),
		locks:        livesync.NewKeyedMutex(),
		hub:          hub,
		notifier:     opts.Notifier,
		maxAttempts:  opts.MaxAttempts,
		windowMonths: opts.WindowMonths,
		now:          opts.Now,
	}
}

// EnsureConfig creates the rotation config from families and rotation if
// none exists yet, and returns the stored config either way
func (s *DinnerService) EnsureConfig(ctx context.Context, families []models.Family, rotation []string) (*models.RotationConfig, error) {
	unlock, err := s.locks.Lock(ctx, models.ConfigKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		cfg     *models.RotationConfig
		created bool
	)
	err = s.mutate(ctx, "ensure config", func(tx *database.Tx) error {
		configs := s.configRepo.WithTx(tx)
		var err error
		created, err = configs.CreateConfig(ctx, models.NewRotationConfig(families, rotation), s.now().UTC())
		if err != nil {
			return err
		}
		cfg, err = configs.GetConfig(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		log.Printf("Seeded rotation config with %d families", len(cfg.Families))
		published := cfg.Clone()
		s.hub.Publish(livesync.Event{Config: &published})
	}
	return cfg, nil
}

// ToggleAvailability moves familyID one step through unset, available, declined
func (s *DinnerService) ToggleAvailability(ctx context.Context, date models.DateKey, familyID string) (models.Dinner, error) {
	unlock, err := s.locks.Lock(ctx, date.DocKey())
	if err != nil {
		return models.Dinner{}, err
	}
	defer unlock()

	var saved models.Dinner
	err = s.mutate(ctx, "toggle availability", func(tx *database.Tx) error {
		cfg, err := s.loadConfig(ctx, s.configRepo.WithTx(tx))
		if err != nil {
			return err
		}
		dinners := s.dinnerRepo.WithTx(tx)
		current, err := s.loadDinner(ctx, dinners, date)
		if err != nil {
			return err
		}
		next, err := schedule.ToggleAvailability(current, cfg, familyID)
		if err != nil {
			return err
		}
		saved, err = s.saveDinner(ctx, dinners, current, next)
		return err
	})
	if err != nil {
		return models.Dinner{}, err
	}

	s.publishDinner(saved)
	return saved, nil
}

// ConfirmDinner confirms date and assigns the next host in the rotation.
// The dinner and the rotation pointer are committed together.
func (s *DinnerService) ConfirmDinner(ctx context.Context, date models.DateKey) (models.Dinner, models.RotationConfig, error) {
	unlockConfig, err := s.locks.Lock(ctx, models.ConfigKey)
	if err != nil {
		return models.Dinner{}, models.RotationConfig{}, err
	}
	defer unlockConfig()
	unlockDinner, err := s.locks.Lock(ctx, date.DocKey())
	if err != nil {
		return models.Dinner{}, models.RotationConfig{}, err
	}
	defer unlockDinner()

	var (
		saved    models.Dinner
		savedCfg models.RotationConfig
	)
	err = s.mutate(ctx, "confirm dinner", func(tx *database.Tx) error {
		configs := s.configRepo.WithTx(tx)
		cfg, err := s.loadConfig(ctx, configs)
		if err != nil {
			return err
		}
		dinners := s.dinnerRepo.WithTx(tx)
		current, err := s.loadDinner(ctx, dinners, date)
		if err != nil {
			return err
		}

		nextDinner, nextCfg, err := schedule.Confirm(current, cfg)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		ok, err := configs.UpdateLastHostIndex(ctx, cfg.Version, nextCfg.LastHostIndex, now)
		if err != nil {
			return err
		}
		if !ok {
			return errConflict
		}
		nextCfg.Version = cfg.Version + 1
		nextCfg.UpdatedAt = now

		saved, err = s.saveDinner(ctx, dinners, current, nextDinner)
		if err != nil {
			return err
		}
		savedCfg = nextCfg
		return nil
	})
	if err != nil {
		return models.Dinner{}, models.RotationConfig{}, err
	}

	published, publishedCfg := saved.Clone(), savedCfg.Clone()
	s.hub.Publish(livesync.Event{Config: &publishedCfg, Dinner: &published})
	log.Printf("Confirmed dinner %s, host %s", saved.Date, saved.HostID)

	unlockDinner()
	unlockConfig()
	s.notifyHost(ctx, savedCfg, saved)
	return saved, savedCfg, nil
}

func (s *DinnerService) notifyHost(ctx context.Context, cfg models.RotationConfig, dinner models.Dinner) {
	if s.notifier == nil {
		return
	}
	host, ok := cfg.FamilyByID(dinner.HostID)
	if !ok {
		return
	}
	if err := s.notifier.NotifyHost(context.WithoutCancel(ctx), host, dinner); err != nil {
		log.Printf("Host notification for %s failed: %v", dinner.Date, &ExternalServiceError{Service: "email", Err: err})
	}
}

// SaveMealLog replaces the meal log of date, confirmed or not
func (s *DinnerService) SaveMealLog(ctx context.Context, date models.DateKey, mealLog models.MealLog) (models.Dinner, error) {
	if err := schedule.ValidateMealLog(mealLog); err != nil {
		return models.Dinner{}, err
	}

	unlock, err := s.locks.Lock(ctx, date.DocKey())
	if err != nil {
		return models.Dinner{}, err
	}
	defer unlock()

	var saved models.Dinner
	err = s.mutate(ctx, "save meal log", func(tx *database.Tx) error {
		dinners := s.dinnerRepo.WithTx(tx)
		current, err := s.loadDinner(ctx, dinners, date)
		if err != nil {
			return err
		}
		next, err := schedule.ApplyMealLog(current, mealLog, s.now())
		if err != nil {
			return err
		}
		saved, err = s.saveDinner(ctx, dinners, current, next)
		return err
	})
	if err != nil {
		return models.Dinner{}, err
	}

	s.publishDinner(saved)
	return saved, nil
}

// mutate runs fn in a transaction, retrying from a fresh read when a
// version check is lost. Errors other than validation come back as *StoreError.
func (s *DinnerService) mutate(ctx context.Context, op string, fn func(tx *database.Tx) error) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.db.WithTx(ctx, fn)
		switch {
		case err == nil:
			return nil
		case schedule.IsValidation(err):
			return err
		case errors.Is(err, errConflict):
			log.Printf("%s: version conflict on attempt %d/%d, retrying", op, attempt, s.maxAttempts)
			continue
		case errors.Is(err, database.ErrCommit):
			return &StoreError{Op: op, Outcome: Unknown, Err: err}
		default:
			return &StoreError{Op: op, Outcome: NotApplied, Err: err}
		}
	}
	return &StoreError{Op: op, Outcome: NotApplied, Err: ErrTooManyConflicts}
}

// saveDinner writes next over current, guarded by current's version.
// Only responses that changed are written.
func (s *DinnerService) saveDinner(ctx context.Context, dinners *repository.DinnerRepository, current, next models.Dinner) (models.Dinner, error) {
	now := s.now().UTC()

	if !current.IsPersisted() {
		ok, err := dinners.InsertDinner(ctx, next, now)
		if err != nil {
			return models.Dinner{}, err
		}
		if !ok {
			return models.Dinner{}, errConflict
		}
		next.Version = 1
		next.CreatedAt = now
		next.UpdatedAt = now
		return next, nil
	}

	ok, err := dinners.UpdateDinner(ctx, next, current.Version, now)
	if err != nil {
		return models.Dinner{}, err
	}
	if !ok {
		return models.Dinner{}, errConflict
	}
	for _, familyID := range changedResponses(current, next) {
		if err := dinners.PutResponse(ctx, next.Date, familyID, next.StateOf(familyID), now); err != nil {
			return models.Dinner{}, err
		}
	}
	next.Version = current.Version + 1
	next.UpdatedAt = now
	return next, nil
}

func changedResponses(current, next models.Dinner) []string {
	var ids []string
	for id, state := range next.Responses {
		if current.StateOf(id) != state {
			ids = append(ids, id)
		}
	}
	for id := range current.Responses {
		if _, ok := next.Responses[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *DinnerService) loadConfig(ctx context.Context, configs *repository.ConfigRepository) (models.RotationConfig, error) {
	cfg, err := configs.GetConfig(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.RotationConfig{}, ErrNotSeeded
	}
	if err != nil {
		return models.RotationConfig{}, err
	}
	return *cfg, nil
}

func (s *DinnerService) loadDinner(ctx context.Context, dinners *repository.DinnerRepository, date models.DateKey) (models.Dinner, error) {
	d, err := dinners.GetDinner(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewDinner(date), nil
	}
	if err != nil {
		return models.Dinner{}, err
	}
	return *d, nil
}

func (s *DinnerService) publishDinner(d models.Dinner) {
	published := d.Clone()
	s.hub.Publish(livesync.Event{Dinner: &published})
}

// Config returns the stored rotation config
func (s *DinnerService) Config(ctx context.Context) (models.RotationConfig, error) {
	cfg, err := s.loadConfig(ctx, s.configRepo)
	if err != nil {
		return models.RotationConfig{}, fmt.Errorf("failed to get config: %w", err)
	}
	return cfg, nil
}

// Dinner returns the stored dinner for date, or its defaults if never written
func (s *DinnerService) Dinner(ctx context.Context, date models.DateKey) (models.Dinner, error) {
	d, err := s.loadDinner(ctx, s.dinnerRepo, date)
	if err != nil {
		return models.Dinner{}, fmt.Errorf("failed to get dinner: %w", err)
	}
	return d, nil
}

// Window returns the upcoming Sundays considered by the schedule
func (s *DinnerService) Window() []models.DateKey {
	return schedule.UpcomingSundays(s.now(), s.windowMonths)
}

// Schedule returns one dinner per upcoming Sunday, in date order
func (s *DinnerService) Schedule(ctx context.Context) ([]models.Dinner, error) {
	window := s.Window()
	byDate, err := s.dinnersIn(ctx, window)
	if err != nil {
		return nil, err
	}
	out := make([]models.Dinner, 0, len(window))
	for _, date := range window {
		if d, ok := byDate[date]; ok {
			out = append(out, d)
		} else {
			out = append(out, models.NewDinner(date))
		}
	}
	return out, nil
}

// Ranking is the scored upcoming window plus the best pick, if any
type Ranking struct {
	Ranked []schedule.Ranked `json:"ranked"`
	Best   *schedule.Ranked  `json:"best"`
}

// Rank scores every unconfirmed upcoming Sunday by attendance
func (s *DinnerService) Rank(ctx context.Context) (Ranking, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return Ranking{}, err
	}
	window := s.Window()
	byDate, err := s.dinnersIn(ctx, window)
	if err != nil {
		return Ranking{}, err
	}

	ranking := Ranking{Ranked: schedule.RankUpcoming(byDate, window, len(cfg.Families))}
	if best, ok := schedule.BestPick(ranking.Ranked); ok {
		ranking.Best = &best
	}
	return ranking, nil
}

func (s *DinnerService) dinnersIn(ctx context.Context, window []models.DateKey) (map[models.DateKey]models.Dinner, error) {
	byDate := map[models.DateKey]models.Dinner{}
	if len(window) == 0 {
		return byDate, nil
	}
	dinners, err := s.dinnerRepo.ListDinnersBetween(ctx, window[0], window[len(window)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to list dinners: %w", err)
	}
	for _, d := range dinners {
		byDate[d.Date] = d
	}
	return byDate, nil
}

// FamilyStats reports each family's hosting record and rotation position
func (s *DinnerService) FamilyStats(ctx context.Context) ([]models.FamilyStats, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	dinners, err := s.dinnerRepo.ListDinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dinners: %w", err)
	}
	return schedule.FamilyStats(cfg, dinners), nil
}

// History returns confirmed dinners, newest first
func (s *DinnerService) History(ctx context.Context) ([]models.Dinner, error) {
	dinners, err := s.dinnerRepo.ListDinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dinners: %w", err)
	}
	return schedule.History(dinners), nil
}

// Snapshot reads the config and every dinner in one transaction
func (s *DinnerService) Snapshot(ctx context.Context) (livesync.Snapshot, error) {
	snap := livesync.Snapshot{Seq: s.hub.Seq()}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		cfg, err := s.loadConfig(ctx, s.configRepo.WithTx(tx))
		if err != nil {
			return err
		}
		dinners, err := s.dinnerRepo.WithTx(tx).ListDinners(ctx)
		if err != nil {
			return err
		}
		snap.Config = cfg
		snap.Dinners = dinners
		return nil
	})
	if err != nil {
		return livesync.Snapshot{}, fmt.Errorf("failed to take snapshot: %w", err)
	}
	if snap.Dinners == nil {
		snap.Dinners = []models.Dinner{}
	}
	return snap, nil
}

// Watch subscribes to changes and then takes a snapshot, so no commit is
// missed. Fold both into a livesync.View to drop events the snapshot covers.
func (s *DinnerService) Watch(ctx context.Context) (*livesync.Subscription, livesync.Snapshot, error) {
	sub := s.hub.Subscribe()
	snap, err := s.Snapshot(ctx)
	if err != nil {
		sub.Close()
		return nil, livesync.Snapshot{}, err
	}
	return sub, snap, nil
}
