package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/metrics"
	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/wheel"
)

// UnknownPrizeName is shown for records whose prize has been deleted.
const UnknownPrizeName = "Hadiah tidak dikenal"

const (
	EventSpinResolved   = "spin.resolved"
	EventPrizeAssigned  = "prize.assigned"
	EventUserRegistered = "user.registered"
)

// EventPublisher receives domain events for the live dashboard feed.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

type DrawMode string

const (
	// DrawModeServer ignores proposed prizes and draws on the server.
	DrawModeServer DrawMode = "server"
	// DrawModeClient trusts the prize proposed by the kiosk.
	DrawModeClient DrawMode = "client"
)

type SpinRequest struct {
	UserID     string
	PrizeID    string
	IsAssigned bool
	AssignedBy string
}

type SpinResult struct {
	Record     models.SpinRecord `json:"record"`
	User       models.User       `json:"user"`
	Prize      *models.Prize     `json:"prize"`
	PrizeName  string            `json:"prize_name"`
	Overridden bool              `json:"overridden"`
	Wheel      *wheel.Target     `json:"wheel,omitempty"`
	WheelError string            `json:"wheel_error,omitempty"`
}

type SpinOptions struct {
	Drawer *Drawer
	Mode   DrawMode
	Logger *zap.Logger
	Events EventPublisher
}

type SpinService struct {
	store  store.Store
	drawer *Drawer
	mode   DrawMode
	log    *zap.Logger
	events EventPublisher
	now    func() time.Time
}

func NewSpinService(s store.Store, opts SpinOptions) *SpinService {
	svc := &SpinService{
		store:  s,
		drawer: opts.Drawer,
		mode:   opts.Mode,
		log:    opts.Logger,
		events: opts.Events,
		now:    time.Now,
	}
	if svc.drawer == nil {
		svc.drawer = NewTimeSeededDrawer()
	}
	if svc.mode == "" {
		svc.mode = DrawModeServer
	}
	if svc.log == nil {
		svc.log = zap.NewNop()
	}
	if svc.events == nil {
		svc.events = nopPublisher{}
	}
	return svc
}

// Resolve is the authoritative spin. It runs in one transaction and either
// persists exactly one winning record and marks the user spent, or changes
// nothing.
func (s *SpinService) Resolve(ctx context.Context, req SpinRequest) (*SpinResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.PrizeID = strings.TrimSpace(req.PrizeID)
	if req.UserID == "" {
		return nil, invalid("user_id", "required")
	}
	if req.IsAssigned && req.PrizeID == "" {
		return nil, invalid("prize_id", "required")
	}

	var result *SpinResult
	source := "draw"
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		user, err := tx.LockUser(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.HasSpun {
			return ErrAlreadySpun
		}

		if !req.IsAssigned {
			live, err := tx.FindLiveAssignment(ctx, user.ID)
			switch {
			case err == nil:
				if err := markSpun(ctx, tx, user); err != nil {
					return err
				}
				prize, err := optionalPrize(ctx, tx, live.PrizeID)
				if err != nil {
					return err
				}
				source = "assignment"
				result = &SpinResult{Record: *live, User: *user, Prize: prize, Overridden: true}
				return nil
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}

		prize, src, err := s.choosePrize(ctx, tx, req)
		if err != nil {
			return err
		}
		source = src

		if req.IsAssigned {
			if _, err := tx.DeleteLiveAssignments(ctx, user.ID); err != nil {
				return err
			}
		}
		if err := markSpun(ctx, tx, user); err != nil {
			return err
		}
		rec := &models.SpinRecord{
			UserID:     user.ID,
			PrizeID:    prize.ID,
			IsAssigned: req.IsAssigned,
			AssignedBy: optionalString(req.AssignedBy),
			SpinTime:   s.now(),
		}
		if err := tx.CreateSpinRecord(ctx, rec); err != nil {
			return err
		}
		result = &SpinResult{Record: *rec, User: *user, Prize: prize}
		return nil
	})
	if err != nil {
		s.reject(req, err)
		return nil, err
	}

	result.PrizeName = prizeName(result.Prize)
	if result.Prize != nil {
		plan, err := s.WheelPlan(ctx, result.Prize.ID)
		if err != nil {
			s.log.Warn("spin resolved off-wheel",
				zap.String("user_id", result.User.ID), zap.String("prize_id", result.Prize.ID), zap.Error(err))
			result.WheelError = err.Error()
		} else {
			result.Wheel = &plan
		}
	} else {
		result.WheelError = wheel.ErrPrizeNotInWheel.Error()
	}

	metrics.IncSpin(source)
	s.log.Info("spin resolved",
		zap.String("user_id", result.User.ID),
		zap.String("prize_id", result.Record.PrizeID),
		zap.String("source", source),
		zap.Bool("overridden", result.Overridden))
	s.events.Publish(EventSpinResolved, map[string]any{
		"user_id":     result.User.ID,
		"user_name":   result.User.Name,
		"user_code":   result.User.Code,
		"prize_id":    result.Record.PrizeID,
		"prize_name":  result.PrizeName,
		"is_assigned": result.Record.IsAssigned,
		"spin_time":   result.Record.SpinTime,
	})
	return result, nil
}

func (s *SpinService) choosePrize(ctx context.Context, tx store.Store, req SpinRequest) (*models.Prize, string, error) {
	if req.IsAssigned || (s.mode == DrawModeClient && req.PrizeID != "") {
		prize, err := tx.FindPrizeByID(ctx, req.PrizeID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, "", ErrPrizeNotFound
			}
			return nil, "", err
		}
		if req.IsAssigned {
			return prize, "admin", nil
		}
		return prize, "client", nil
	}

	active, err := tx.ListPrizes(ctx, true)
	if err != nil {
		return nil, "", err
	}
	prize := s.drawer.Pick(active)
	if prize == nil {
		return nil, "", ErrNoActivePrizes
	}
	return prize, "draw", nil
}

// WheelPlan computes where the wheel must stop for prizeID, using the active
// prizes in display order, which is what the kiosk renders.
func (s *SpinService) WheelPlan(ctx context.Context, prizeID string) (wheel.Target, error) {
	active, err := s.store.ListPrizes(ctx, true)
	if err != nil {
		return wheel.Target{}, err
	}
	return WheelFor(active).Target(prizeID, s.drawer.FullSpins())
}

// WheelFor builds the rendered wheel for a prize list.
func WheelFor(prizes []models.Prize) *wheel.Wheel {
	segs := make([]wheel.Segment, len(prizes))
	for i, p := range prizes {
		segs[i] = wheel.Segment{ID: p.ID, Label: p.Name, Color: p.Color}
	}
	return wheel.New(segs)
}

func (s *SpinService) reject(req SpinRequest, err error) {
	reason := "error"
	switch {
	case errors.Is(err, ErrUserNotFound):
		reason = "user_not_found"
	case errors.Is(err, ErrAlreadySpun):
		reason = "already_spun"
	case errors.Is(err, ErrPrizeNotFound):
		reason = "prize_not_found"
	case errors.Is(err, ErrNoActivePrizes):
		reason = "no_active_prizes"
	case errors.Is(err, ErrValidation):
		reason = "validation"
	default:
		s.log.Error("spin failed", zap.String("user_id", req.UserID), zap.Error(err))
	}
	metrics.IncRejection(reason)
}

// AssignPrize forces the outcome of the user's next spin. Any earlier live
// assignment for the user is replaced.
func (s *SpinService) AssignPrize(ctx context.Context, userID, prizeID, assignedBy string) (*AssignmentView, error) {
	userID = strings.TrimSpace(userID)
	prizeID = strings.TrimSpace(prizeID)
	if userID == "" {
		return nil, invalid("user_id", "required")
	}
	if prizeID == "" {
		return nil, invalid("prize_id", "required")
	}

	var view *AssignmentView
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if user.HasSpun {
			return ErrAlreadySpun
		}
		prize, err := tx.FindPrizeByID(ctx, prizeID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPrizeNotFound
			}
			return err
		}
		if _, err := tx.DeleteLiveAssignments(ctx, user.ID); err != nil {
			return err
		}
		rec := &models.SpinRecord{
			UserID:     user.ID,
			PrizeID:    prize.ID,
			IsAssigned: true,
			AssignedBy: optionalString(assignedBy),
			SpinTime:   s.now(),
		}
		if err := tx.CreateSpinRecord(ctx, rec); err != nil {
			return err
		}
		view = newAssignmentView(*rec, user, prize)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Assignments.Inc()
	s.log.Info("prize assigned",
		zap.String("user_id", userID), zap.String("prize_id", prizeID), zap.String("assigned_by", assignedBy))
	s.events.Publish(EventPrizeAssigned, view)
	return view, nil
}

// AssignedPrize returns the live assignment of a user that has not spun yet.
func (s *SpinService) AssignedPrize(ctx context.Context, userID string) (*models.Prize, bool, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}
	if user.HasSpun {
		return nil, false, nil
	}
	live, err := s.store.FindLiveAssignment(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	prize, err := optionalPrize(ctx, s.store, live.PrizeID)
	if err != nil {
		return nil, false, err
	}
	return prize, true, nil
}

type AssignmentView struct {
	Record    models.SpinRecord `json:"record"`
	UserName  string            `json:"user_name"`
	UserCode  string            `json:"user_code"`
	Prize     *models.Prize     `json:"prize"`
	PrizeName string            `json:"prize_name"`
	// Consumed is true once the user has spun with this assignment.
	Consumed bool `json:"consumed"`
}

func newAssignmentView(rec models.SpinRecord, user *models.User, prize *models.Prize) *AssignmentView {
	v := &AssignmentView{Record: rec, Prize: prize, PrizeName: prizeName(prize)}
	if user != nil {
		v.UserName = user.Name
		v.UserCode = user.Code
		v.Consumed = user.HasSpun
	}
	return v
}

// ListAssignments returns every assigned record, newest first.
func (s *SpinService) ListAssignments(ctx context.Context) ([]AssignmentView, error) {
	recs, err := s.store.ListSpinRecords(ctx, store.SpinFilter{AssignedOnly: true})
	if err != nil {
		return nil, err
	}
	return joinRecords(ctx, s.store, recs, func(rec models.SpinRecord, u *models.User, p *models.Prize) AssignmentView {
		return *newAssignmentView(rec, u, p)
	})
}

type HistoryEntry struct {
	Record     models.SpinRecord `json:"record"`
	UserName   string            `json:"user_name"`
	UserCode   string            `json:"user_code"`
	UserEmail  string            `json:"user_email"`
	PrizeName  string            `json:"prize_name"`
	PrizeColor string            `json:"prize_color,omitempty"`
	// Pending marks an assignment the user has not spun for yet.
	Pending bool `json:"pending"`
}

// History lists spin records newest first.
func (s *SpinService) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	recs, err := s.store.ListSpinRecords(ctx, store.SpinFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	return joinRecords(ctx, s.store, recs, func(rec models.SpinRecord, u *models.User, p *models.Prize) HistoryEntry {
		e := HistoryEntry{Record: rec, PrizeName: prizeName(p)}
		if p != nil {
			e.PrizeColor = p.Color
		}
		if u != nil {
			e.UserName = u.Name
			e.UserCode = u.Code
			e.UserEmail = u.Email
			e.Pending = !u.HasSpun
		}
		return e
	})
}

// joinRecords attaches users and prizes to records. Missing rows are passed
// to build as nil.
func joinRecords[T any](ctx context.Context, s store.Store, recs []models.SpinRecord, build func(models.SpinRecord, *models.User, *models.Prize) T) ([]T, error) {
	prizes, err := s.ListPrizes(ctx, false)
	if err != nil {
		return nil, err
	}
	prizeByID := make(map[string]*models.Prize, len(prizes))
	for i := range prizes {
		prizeByID[prizes[i].ID] = &prizes[i]
	}

	users := make(map[string]*models.User)
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		u, seen := users[rec.UserID]
		if !seen {
			found, err := s.FindUserByID(ctx, rec.UserID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			u = found
			users[rec.UserID] = u
		}
		out = append(out, build(rec, u, prizeByID[rec.PrizeID]))
	}
	return out, nil
}

type OutcomeKind string

const (
	OutcomePending  OutcomeKind = "pending"
	OutcomeAssigned OutcomeKind = "assigned"
	OutcomeWon      OutcomeKind = "won"
)

// SpinOutcome is the state of a user's single spin: Pending, Assigned(prize)
// or Won(prize, time).
type SpinOutcome struct {
	Kind      OutcomeKind   `json:"kind"`
	Prize     *models.Prize `json:"prize,omitempty"`
	PrizeName string        `json:"prize_name,omitempty"`
	SpinTime  *time.Time    `json:"spin_time,omitempty"`
}

func (s *SpinService) Outcome(ctx context.Context, user *models.User) (SpinOutcome, error) {
	if !user.HasSpun {
		live, err := s.store.FindLiveAssignment(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return SpinOutcome{Kind: OutcomePending}, nil
		}
		if err != nil {
			return SpinOutcome{}, err
		}
		prize, err := optionalPrize(ctx, s.store, live.PrizeID)
		if err != nil {
			return SpinOutcome{}, err
		}
		return SpinOutcome{Kind: OutcomeAssigned, Prize: prize, PrizeName: prizeName(prize)}, nil
	}

	recs, err := s.store.ListSpinRecords(ctx, store.SpinFilter{UserID: user.ID, Limit: 1})
	if err != nil {
		return SpinOutcome{}, err
	}
	out := SpinOutcome{Kind: OutcomeWon, PrizeName: UnknownPrizeName}
	if len(recs) == 0 {
		return out, nil
	}
	t := recs[0].SpinTime
	out.SpinTime = &t
	prize, err := optionalPrize(ctx, s.store, recs[0].PrizeID)
	if err != nil {
		return SpinOutcome{}, err
	}
	out.Prize = prize
	out.PrizeName = prizeName(prize)
	return out, nil
}

func markSpun(ctx context.Context, tx store.Store, user *models.User) error {
	flipped, err := tx.MarkSpun(ctx, user.ID)
	if err != nil {
		return err
	}
	if !flipped {
		return ErrAlreadySpun
	}
	user.HasSpun = true
	return nil
}

// optionalPrize loads a prize that may have been deleted since it was won.
func optionalPrize(ctx context.Context, s store.Store, id string) (*models.Prize, error) {
	p, err := s.FindPrizeByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func prizeName(p *models.Prize) string {
	if p == nil {
		return UnknownPrizeName
	}
	return p.Name
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
