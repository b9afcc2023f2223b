package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

type PrizeInput struct {
	Name        string
	Description string
	Color       string
	Probability float64
	// IsActive defaults to true when nil.
	IsActive *bool
	// Position defaults to the end of the wheel on create and is kept on update.
	Position *int
}

type prizeFields struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=255"`
	Color       string  `json:"color" validate:"required,hexcolor6"`
	Probability float64 `json:"probability" validate:"gte=0,lte=100"`
}

// PrizeView adds the effective chance and win count to a prize.
type PrizeView struct {
	models.Prize
	Chance    float64 `json:"chance"`
	TotalWins int64   `json:"total_wins"`
}

type PrizeService struct {
	store store.Store
	log   *zap.Logger
}

func NewPrizeService(s store.Store, log *zap.Logger) *PrizeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PrizeService{store: s, log: log}
}

func (in PrizeInput) validate() (prizeFields, error) {
	f := prizeFields{
		Name:        utils.SanitizeText(in.Name),
		Description: utils.SanitizeText(in.Description),
		Color:       strings.ToUpper(strings.TrimSpace(in.Color)),
		Probability: in.Probability,
	}
	if err := utils.ValidateStruct(f); err != nil {
		return f, asValidation(err)
	}
	if in.Position != nil && *in.Position < 0 {
		return f, invalid("position", "gte")
	}
	return f, nil
}

func (s *PrizeService) Create(ctx context.Context, in PrizeInput) (*models.Prize, error) {
	f, err := in.validate()
	if err != nil {
		return nil, err
	}
	p := &models.Prize{
		Name:        f.Name,
		Description: f.Description,
		Color:       f.Color,
		Probability: f.Probability,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if in.Position != nil {
			p.Position = *in.Position
		} else {
			existing, err := tx.ListPrizes(ctx, false)
			if err != nil {
				return err
			}
			for _, e := range existing {
				if e.Position >= p.Position {
					p.Position = e.Position + 1
				}
			}
		}
		return tx.CreatePrize(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("prize created", zap.String("prize_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *PrizeService) Update(ctx context.Context, id string, in PrizeInput) (*models.Prize, error) {
	f, err := in.validate()
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindPrizeByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}
	p.Name = f.Name
	p.Description = f.Description
	p.Color = f.Color
	p.Probability = f.Probability
	p.IsActive = in.IsActive == nil || *in.IsActive
	if in.Position != nil {
		p.Position = *in.Position
	}
	if err := s.store.UpdatePrize(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}
	s.log.Info("prize updated", zap.String("prize_id", p.ID))
	return p, nil
}

// Delete removes one prize. Spin records that reference it are kept.
func (s *PrizeService) Delete(ctx context.Context, id string) error {
	n, err := s.store.DeletePrizes(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPrizeNotFound
	}
	s.log.Info("prize deleted", zap.String("prize_id", id))
	return nil
}

func (s *PrizeService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	ids = compactIDs(ids)
	if len(ids) == 0 {
		return 0, invalid("prize_ids", "required")
	}
	n, err := s.store.DeletePrizes(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info("prizes deleted", zap.Int64("count", n))
	return n, nil
}

// Active returns the prizes on the wheel, in display order.
func (s *PrizeService) Active(ctx context.Context) ([]models.Prize, error) {
	return s.store.ListPrizes(ctx, true)
}

// List returns prizes with their chance percentage among active prizes and
// the number of times each was won.
func (s *PrizeService) List(ctx context.Context, activeOnly bool) ([]PrizeView, error) {
	prizes, err := s.store.ListPrizes(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	wins, err := s.store.CountWinsByPrize(ctx)
	if err != nil {
		return nil, err
	}
	return buildPrizeViews(prizes, wins), nil
}

func buildPrizeViews(prizes []models.Prize, wins map[string]int64) []PrizeView {
	total := 0.0
	for _, p := range prizes {
		if p.IsActive && p.Probability > 0 {
			total += p.Probability
		}
	}
	views := make([]PrizeView, 0, len(prizes))
	for _, p := range prizes {
		chance := 0.0
		if p.IsActive && p.Probability > 0 && total > 0 {
			chance = p.Probability / total * 100
		}
		views = append(views, PrizeView{
			Prize:     p,
			Chance:    utils.RoundFloat(chance, 2),
			TotalWins: wins[p.ID],
		})
	}
	return views
}

// DefaultPrizes is the catalog installed by SetupDefaults.
var DefaultPrizes = []models.Prize{
	{Name: "Mystery Box", Description: "Kotak misteri dengan hadiah kejutan", Color: "#FF6B6B", Probability: 10},
	{Name: "Voucher 50K", Description: "Voucher belanja senilai Rp 50.000", Color: "#4ECDC4", Probability: 15},
	{Name: "Merchandise", Description: "Merchandise eksklusif brand", Color: "#45B7D1", Probability: 20},
	{Name: "Voucher 100K", Description: "Voucher belanja senilai Rp 100.000", Color: "#96CEB4", Probability: 10},
	{Name: "Grand Prize", Description: "Hadiah utama spesial", Color: "#FFEAA7", Probability: 5},
	{Name: "Thank You", Description: "Terima kasih telah berpartisipasi", Color: "#DDA0DD", Probability: 25},
	{Name: "Voucher 25K", Description: "Voucher belanja senilai Rp 25.000", Color: "#98D8C8", Probability: 10},
	{Name: "Special Gift", Description: "Hadiah spesial dari brand", Color: "#FFB6C1", Probability: 5},
}

// SetupDefaults installs DefaultPrizes when the catalog is empty. It reports
// whether anything was created.
func (s *PrizeService) SetupDefaults(ctx context.Context) ([]models.Prize, bool, error) {
	created := false
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		count, err := tx.CountPrizes(ctx)
		if err != nil || count > 0 {
			return err
		}
		for i, d := range DefaultPrizes {
			p := d
			p.IsActive = true
			p.Position = i
			if err := tx.CreatePrize(ctx, &p); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	prizes, err := s.store.ListPrizes(ctx, false)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("default prizes installed", zap.Int("count", len(prizes)))
	}
	return prizes, created, nil
}
