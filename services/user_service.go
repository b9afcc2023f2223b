package services

import (
	"context"
	"errors"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/metrics"
	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

type RegisterInput struct {
	Name  string
	Email string
	Phone string
	IP    string
}

type registration struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=191"`
	Phone string `json:"phone" validate:"required,phone"`
}

type UserOptions struct {
	Codes    CodeGenerator
	OnePerIP bool
	Logger   *zap.Logger
	Events   EventPublisher
}

type UserService struct {
	store    store.Store
	codes    CodeGenerator
	onePerIP bool
	log      *zap.Logger
	events   EventPublisher
}

func NewUserService(s store.Store, opts UserOptions) *UserService {
	svc := &UserService{store: s, codes: opts.Codes, onePerIP: opts.OnePerIP, log: opts.Logger, events: opts.Events}
	if svc.log == nil {
		svc.log = zap.NewNop()
	}
	if svc.events == nil {
		svc.events = nopPublisher{}
	}
	return svc
}

// Register creates an attendee and issues their unique code.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	reg := registration{
		Name:  utils.SanitizeText(in.Name),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Phone: strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", ""),
	}
	if err := utils.ValidateStruct(reg); err != nil {
		return nil, asValidation(err)
	}

	if _, err := s.store.FindUserByEmail(ctx, reg.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	ip := NormalizeIP(in.IP)
	if s.onePerIP && ip != "" {
		if _, err := s.store.FindUserByIP(ctx, ip); err == nil {
			return nil, ErrIPAlreadyRegistered
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	var created *models.User
	_, err := s.codes.Generate(ctx, func(ctx context.Context, code string) (bool, error) {
		taken, err := s.store.CodeExists(ctx, code)
		if err != nil || taken {
			return taken, err
		}
		u := &models.User{Name: reg.Name, Email: reg.Email, Phone: reg.Phone, Code: code, IPAddress: ip}
		err = s.store.CreateUser(ctx, u)
		switch {
		case err == nil:
			created = u
			return false, nil
		case errors.Is(err, store.ErrDuplicate):
			if _, ferr := s.store.FindUserByEmail(ctx, reg.Email); ferr == nil {
				return false, ErrEmailTaken
			}
			return true, nil
		default:
			return false, err
		}
	})
	if err != nil {
		if errors.Is(err, ErrCodeSpaceExhausted) {
			s.log.Error("registration code space exhausted", zap.Error(err))
		}
		return nil, err
	}

	metrics.Registrations.Inc()
	s.log.Info("user registered", zap.String("user_id", created.ID), zap.String("code", created.Code))
	s.events.Publish(EventUserRegistered, map[string]any{
		"user_id": created.ID,
		"name":    created.Name,
		"code":    created.Code,
	})
	return created, nil
}

// LookupByCode finds a user by code, ignoring case and surrounding space.
func (s *UserService) LookupByCode(ctx context.Context, code string) (*models.User, error) {
	code = utils.NormalizeCode(code)
	if code == "" {
		return nil, invalid("code", "required")
	}
	u, err := s.store.FindUserByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) List(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	return s.store.ListUsers(ctx, f)
}

// BulkDelete removes users together with their spin records.
func (s *UserService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	ids = compactIDs(ids)
	if len(ids) == 0 {
		return 0, invalid("user_ids", "required")
	}
	var n int64
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		n, err = tx.DeleteUsers(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("users deleted", zap.Int64("count", n))
	return n, nil
}

// NormalizeIP strips ports and maps loopback forms to 127.0.0.1.
func NormalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return raw
	}
	if ip.IsLoopback() {
		return "127.0.0.1"
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

func asValidation(err error) error {
	var fe utils.FieldError
	if errors.As(err, &fe) {
		return invalid(fe.Field, fe.Tag)
	}
	return invalid("body", err.Error())
}

func compactIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
