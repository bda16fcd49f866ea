package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"votacao/internal/agenda/models"
	"votacao/internal/agenda/store"
	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
	"votacao/pkg/platform/clock"
	"votacao/pkg/platform/resilience"
	"votacao/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	clock   *clock.Manual
	store   *store.InMemoryStore
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = clock.NewManual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s.store = store.NewInMemory()
	svc, err := New(s.store,
		WithClock(s.clock),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCreate() {
	s.Run("stores agenda stamped by the clock", func() {
		a, err := s.service.Create(s.ctx, "Budget 2025", "yearly budget")
		s.Require().NoError(err)
		s.Equal(s.clock.Now(), a.CreatedAt)

		found, err := s.service.Get(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("Budget 2025", found.Title)
	})

	s.Run("blank title is a validation error", func() {
		_, err := s.service.Create(s.ctx, " ", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestGetMissing() {
	_, err := s.service.Get(s.ctx, id.NewAgendaID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListEmptyIsNotNil() {
	list, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)
}

type failingStore struct{ err error }

func (f failingStore) Create(context.Context, *models.Agenda) error { return f.err }
func (f failingStore) FindByID(context.Context, id.AgendaID) (*models.Agenda, error) {
	return nil, f.err
}
func (f failingStore) List(context.Context) ([]*models.Agenda, error) { return nil, f.err }

func (s *ServiceSuite) TestStoreFailuresMapToBackoffKinds() {
	cases := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"unavailable", resilience.SurfaceStorage(errors.New("dial tcp: refused")), dErrors.CodeUnavailable},
		{"rejected", resilience.ErrRejected, dErrors.CodeRejected},
		{"internal", errors.New("bug"), dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			svc, err := New(failingStore{err: tc.err})
			s.Require().NoError(err)

			_, err = svc.Create(s.ctx, "Budget", "")
			s.True(dErrors.HasCode(err, tc.code))
			_, err = svc.Get(s.ctx, id.NewAgendaID())
			s.True(dErrors.HasCode(err, tc.code))
			s.False(errors.Is(err, sentinel.ErrNotFound))
		})
	}
}
