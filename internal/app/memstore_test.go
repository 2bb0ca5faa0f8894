package app

import (
	"context"
	"sort"
	"sync"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/donations"
	"github.com/bissquit/blood-donation/internal/identity"
	"github.com/google/uuid"
)

// memUsers is an in-memory identity.Repository.
type memUsers struct {
	mu    sync.Mutex
	users []*domain.User
}

func (m *memUsers) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return identity.ErrEmailExists
		}
	}
	user.ID = uuid.NewString()
	stored := *user
	m.users = append(m.users, &stored)
	return nil
}

func (m *memUsers) FindUser(_ context.Context, f identity.UserFilter) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if userMatches(u, f) {
			found := *u
			return &found, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *memUsers) ListUsers(_ context.Context, f identity.UserFilter) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0)
	for _, u := range m.users {
		if userMatches(u, f) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateUser(_ context.Context, id string, patch domain.UserPatch) (domain.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			patch.Apply(u)
			return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.UpdateResult{Acknowledged: true}, nil
}

func (m *memUsers) CountUsers(_ context.Context, f identity.UserFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if userMatches(u, f) {
			n++
		}
	}
	return n, nil
}

func userMatches(u *domain.User, f identity.UserFilter) bool {
	return (f.Email == "" || u.Email == f.Email) &&
		(f.Role == "" || u.Role == f.Role) &&
		(f.Status == "" || u.Status == f.Status)
}

// memDonationRequests is an in-memory donations.Repository.
type memDonationRequests struct {
	mu       sync.Mutex
	requests []*domain.DonationRequest
}

func (m *memDonationRequests) CreateDonationRequest(_ context.Context, req *domain.DonationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = uuid.NewString()
	stored := *req
	m.requests = append(m.requests, &stored)
	return nil
}

func (m *memDonationRequests) GetDonationRequest(_ context.Context, id string) (*domain.DonationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			found := *r
			return &found, nil
		}
	}
	return nil, donations.ErrDonationRequestNotFound
}

func (m *memDonationRequests) ListDonationRequests(_ context.Context, f donations.ListFilter) ([]domain.DonationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DonationRequest, 0)
	for _, r := range m.requests {
		if f.RequesterEmail == "" || r.RequesterEmail == f.RequesterEmail {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && uint64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memDonationRequests) UpdateDonationRequest(_ context.Context, id string, patch domain.DonationRequestPatch) (domain.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.ID == id {
			patch.Apply(r)
			return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.UpdateResult{Acknowledged: true}, nil
}

func (m *memDonationRequests) DeleteDonationRequest(_ context.Context, id string) (domain.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.requests {
		if r.ID == id {
			m.requests = append(m.requests[:i], m.requests[i+1:]...)
			return domain.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return domain.DeleteResult{Acknowledged: true}, nil
}

func (m *memDonationRequests) CountDonationRequests(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.requests)), nil
}

// memFundings is an in-memory fundings.Repository.
type memFundings struct {
	mu       sync.Mutex
	fundings []*domain.Funding
}

func (m *memFundings) CreateFunding(_ context.Context, f *domain.Funding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.NewString()
	stored := *f
	m.fundings = append(m.fundings, &stored)
	return nil
}

func (m *memFundings) ListFundings(_ context.Context) ([]domain.Funding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Funding, 0, len(m.fundings))
	for _, f := range m.fundings {
		out = append(out, *f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FundingDate.After(out[j].FundingDate) })
	return out, nil
}

func (m *memFundings) SumFundingAmounts(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, f := range m.fundings {
		if amount, ok := f.Amount(); ok {
			total += amount
		}
	}
	return total, nil
}
