package service

import (
	"context"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type dashboardRepository interface {
	CountClientes(ctx context.Context, tenantID string) (total int64, ativos int64, err error)
}

// DashboardService agrega os KPIs de clientes por tenant, com um cache curto
// em memória para aliviar os counts em painéis abertos.
type DashboardService struct {
	repo  dashboardRepository
	cache *gocache.Cache
}

// NewDashboardService cria novo serviço.
func NewDashboardService(r dashboardRepository) *DashboardService {
	return &DashboardService{
		repo:  r,
		cache: gocache.New(30*time.Second, time.Minute),
	}
}

// KPIs é o payload do painel.
type KPIs struct {
	TotalClientes            int64   `json:"totalClientes"`
	TotalClientesAtivos      int64   `json:"totalClientesAtivos"`
	TotalClientesInativos    int64   `json:"totalClientesInativos"`
	PercentualClientesAtivos float64 `json:"percentualClientesAtivos"`
}

// Calcular devolve os KPIs do tenant. Tenant sem clientes devolve percentual
// zero, nunca divisão por zero.
func (s *DashboardService) Calcular(ctx context.Context, tenantID string) (*KPIs, error) {
	if cached, ok := s.cache.Get(tenantID); ok {
		kpis := cached.(KPIs)
		return &kpis, nil
	}

	total, ativos, err := s.repo.CountClientes(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	percentual := 0.0
	if total > 0 {
		percentual = math.Round(float64(ativos)/float64(total)*100*100) / 100
	}

	kpis := KPIs{
		TotalClientes:            total,
		TotalClientesAtivos:      ativos,
		TotalClientesInativos:    total - ativos,
		PercentualClientesAtivos: percentual,
	}

	s.cache.Set(tenantID, kpis, gocache.DefaultExpiration)
	return &kpis, nil
}
