package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"gridserver/internal/svc"
	"gridserver/internal/types"
)

// version is reported verbatim in GET /api/health.
const version = "1.0.0"

type HealthLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHealthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthLogic {
	return &HealthLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *HealthLogic) Health() (*types.HealthResponse, error) {
	h := l.svcCtx.Engine.Health()
	return &types.HealthResponse{
		Status:  h.Status,
		Error:   h.Error,
		Version: version,
		Buy:     h.Buy,
		Sell:    h.Sell,
		Price:   h.Price,
		Ledger:  l.svcCtx.LedgerStatus(),
		Cache:   "in-process",
	}, nil
}
