package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"gridserver/internal/svc"
	"gridserver/internal/types"
	"gridserver/pkg/gridengine"
)

type TickLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewTickLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TickLogic {
	return &TickLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Tick folds one polling request through the engine. A malformed body
// never reaches here — the handler's tolerant parse already produced a
// well-formed TickRequest or returned WAIT on its own.
func (l *TickLogic) Tick(req *types.TickRequest) (*types.TickResponse, error) {
	tick := gridengine.Tick{
		AccountID: req.AccountID,
		Equity:    req.Equity,
		Balance:   req.Balance,
		Symbol:    req.Symbol,
		Ask:       req.Ask,
		Bid:       req.Bid,
		Positions: req.Positions,
	}

	directive, err := l.svcCtx.Engine.Tick(tick)
	if err != nil {
		l.Errorf("tick: persist failed: %v", err)
	}
	l.svcCtx.UICache.Invalidate()

	// The engine's own I/O failure never blocks a response — the
	// directive it already computed is still returned; only the
	// degradation is logged.
	return &types.TickResponse{
		Action:  string(directive.Action),
		Volume:  directive.Volume,
		Comment: directive.Comment,
		Alert:   directive.Alert,
		Error:   directive.Error,
	}, nil
}
