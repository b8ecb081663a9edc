package logic

import (
	"context"
	"encoding/json"

	"github.com/zeromicro/go-zero/core/logx"

	"gridserver/internal/svc"
	"gridserver/internal/types"
)

type UIDataLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUIDataLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UIDataLogic {
	return &UIDataLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// UIData serves the UI snapshot cache when the engine hasn't advanced past
// the cached last_update_ts, and rebuilds it otherwise.
func (l *UIDataLogic) UIData() (*types.UIDataResponse, error) {
	snap := l.svcCtx.Engine.Snapshot()

	if cached, ok := l.svcCtx.UICache.Get(snap.LastUpdateTS); ok {
		var resp types.UIDataResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
	}

	resp := &types.UIDataResponse{
		Settings: snap.Settings,
		Runtime:  snap.Runtime,
		Market: types.UIMarket{
			History: snap.PriceHistory,
			Current: snap.Runtime.CurrentMid,
		},
		LastUpdate: snap.LastUpdateTS,
	}

	if encoded, err := json.Marshal(resp); err == nil {
		l.svcCtx.UICache.Set(snap.LastUpdateTS, encoded)
	}

	return resp, nil
}
