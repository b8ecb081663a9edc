package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"gridserver/internal/svc"
	"gridserver/internal/types"
	"gridserver/pkg/gridengine"
)

type UpdateSettingsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUpdateSettingsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateSettingsLogic {
	return &UpdateSettingsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UpdateSettingsLogic) UpdateSettings(req *types.UpdateSettingsRequest) (*types.UpdateSettingsResponse, error) {
	incoming := gridengine.UserSettings{
		Buy:  toSideSettings(req.Buy),
		Sell: toSideSettings(req.Sell),
	}

	if err := l.svcCtx.Engine.ApplySettingsUpdate(incoming); err != nil {
		return &types.UpdateSettingsResponse{OK: false, Error: err.Error()}, nil
	}
	return &types.UpdateSettingsResponse{OK: true}, nil
}

func toSideSettings(req types.SideSettingsRequest) gridengine.SideSettings {
	return gridengine.SideSettings{
		LimitPrice: req.LimitPrice,
		TPType:     gridengine.TPType(req.TPType),
		TPValue:    req.TPValue,
		HedgeValue: req.HedgeValue,
		Rows:       req.Rows,
	}
}
