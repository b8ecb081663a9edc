package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"gridserver/internal/svc"
	"gridserver/internal/types"
	"gridserver/pkg/gridengine"
)

type ControlLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewControlLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ControlLogic {
	return &ControlLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ControlLogic) Control(req *types.ControlRequest) (*types.ControlResponse, error) {
	err := l.svcCtx.Engine.ApplyControl(gridengine.ControlRequest{
		BuySwitch:      req.BuySwitch,
		SellSwitch:     req.SellSwitch,
		Cyclic:         req.Cyclic,
		EmergencyClose: req.EmergencyClose,
	})
	if err != nil {
		return &types.ControlResponse{OK: false, Error: err.Error()}, nil
	}
	return &types.ControlResponse{OK: true}, nil
}
