package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"gridserver/internal/logic"
	"gridserver/internal/svc"
	"gridserver/internal/types"
)

func controlHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ControlRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewControlLogic(r.Context(), svcCtx)
		resp, err := l.Control(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
