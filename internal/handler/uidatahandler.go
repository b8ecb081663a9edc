package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"gridserver/internal/logic"
	"gridserver/internal/svc"
)

func uiDataHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewUIDataLogic(r.Context(), svcCtx)
		resp, err := l.UIData()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
