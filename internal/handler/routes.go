package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"gridserver/internal/svc"
)

// RegisterHandlers wires every route this service exposes onto server.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/api/tick",
			Handler: tickHandler(svcCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/api/update-settings",
			Handler: updateSettingsHandler(svcCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/api/control",
			Handler: controlHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/ui-data",
			Handler: uiDataHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/health",
			Handler: healthHandler(svcCtx),
		},
	})
}
