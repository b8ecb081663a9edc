package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"gridserver/internal/logic"
	"gridserver/internal/svc"
	"gridserver/internal/types"
)

// tickHandler parses the tick body itself rather than via httpx.Parse: the
// body is tolerant of trailing NULs and garbage after the final '}' (the
// terminal agent pads fixed-size socket frames), so it's stripped to the
// last '}' before unmarshalling. A malformed body never mutates state —
// it's logged and answered with a plain WAIT, per the Parse error kind.
func tickHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			logx.Errorf("tick: read body: %v", err)
			httpx.OkJson(w, types.TickResponse{Action: "WAIT"})
			return
		}

		trimmed := trimToLastBrace(raw)

		var req types.TickRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			logx.Errorf("tick: malformed body: %v", err)
			httpx.OkJson(w, types.TickResponse{Action: "WAIT"})
			return
		}

		l := logic.NewTickLogic(r.Context(), svcCtx)
		resp, err := l.Tick(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

// trimToLastBrace drops everything after the final '}' in buf, leaving
// buf untouched when it contains none.
func trimToLastBrace(buf []byte) []byte {
	if idx := bytes.LastIndexByte(buf, '}'); idx >= 0 {
		return buf[:idx+1]
	}
	return buf
}
