package controllers

import (
	"drivebox/pkg/ctx"
	"drivebox/pkg/middleware"
	"drivebox/pkg/ws"
)

type WSController struct {
	hub *ws.Hub
}

func NewWSController(hub *ws.Hub) *WSController {
	return &WSController{hub: hub}
}

// Connect upgrades an authenticated request to a websocket that receives
// this user's tree-change events.
func (wc *WSController) Connect(c *ctx.Context) {
	userID := middleware.UserIDFromCtx(c.Context())
	if userID == 0 {
		c.Unauthorized()
		return
	}
	ws.Upgrade(c.W, c.R, wc.hub, userID)
}
