package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hospitalops/etrack-api/internal/model"
)

// ActorKey is the context key the auth middleware stores the caller
// identity under.
const ActorKey = "actor"

// ActorFromContext returns the authenticated actor, or false when the
// route was reached without passing the auth middleware.
func ActorFromContext(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
