package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/actorcontext"
)

const (
	HeaderActor       = "X-Actor-ID"
	contextVillageKey = "village_id"
)

// ActorContext carries the collector id set by the upstream auth layer into the request context.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderActor))
		if raw == "" {
			c.Next()
			return
		}
		actorID, err := snowflake.ParseString(raw)
		if err != nil || actorID == 0 {
			AbortWithError(c, newValidationError("actor_id", "invalid_actor_id", "invalid actor id"))
			return
		}
		c.Request = c.Request.WithContext(actorcontext.WithActorID(c.Request.Context(), actorID))
		c.Next()
	}
}

// VillageContext resolves :village_id and rejects unknown villages.
func (s *Server) VillageContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		villageID, err := uuid.Parse(strings.TrimSpace(c.Param("village_id")))
		if err != nil {
			AbortWithError(c, newValidationError("village_id", "invalid_village_id", "invalid village id"))
			return
		}
		if _, err := s.villageSvc.Get(c.Request.Context(), villageID); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(contextVillageKey, villageID)
		c.Next()
	}
}

func villageFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(contextVillageKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func pathID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
