package handlers

import (
	"strconv"

	"fooddash/internal/middleware"
	"fooddash/internal/models"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentActor writes a 401 and returns false when the request carries no
// authenticated caller.
func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return models.Actor{}, false
	}
	return actor, true
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := validators.ParseObjectID(c.Param(name))
	if err != nil {
		utils.HandleError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func optionalQueryID(c *gin.Context, name string) (*primitive.ObjectID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := validators.ParseObjectID(raw)
	if err != nil {
		utils.HandleError(c, err)
		return nil, false
	}
	return &id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func rejectInvalid(c *gin.Context, errs validators.ValidationErrors) bool {
	if err := errs.AsError(); err != nil {
		utils.HandleError(c, err)
		return true
	}
	return false
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}

// geoPoint reads GeoJSON order, [longitude, latitude].
func geoPoint(coords []float64) models.GeoPoint {
	if len(coords) != 2 {
		return models.GeoPoint{}
	}
	return models.NewGeoPoint(coords[1], coords[0])
}

// currentActorIfAny reads the caller on routes where authentication is
// optional.
func currentActorIfAny(c *gin.Context) (models.Actor, bool) {
	return middleware.ActorFrom(c)
}
