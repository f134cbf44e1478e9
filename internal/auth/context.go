package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetActor returns the authenticated actor. ok is false when the request
// did not pass through AuthRequired.
func GetActor(c *gin.Context) (Actor, bool) {
	id := c.GetString(ctxUserID)
	role, _ := c.Get(ctxRole)
	r, _ := role.(Role)
	if id == "" || !r.Valid() {
		return Actor{}, false
	}
	return Actor{ID: id, Role: r}, true
}

// SetActor stores the actor on the gin context.
func SetActor(c *gin.Context, a Actor) {
	c.Set(ctxUserID, a.ID)
	c.Set(ctxRole, a.Role)
}
