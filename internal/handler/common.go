package handler

import (
	"github.com/labstack/echo/v4"
)

// userID returns the authenticated caller's id set by the JWT
// middleware, or "" when the request is unauthenticated.
func userID(c echo.Context) string {
	uid, _ := c.Get("user_id").(string)
	return uid
}
