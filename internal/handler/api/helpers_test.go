//go:build unit

package api_test

import (
	"net/http"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	testActorID = uuid.MustParse("6f0b8a52-3d1c-4c9e-9b8f-2f4a1f6e7d01")
	created     = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
)

// fakeAuth stands in for RequireAuth: any bearer token authenticates as
// testActorID with the role given in X-Test-Role (guest by default).
func fakeAuth(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
		return
	}
	role := user.RoleGuest
	if r := c.GetHeader("X-Test-Role"); r != "" {
		role = user.Role(r)
	}
	c.Set("user_id", testActorID)
	c.Set("user_role", role)
	c.Next()
}

func bookingView(resourceID uuid.UUID, from, to time.Time, status string) queries.BookingView {
	return queries.BookingView{
		ID:            uuid.New(),
		ResourceID:    resourceID,
		RequesterID:   testActorID,
		RequesterName: "Ana Guest",
		From:          from,
		To:            to,
		Nights:        int(to.Sub(from).Hours() / 24),
		TotalPrice:    400,
		Status:        status,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
