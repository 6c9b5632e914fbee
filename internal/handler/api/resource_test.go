//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/handler/api"
	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/testutil"
	"villa-booking/internal/pkg/testutil/httptest"
	queriesmock "villa-booking/internal/pkg/testutil/mock/queries"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ResourceHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockBookingQueries
	resourceID  uuid.UUID
}

func (s *ResourceHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	h := api.NewResourceHandler(s.mockQueries)
	s.resourceID = uuid.New()

	s.router.GET("/resources/:id", h.Get)
	s.router.POST("/resources/:id/quote", h.Quote)
	s.router.GET("/resources/:id/availability", h.Availability)
}

func (s *ResourceHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestResourceHandlerSuite(t *testing.T) {
	suite.Run(t, new(ResourceHandlerTestSuite))
}

func (s *ResourceHandlerTestSuite) TestGet() {
	url := "/resources/" + s.resourceID.String()

	s.Run("success: returns the resource with rates", func() {
		s.mockQueries.EXPECT().GetResource(gomock.Any(), s.resourceID).
			Return(&queries.ResourceView{
				ID:          s.resourceID,
				Name:        "Villa Azul",
				Kind:        "rentable",
				WeekdayRate: 100,
				WeekendRate: 150,
				OwnerID:     testActorID,
				CreatedAt:   created,
				UpdatedAt:   created,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")

		var body resdto.ResourceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("Villa Azul", body.Name)
		s.Equal(int64(100), body.WeekdayRate)
		s.Equal(int64(150), body.WeekendRate)
		s.Equal(testActorID, body.OwnerID)
	})

	s.Run("error: 404 for unknown resource", func() {
		s.mockQueries.EXPECT().GetResource(gomock.Any(), s.resourceID).
			Return(nil, errs.Mark(errors.New("no rows"), errs.ErrResourceNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Resource not found")
	})

	s.Run("error: 400 for malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/resources/villa-1", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})
}

func (s *ResourceHandlerTestSuite) TestQuote() {
	url := "/resources/" + s.resourceID.String() + "/quote"
	reqBody := reqdto.QuoteRequest{From: "2024-07-01", To: "2024-07-05"}

	s.Run("success: returns price and nights", func() {
		s.mockQueries.EXPECT().Quote(gomock.Any(), s.resourceID, "2024-07-01", "2024-07-05").
			Return(&queries.QuoteView{
				ResourceID: s.resourceID,
				From:       day("2024-07-01"),
				To:         day("2024-07-05"),
				Nights:     4,
				TotalPrice: 400,
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var body resdto.QuoteResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		want := resdto.QuoteResponse{TotalPrice: 400, Nights: 4, From: "2024-07-01", To: "2024-07-05"}
		if diff := cmp.Diff(want, body); diff != "" {
			s.Failf("quote mismatch", "(-want +got):\n%s", diff)
		}
	})

	s.Run("error: 400 when a date is missing", func() {
		for _, field := range []string{"from", "to"} {
			s.Run(field, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
					testutil.DtoMap(s.T(), reqBody, testutil.Field(field, nil)), "")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 409 names the conflicting booking dates", func() {
		stay, err := booking.ParseDateRange("2024-07-03", "2024-07-08")
		s.Require().NoError(err)
		s.mockQueries.EXPECT().Quote(gomock.Any(), s.resourceID, gomock.Any(), gomock.Any()).
			Return(nil, shared.NewConflictError(uuid.New(), stay)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "already booked")
		httptest.AssertConflictDetail(s.T(), rec, "2024-07-03", "2024-07-08")
	})

	s.Run("error: 400 for invalid date range", func() {
		s.mockQueries.EXPECT().Quote(gomock.Any(), s.resourceID, gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(booking.ErrInvalidDateRange, errs.ErrInvalidDateRange)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			reqdto.QuoteRequest{From: "2024-07-05", To: "2024-07-01"}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid date range")
	})
}

func (s *ResourceHandlerTestSuite) TestAvailability() {
	url := "/resources/" + s.resourceID.String() + "/availability"

	s.Run("success: renders one entry per day", func() {
		s.mockQueries.EXPECT().Availability(gomock.Any(), s.resourceID).
			Return(&queries.AvailabilityView{
				ResourceID: s.resourceID,
				Today:      day("2024-06-02"),
				Days: []queries.DayView{
					{Date: day("2024-06-01"), Status: string(booking.DayPast)},
					{Date: day("2024-06-02"), Status: "confirmed"},
					{Date: day("2024-06-03"), Status: string(booking.DayFree)},
				},
			}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")

		var body resdto.AvailabilityResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		want := resdto.AvailabilityResponse{
			ResourceID: s.resourceID,
			Today:      "2024-06-02",
			Days: []resdto.DayResponse{
				{Date: "2024-06-01", Status: "past"},
				{Date: "2024-06-02", Status: "confirmed"},
				{Date: "2024-06-03", Status: "free"},
			},
		}
		if diff := cmp.Diff(want, body); diff != "" {
			s.Failf("availability mismatch", "(-want +got):\n%s", diff)
		}
	})

	s.Run("error: 404 for unknown resource", func() {
		s.mockQueries.EXPECT().Availability(gomock.Any(), s.resourceID).
			Return(nil, errs.Mark(errors.New("no rows"), errs.ErrResourceNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Resource not found")
	})
}
