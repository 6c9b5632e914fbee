//go:build e2e

package booking_test

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/e2e"
	"villa-booking/internal/handler/api"
	"villa-booking/internal/handler/dto/request"
	"villa-booking/internal/handler/dto/response"
	"villa-booking/internal/pkg/testutil/authtest"
	"villa-booking/internal/pkg/testutil/dbtest"
	"villa-booking/internal/pkg/testutil/httptest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type bookingSuite struct {
	e2e.SharedSuite

	hostToken, guestToken, otherToken, adminToken string
	guestID                                       uuid.UUID
	villaID, shedID                               uuid.UUID

	// monday is a Monday at least four weeks ahead; stays are built around it.
	monday time.Time
}

func TestBookingSuite(t *testing.T) {
	suite.Run(t, new(bookingSuite))
}

func (s *bookingSuite) SetupTest() {
	s.SharedSuite.SetupTest()
	t := s.T()

	hostID, hostToken := authtest.CreateAndLogin(t, s.DB, s.Router, "host@example.com", string(user.RoleHost))
	s.hostToken = hostToken
	s.guestID, s.guestToken = authtest.CreateAndLogin(t, s.DB, s.Router, "guest@example.com", string(user.RoleGuest))
	_, s.otherToken = authtest.CreateAndLogin(t, s.DB, s.Router, "other@example.com", string(user.RoleGuest))
	_, s.adminToken = authtest.CreateAndLogin(t, s.DB, s.Router, "admin@example.com", string(user.RoleAdmin))

	s.villaID = dbtest.CreateTestResource(t, s.DB, hostID, "Villa Azul", "rentable", dbtest.ResourceRates{Weekday: 100, Weekend: 150})
	s.shedID = dbtest.CreateTestResource(t, s.DB, hostID, "Garden Shed", "non_rentable", dbtest.ResourceRates{})

	d := booking.NormalizeDate(time.Now().UTC()).AddDate(0, 0, 28)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	s.monday = d
}

func (s *bookingSuite) day(offset int) string {
	return booking.FormatDate(s.monday.AddDate(0, 0, offset))
}

func (s *bookingSuite) bookingsURL(resourceID uuid.UUID) string {
	return "/api/resources/" + resourceID.String() + "/bookings"
}

func (s *bookingSuite) create(token string, resourceID uuid.UUID, from, to int, headers map[string]string) *httpResponse {
	body := request.CreateBookingRequest{RequesterName: "Ana Guest", From: s.day(from), To: s.day(to)}
	w := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, s.bookingsURL(resourceID), body, token, headers)
	return &httpResponse{Code: w.Code, Body: w.Body.Bytes(), Header: w.Header()}
}

func (s *bookingSuite) transition(token string, bookingID uuid.UUID, status string) int {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodPatch, "/api/bookings/"+bookingID.String()+"/status",
		request.UpdateBookingStatusRequest{Status: status}, token)
	return w.Code
}

func (s *bookingSuite) availability() map[string]string {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/resources/"+s.villaID.String()+"/availability", nil, "")
	var res response.AvailabilityResponse
	httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
	out := make(map[string]string, len(res.Days))
	for _, d := range res.Days {
		out[d.Date] = d.Status
	}
	return out
}

type httpResponse struct {
	Code   int
	Body   []byte
	Header http.Header
}

func (r *httpResponse) booking(t *testing.T) response.CreateBookingResponse {
	t.Helper()
	var res response.CreateBookingResponse
	require.NoError(t, json.Unmarshal(r.Body, &res), string(r.Body))
	return res
}

func (s *bookingSuite) TestQuote() {
	url := "/api/resources/" + s.villaID.String() + "/quote"

	s.Run("平日4泊", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, request.QuoteRequest{From: s.day(0), To: s.day(4)}, "")
		var res response.QuoteResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal(int64(400), res.TotalPrice)
		s.Equal(4, res.Nights)
	})

	s.Run("金土日は週末料金", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, request.QuoteRequest{From: s.day(4), To: s.day(7)}, "")
		var res response.QuoteResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal(int64(450), res.TotalPrice)
	})

	s.Run("存在しない日付は400", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, request.QuoteRequest{From: "2031-02-30", To: "2031-03-02"}, "")
		httptest.AssertErrorResponse(s.T(), w, http.StatusBadRequest, "Invalid date range")
	})

	s.Run("存在しないリソースは404", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/resources/"+uuid.NewString()+"/quote",
			request.QuoteRequest{From: s.day(0), To: s.day(1)}, "")
		httptest.AssertErrorResponse(s.T(), w, http.StatusNotFound, "Resource not found")
	})
}

func (s *bookingSuite) TestReservationLifecycle() {
	var first, second response.CreateBookingResponse

	s.Run("予約作成はpendingで201", func() {
		res := s.create(s.guestToken, s.villaID, 0, 4, nil)
		s.Require().Equal(http.StatusCreated, res.Code, string(res.Body))
		first = res.booking(s.T())
		s.Equal("pending", first.Booking.Status)
		s.Equal(int64(400), first.TotalPrice)
		s.Equal(s.guestID, first.Booking.RequesterID)
		s.Equal("/api/bookings/"+first.Booking.ID.String(), res.Header.Get("Location"))
	})

	s.Run("重なる期間は409で衝突日付を返す", func() {
		res := s.create(s.otherToken, s.villaID, 2, 5, nil)
		s.Require().Equal(http.StatusConflict, res.Code, string(res.Body))

		var body struct {
			Detail struct {
				ConflictFrom string `json:"conflictFrom"`
				ConflictTo   string `json:"conflictTo"`
			} `json:"detail"`
		}
		s.Require().NoError(json.Unmarshal(res.Body, &body))
		s.Equal(s.day(0), body.Detail.ConflictFrom)
		s.Equal(s.day(4), body.Detail.ConflictTo)
	})

	s.Run("チェックアウト日からの予約は可能", func() {
		res := s.create(s.otherToken, s.villaID, 4, 6, nil)
		s.Require().Equal(http.StatusCreated, res.Code, string(res.Body))
		second = res.booking(s.T())
		s.Equal(int64(300), second.TotalPrice)
	})

	s.Run("見積もりも衝突を検出する", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/resources/"+s.villaID.String()+"/quote",
			request.QuoteRequest{From: s.day(1), To: s.day(2)}, "")
		httptest.AssertErrorResponse(s.T(), w, http.StatusConflict, "already booked")
	})

	s.Run("空き状況にpendingが反映される", func() {
		days := s.availability()
		s.Equal("pending", days[s.day(0)])
		s.Equal("pending", days[s.day(5)])
		s.Equal("free", days[s.day(6)])
	})

	s.Run("ゲストは確定できない", func() {
		s.Equal(http.StatusForbidden, s.transition(s.guestToken, first.Booking.ID, "confirmed"))
	})

	s.Run("オーナーが確定するとconfirmedになる", func() {
		s.Equal(http.StatusOK, s.transition(s.hostToken, first.Booking.ID, "confirmed"))
		days := s.availability()
		s.Equal("confirmed", days[s.day(0)])
		s.Equal("confirmed", days[s.day(3)])
	})

	s.Run("管理者がキャンセルすると期間が空く", func() {
		s.Equal(http.StatusOK, s.transition(s.adminToken, first.Booking.ID, "cancelled"))
		s.Equal("free", s.availability()[s.day(1)])

		res := s.create(s.otherToken, s.villaID, 1, 3, nil)
		s.Equal(http.StatusCreated, res.Code, string(res.Body))
	})

	s.Run("キャンセル済みは再確定できない", func() {
		s.Equal(http.StatusBadRequest, s.transition(s.hostToken, first.Booking.ID, "confirmed"))
	})

	s.Run("オーナーは全ステータスをチェックイン順で取得できる", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, s.bookingsURL(s.villaID), nil, s.hostToken)
		var list []response.BookingResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &list)
		s.Require().Len(list, 3)
		s.Equal("cancelled", list[0].Status)
		s.Equal(s.day(1), list[1].From)
		s.Equal(second.Booking.ID, list[2].ID)
	})

	s.Run("ゲストは一覧を取得できない", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, s.bookingsURL(s.villaID), nil, s.guestToken)
		httptest.AssertErrorResponse(s.T(), w, http.StatusForbidden, "Forbidden")
	})

	s.Run("イベントがリレーされる", func() {
		s.Eventually(func() bool {
			return len(s.Publisher.Events()) == 5
		}, 5*time.Second, 50*time.Millisecond)
		s.Equal(0, dbtest.CountRows(s.T(), s.DB, "outbox_events", "status = 'queued'"))
	})
}

func (s *bookingSuite) TestRejections() {
	s.Run("貸出不可のリソースは422", func() {
		res := s.create(s.guestToken, s.shedID, 0, 2, nil)
		s.Equal(http.StatusUnprocessableEntity, res.Code, string(res.Body))
	})

	s.Run("過去日は400", func() {
		body := request.CreateBookingRequest{RequesterName: "Ana", From: "2020-01-01", To: "2020-01-03"}
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, s.bookingsURL(s.villaID), body, s.guestToken)
		httptest.AssertErrorResponse(s.T(), w, http.StatusBadRequest, "Invalid date range")
	})

	s.Run("他人名義の予約は403", func() {
		other := uuid.New()
		body := request.CreateBookingRequest{RequesterID: &other, RequesterName: "Ana", From: s.day(0), To: s.day(1)}
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, s.bookingsURL(s.villaID), body, s.guestToken)
		httptest.AssertErrorResponse(s.T(), w, http.StatusForbidden, "Forbidden")
	})

	s.Run("存在しない利用者名義の代理予約は400", func() {
		ghost := uuid.New()
		body := request.CreateBookingRequest{RequesterID: &ghost, RequesterName: "Ana", From: s.day(0), To: s.day(1)}
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, s.bookingsURL(s.villaID), body, s.adminToken)
		httptest.AssertErrorResponse(s.T(), w, http.StatusBadRequest, "Invalid request")
	})

	s.Run("トークンなしは401", func() {
		res := s.create("", s.villaID, 0, 1, nil)
		s.Equal(http.StatusUnauthorized, res.Code)
	})

	s.Run("不正なトークンは401", func() {
		res := s.create("not-a-jwt", s.villaID, 0, 1, nil)
		s.Equal(http.StatusUnauthorized, res.Code)
	})

	s.Equal(0, dbtest.CountRows(s.T(), s.DB, "bookings", ""))
}

func (s *bookingSuite) TestIdempotentCreate() {
	key := uuid.NewString()
	headers := map[string]string{api.IdempotencyKeyHeader: key}

	first := s.create(s.guestToken, s.villaID, 0, 2, headers)
	s.Require().Equal(http.StatusCreated, first.Code, string(first.Body))
	s.Empty(first.Header.Get(api.IdempotentReplayedHeader))

	s.Run("同じキーと本文は元の予約を返す", func() {
		replay := s.create(s.guestToken, s.villaID, 0, 2, headers)
		s.Require().Equal(http.StatusCreated, replay.Code, string(replay.Body))
		s.Equal("true", replay.Header.Get(api.IdempotentReplayedHeader))
		s.Equal(first.booking(s.T()).Booking.ID, replay.booking(s.T()).Booking.ID)
	})

	s.Run("同じキーで別の本文は422", func() {
		res := s.create(s.guestToken, s.villaID, 3, 5, headers)
		s.Equal(http.StatusUnprocessableEntity, res.Code, string(res.Body))
	})

	s.Run("キーは利用者ごとに独立", func() {
		res := s.create(s.otherToken, s.villaID, 3, 5, headers)
		s.Equal(http.StatusCreated, res.Code, string(res.Body))
	})

	s.Equal(2, dbtest.CountRows(s.T(), s.DB, "bookings", ""))
}

func (s *bookingSuite) TestConcurrentReservations() {
	const n = 20

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	start := make(chan struct{})
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res := s.create(s.guestToken, s.villaID, 0, 3, nil)
			mu.Lock()
			codes[res.Code]++
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(map[int]int{http.StatusCreated: 1, http.StatusConflict: n - 1}, codes)
	s.Equal(1, dbtest.CountRows(s.T(), s.DB, "bookings", "resource_id = $1 AND status <> 'cancelled'", s.villaID))
}

func (s *bookingSuite) TestMetricsEndpoint() {
	s.create(s.guestToken, s.villaID, 0, 1, nil)

	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/metrics", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `booking_reservations_total{result="created"}`)
	s.Contains(w.Body.String(), "booking_http_request_duration_seconds")
}
