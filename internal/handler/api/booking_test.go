//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"toolrental/internal/domain/user"
	"toolrental/internal/handler/api"
	resdto "toolrental/internal/handler/dto/response"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"
	"toolrental/tests/common/builder"
	"toolrental/tests/common/httptest"
	"toolrental/tests/common/testutil"
	commandsmock "toolrental/tests/mock/commands"
	queriesmock "toolrental/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// fakeAuth stands in for RequireAuth and authenticates every request
// carrying an Authorization header as actor.
func fakeAuth(actor *commands.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("user_id", actor.UserID)
		c.Set("user_role", actor.Role)
		c.Next()
	}
}

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
	bb           *builder.BookingBuilder
	actor        commands.Actor
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)

	s.bb = builder.NewBookingBuilder()
	s.actor = commands.Actor{UserID: s.bb.RenterID, Role: user.RoleRenter}

	auth := fakeAuth(&s.actor)
	s.router.POST("/bookings", auth, s.handler.Create)
	s.router.GET("/bookings", auth, s.handler.List)
	s.router.GET("/bookings/:id", auth, s.handler.Get)
	s.router.POST("/bookings/:id/confirm", auth, s.handler.Confirm)
	s.router.POST("/bookings/:id/cancel", auth, s.handler.Cancel)
	s.router.POST("/bookings/:id/pickup", auth, s.handler.Pickup)
	s.router.POST("/bookings/:id/return", auth, s.handler.Return)
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

type testCaseBooking struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreate() {
	url := "/bookings"
	reqBody := s.bb.BuildCreateRequestDTO()
	view := s.bb.BuildView()
	created := &commands.CreateBookingResult{BookingID: view.ID}

	s.Run("success: returns 201 with the booking", func() {
		expectedInput := s.bb.BuildCreateInput()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), expectedInput, s.actor, (*uuid.UUID)(nil)).
			Return(created, nil).Times(1)
		s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(view.ID, body.ID)
		s.Equal("pending", body.Status)
		s.Equal("500.00", body.RentalPrice)
		s.Equal("500.00", body.DepositAmount)
		s.Equal("1000.00", body.TotalAmount)
		s.Empty(rec.Header().Get("Idempotent-Replayed"))
	})

	s.Run("success: replay sets Idempotent-Replayed", func() {
		key := uuid.New()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), s.actor, &key).
			Return(&commands.CreateBookingResult{BookingID: view.ID, IsReplayed: true}, nil).Times(1)
		s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", map[string]string{
			"Idempotency-Key": key.String(),
		})

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Idempotent-Replayed": "true"})
	})

	s.Run("error: 400 on malformed idempotency key", func() {
		rec := httptest.PerformRequestWithHeaders(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token", map[string]string{
			"Idempotency-Key": "not-a-uuid",
		})
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid idempotency key format")
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []testCaseBooking{
			{name: "quantity boundary OK (1)", mutate: testutil.Field("quantity", 1), expectCode: http.StatusCreated},
			{name: "quantity invalid (0)", mutate: testutil.Field("quantity", 0), expectCode: http.StatusBadRequest},
			{name: "quantity invalid (-1)", mutate: testutil.Field("quantity", -1), expectCode: http.StatusBadRequest},
			{name: "payment method pay_on_return", mutate: testutil.Field("paymentMethod", "pay_on_return"), expectCode: http.StatusCreated},
			{name: "payment method unknown", mutate: testutil.Field("paymentMethod", "card"), expectCode: http.StatusBadRequest},
			{name: "notes length OK (2000 chars)", mutate: testutil.Field("notes", strings.Repeat("n", 2000)), expectCode: http.StatusCreated},
			{name: "notes length invalid (2001 chars)", mutate: testutil.Field("notes", strings.Repeat("n", 2001)), expectCode: http.StatusBadRequest},
			{name: "rental price decimal", mutate: testutil.Field("rentalPrice", "450.50"), expectCode: http.StatusCreated},
			{name: "rental price not a number", mutate: testutil.Field("rentalPrice", "lots"), expectCode: http.StatusBadRequest},
			{name: "deposit with three decimals", mutate: testutil.Field("depositAmount", "1.005"), expectCode: http.StatusBadRequest},
			{name: "missing field: toolId", mutate: testutil.Field("toolId", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: startTime", mutate: testutil.Field("startTime", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: endTime", mutate: testutil.Field("endTime", nil), expectCode: http.StatusBadRequest},
			{name: "missing field: paymentMethod", mutate: testutil.Field("paymentMethod", nil), expectCode: http.StatusBadRequest},
			{name: "malformed toolId", mutate: testutil.Field("toolId", "tool-1"), expectCode: http.StatusBadRequest},
		}

		for _, tc := range cases {
			s.Run(tc.name, func() {
				requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

				if tc.expectCode == http.StatusCreated {
					s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Return(created, nil).Times(1)
					s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(view, nil).Times(1)
				}
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")
				if tc.expectCode == http.StatusCreated {
					httptest.AssertSuccessResponse(s.T(), rec, tc.expectCode, nil)
				} else {
					httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "")
				}
			})
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{"domain validation", commands.ErrValidation, http.StatusBadRequest, "Invalid request"},
			{"tool missing", commands.ErrToolNotFound, http.StatusNotFound, "Tool not found"},
			{"not enough units", commands.ErrInsufficientInventory, http.StatusConflict, "Insufficient inventory"},
			{"key in progress", commands.ErrIdempotencyInProgress, http.StatusConflict, "in progress"},
			{"key reused", commands.ErrIdempotencyKeyReused, http.StatusConflict, "different request"},
			{"wrong role", commands.ErrForbidden, http.StatusForbidden, "Forbidden"},
			{"unexpected", errors.New("database error"), http.StatusInternalServerError, "Internal server error"},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})

	s.Run("error: 500 when the created booking cannot be loaded", func() {
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(created, nil).Times(1)
		s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(nil, errors.New("read replica down")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusInternalServerError, "Failed to load booking")
	})
}

// ================================================================================
// TestGet
// ================================================================================

func (s *BookingHandlerTestSuite) TestGet() {
	view := s.bb.Paid("pay_1").BuildView()
	url := "/bookings/" + view.ID.String()

	s.Run("success: returns the booking", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), queries.Viewer{UserID: s.actor.UserID, Role: s.actor.Role}, view.ID).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("active", body.Status)
		s.Equal("paid", body.PaymentStatus)
		s.Require().NotNil(body.PaymentRef)
		s.Equal("pay_1", *body.PaymentRef)
	})

	s.Run("error: 404 when not visible", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), gomock.Any(), view.ID).
			Return(nil, queries.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 400 on malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/42", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})
}

// ================================================================================
// TestList
// ================================================================================

func (s *BookingHandlerTestSuite) TestList() {
	views := []*queries.BookingView{s.bb.BuildView(), builder.NewBookingBuilder().BuildView()}

	s.Run("success: passes filter and paging through", func() {
		status := "pending"
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any(), queries.BookingFilter{Status: &status}, &queries.Cursor{After: "abc"}, 5).
			Return(views, &queries.Cursor{After: "next"}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?status=pending&limit=5&after=abc", nil, "bearer-token")

		var body struct {
			Bookings   []resdto.BookingResponse `json:"bookings"`
			NextCursor string                   `json:"nextCursor"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body.Bookings, 2)
		s.Equal("next", body.NextCursor)
	})

	s.Run("success: default limit and no cursor on last page", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any(), queries.BookingFilter{}, (*queries.Cursor)(nil), queries.DefaultListLimit).
			Return(views[:1], nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings", nil, "bearer-token")

		var body map[string]any
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.NotContains(body, "nextCursor")
	})

	s.Run("error: 400 on bad filter", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, nil, queries.ErrInvalidFilter).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?status=lost", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid filter")
	})
}

// ================================================================================
// TestTransitions
// ================================================================================

func (s *BookingHandlerTestSuite) TestTransitions() {
	view := s.bb.Confirmed().BuildView()

	type transition struct {
		action string
		expect func(err error) *gomock.Call
	}
	transitions := []transition{
		{"confirm", func(err error) *gomock.Call {
			return s.mockCommands.EXPECT().ConfirmBooking(gomock.Any(), view.ID, s.actor).Return(err)
		}},
		{"cancel", func(err error) *gomock.Call {
			return s.mockCommands.EXPECT().CancelBooking(gomock.Any(), view.ID, s.actor).Return(err)
		}},
		{"pickup", func(err error) *gomock.Call {
			return s.mockCommands.EXPECT().PickupBooking(gomock.Any(), view.ID, s.actor).Return(err)
		}},
		{"return", func(err error) *gomock.Call {
			return s.mockCommands.EXPECT().ReturnBooking(gomock.Any(), view.ID, s.actor).Return(err)
		}},
	}

	for _, tr := range transitions {
		url := "/bookings/" + view.ID.String() + "/" + tr.action

		s.Run(tr.action+": success returns the updated booking", func() {
			tr.expect(nil).Times(1)
			s.mockQueries.EXPECT().GetByIDSystem(gomock.Any(), view.ID).Return(view, nil).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")

			var body resdto.BookingResponse
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
			s.Equal(view.ID, body.ID)
		})

		s.Run(tr.action+": maps errors", func() {
			cases := []struct {
				err    error
				status int
				msg    string
			}{
				{commands.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
				{commands.ErrForbidden, http.StatusForbidden, "Forbidden"},
				{commands.ErrInvalidBookingStatus, http.StatusBadRequest, "Invalid booking status"},
				{commands.ErrBookingStateConflict, http.StatusConflict, "modified by another request"},
			}
			for _, tc := range cases {
				tr.expect(tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.status, tc.msg)
			}
		})
	}

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/bookings/"+view.ID.String()+"/confirm", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}
