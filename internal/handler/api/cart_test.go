//go:build unit

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pharmex/internal/cart"
	"pharmex/internal/handler/api"
	resdto "pharmex/internal/handler/dto/response"
	"pharmex/internal/pkg/config"
	"pharmex/internal/usecase/commands"
	"pharmex/internal/usecase/shared"
	commandsmock "pharmex/tests/mock/commands"
	queriesmock "pharmex/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type noopSubscriber struct{}

func (noopSubscriber) Subscribe(context.Context, func(shared.ChangeEvent)) (func(), error) {
	return func() {}, nil
}

type CartHandlerTestSuite struct {
	suite.Suite
	router     *gin.Engine
	mockCtrl   *gomock.Controller
	mockLedger *commandsmock.MockLedgerCommands
	registry   *cart.Registry
	pharmacyID uuid.UUID
}

func TestCartHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CartHandlerTestSuite))
}

func (s *CartHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockLedger = commandsmock.NewMockLedgerCommands(s.mockCtrl)
	s.pharmacyID = uuid.New()

	s.registry = cart.NewRegistry(
		s.mockLedger,
		queriesmock.NewMockOfferQueries(s.mockCtrl),
		noopSubscriber{},
		config.NewTestConfig().Cart,
	)
	handler := api.NewCartHandler(s.registry)

	authMiddleware := func(c *gin.Context) {
		c.Set("pharmacy_id", s.pharmacyID)
		c.Next()
	}

	group := s.router.Group("", authMiddleware)
	group.GET("/cart", handler.GetCart)
	group.DELETE("/cart", handler.ClearCart)
	group.PUT("/cart/items/:offerId", handler.SetItem)
	group.DELETE("/cart/items/:offerId", handler.RemoveItem)
	group.POST("/cart/checkout", handler.Checkout)
}

func (s *CartHandlerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *CartHandlerTestSuite) settle(offerID uuid.UUID) {
	engine := s.registry.ForHolder(s.pharmacyID)
	require.Eventually(s.T(), func() bool {
		for _, view := range engine.Snapshot() {
			if view.OfferID == offerID {
				return view.State == cart.StateSettled
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func (s *CartHandlerTestSuite) TestSetItemIsAcceptedImmediately() {
	offerID := uuid.New()

	s.mockLedger.EXPECT().
		SetReservation(gomock.Any(), offerID, s.pharmacyID, 5).
		Return(&commands.SetResult{Requested: 5, Accepted: 5, AvailableToHolder: 50}, nil)

	w := s.do(http.MethodPut, "/cart/items/"+offerID.String(), `{"quantity":5}`)
	s.Equal(http.StatusAccepted, w.Code)

	var item resdto.CartItemResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &item))
	s.Equal(5, item.Quantity)
	s.True(item.Provisional)

	s.settle(offerID)

	w = s.do(http.MethodGet, "/cart", "")
	s.Equal(http.StatusOK, w.Code)

	var cartResp resdto.CartResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &cartResp))
	s.Require().Len(cartResp.Items, 1)
	s.False(cartResp.Items[0].Provisional)
}

func (s *CartHandlerTestSuite) TestSetItemValidation() {
	offerID := uuid.New()

	// Zero quantity means removal; this cart has nothing to remove.
	w := s.do(http.MethodPut, "/cart/items/"+offerID.String(), `{"quantity":0}`)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/cart/items/not-a-uuid", `{"quantity":5}`)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/cart/items/"+offerID.String(), `not json`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *CartHandlerTestSuite) TestSetItemZeroQuantityRemoves() {
	offerID := uuid.New()

	s.mockLedger.EXPECT().
		SetReservation(gomock.Any(), offerID, s.pharmacyID, 5).
		Return(&commands.SetResult{Requested: 5, Accepted: 5, AvailableToHolder: 50}, nil)

	w := s.do(http.MethodPut, "/cart/items/"+offerID.String(), `{"quantity":5}`)
	s.Equal(http.StatusAccepted, w.Code)
	s.settle(offerID)

	s.mockLedger.EXPECT().
		ReleaseReservation(gomock.Any(), offerID, s.pharmacyID).
		Return(nil)

	w = s.do(http.MethodPut, "/cart/items/"+offerID.String(), `{"quantity":0}`)
	s.Equal(http.StatusAccepted, w.Code)

	w = s.do(http.MethodGet, "/cart", "")
	var cartResp resdto.CartResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &cartResp))
	s.Empty(cartResp.Items)
}

func (s *CartHandlerTestSuite) TestRemoveItem() {
	offerID := uuid.New()

	s.mockLedger.EXPECT().
		SetReservation(gomock.Any(), offerID, s.pharmacyID, 3).
		Return(&commands.SetResult{Requested: 3, Accepted: 3, AvailableToHolder: 10}, nil)

	w := s.do(http.MethodPut, "/cart/items/"+offerID.String(), `{"quantity":3}`)
	s.Equal(http.StatusAccepted, w.Code)
	s.settle(offerID)

	s.mockLedger.EXPECT().
		ReleaseReservation(gomock.Any(), offerID, s.pharmacyID).
		Return(nil)

	w = s.do(http.MethodDelete, "/cart/items/"+offerID.String(), "")
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/cart/items/"+offerID.String(), "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *CartHandlerTestSuite) TestCheckout() {
	offerID := uuid.New()

	s.mockLedger.EXPECT().
		SetReservation(gomock.Any(), offerID, s.pharmacyID, 4).
		Return(&commands.SetResult{Requested: 4, Accepted: 4, AvailableToHolder: 10}, nil)

	w := s.do(http.MethodPut, "/cart/items/"+offerID.String(), `{"quantity":4,"depot_fulfillment":true}`)
	s.Equal(http.StatusAccepted, w.Code)
	s.settle(offerID)

	s.mockLedger.EXPECT().
		Commit(gomock.Any(), offerID, s.pharmacyID, true).
		Return(&commands.CommitResult{Kind: commands.CommitContribution, Quantity: 4}, nil)

	w = s.do(http.MethodPost, "/cart/checkout", "")
	s.Equal(http.StatusOK, w.Code)

	var resp resdto.CheckoutResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(1, resp.Committed)
	s.Equal(0, resp.Failed)
	s.Require().Len(resp.Items, 1)
	s.Equal("contribution", resp.Items[0].Kind)

	// Committed items leave the cart.
	w = s.do(http.MethodGet, "/cart", "")
	var cartResp resdto.CartResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &cartResp))
	s.Empty(cartResp.Items)
}

func (s *CartHandlerTestSuite) TestGetEmptyCart() {
	w := s.do(http.MethodGet, "/cart", "")
	s.Equal(http.StatusOK, w.Code)

	var resp resdto.CartResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Empty(resp.Items)
}
