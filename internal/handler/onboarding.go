package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-resale-market/internal/identity"
	"github.com/iliyamo/ticket-resale-market/internal/model"
	"github.com/iliyamo/ticket-resale-market/internal/payment"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
	"github.com/iliyamo/ticket-resale-market/internal/securefield"
)

// OnboardingHandler covers seller signup and the hosted onboarding
// flow at the payment processor.  Banking details never leave the
// service in plaintext: they are encrypted before the user row is
// written.
type OnboardingHandler struct {
	Codec      *securefield.Codec
	Identity   *identity.Client
	Users      *repository.UserRepo
	Accounts   *repository.SellerAccountRepo
	Processor  *payment.Client
	RefreshURL string
	ReturnURL  string
}

func NewOnboardingHandler(
	codec *securefield.Codec,
	idp *identity.Client,
	users *repository.UserRepo,
	accounts *repository.SellerAccountRepo,
	processor *payment.Client,
	refreshURL, returnURL string,
) *OnboardingHandler {
	if codec == nil || idp == nil || users == nil || accounts == nil || processor == nil {
		panic("nil dependency passed to NewOnboardingHandler")
	}
	return &OnboardingHandler{
		Codec:      codec,
		Identity:   idp,
		Users:      users,
		Accounts:   accounts,
		Processor:  processor,
		RefreshURL: refreshURL,
		ReturnURL:  returnURL,
	}
}

type signupReq struct {
	SortCode      string `json:"sort_code"`
	AccountNumber string `json:"account_number"`
}

type linkResp struct {
	URL string `json:"url"`
}

// Signup records the caller as a seller.  The email comes from the
// identity provider rather than the request body, and the submitted
// banking fields are stored encrypted.
func (h *OnboardingHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SortCode == "" || req.AccountNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sort_code/account_number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	uid := userID(c)
	ident, err := h.Identity.Resolve(ctx, uid)
	if err != nil {
		log.Printf("signup: identity lookup for %s failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "identity lookup failed"})
	}

	sortCode, err := h.Codec.Encrypt(req.SortCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}
	accountNumber, err := h.Codec.Encrypt(req.AccountNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	u := &model.User{
		ID:            uid,
		Email:         ident.Email,
		SortCode:      sortCode,
		AccountNumber: accountNumber,
		Payable:       true,
	}
	if err := h.Users.Upsert(ctx, u); err != nil {
		log.Printf("signup: upsert user %s failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": uid, "email": ident.Email})
}

// CreateLink returns a hosted onboarding URL for the caller, creating
// the connected account at the processor on first use.  The account id
// is persisted before the link is requested so a crash between the two
// calls cannot orphan a processor account.
func (h *OnboardingHandler) CreateLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	uid := userID(c)
	account, err := h.Accounts.GetByUserID(ctx, uid)
	if errors.Is(err, repository.ErrAccountNotFound) {
		account, err = h.createAccount(ctx, uid)
	}
	if err != nil {
		log.Printf("onboarding: account for %s unavailable: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "onboarding unavailable"})
	}

	link, err := h.Processor.CreateAccountLink(ctx, account.ProcessorAccountID, h.RefreshURL, h.ReturnURL)
	if err != nil {
		log.Printf("onboarding: account link for %s failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "onboarding unavailable"})
	}
	return c.JSON(http.StatusCreated, linkResp{URL: link.URL})
}

// RefreshLink reissues an onboarding URL for an expired link.  Unlike
// CreateLink it never creates an account: a caller who has not started
// onboarding gets a 404.
func (h *OnboardingHandler) RefreshLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	uid := userID(c)
	account, err := h.Accounts.GetByUserID(ctx, uid)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no payment account"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "onboarding unavailable"})
	}

	link, err := h.Processor.CreateAccountLink(ctx, account.ProcessorAccountID, h.RefreshURL, h.ReturnURL)
	if err != nil {
		log.Printf("onboarding: account link refresh for %s failed: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "onboarding unavailable"})
	}
	return c.JSON(http.StatusOK, linkResp{URL: link.URL})
}

func (h *OnboardingHandler) createAccount(ctx context.Context, uid string) (*model.SellerAccount, error) {
	ident, err := h.Identity.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	created, err := h.Processor.CreateAccount(ctx, ident.Email)
	if err != nil {
		return nil, err
	}
	account := &model.SellerAccount{
		UserID:             uid,
		ProcessorAccountID: created.ID,
		TransfersActive:    created.TransfersActive(),
	}
	if err := h.Accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
