package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/mini-wallet/mini_wallet/internal/identity"
)

// Handler exposes wallet HTTP endpoints, including the PIN gate endpoints
// that protect transfers and PIN changes.
type Handler struct {
	service *Service
	ids     *identity.Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, ids *identity.Service) *Handler {
	return &Handler{service: service, ids: ids}
}

func userID(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}

// Overview returns the wallet summary: balance plus the funding account
// details shown on the dashboard.
func (h *Handler) Overview(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	balance, err := h.service.Balance(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}

	profile, perr := h.profile(c, uid)
	if perr != nil {
		return perr
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":              balance.InexactFloat64(),
		"currency":             "NGN",
		"virtualAccountNumber": profile.VirtualAccountNumber,
		"bankName":             profile.BankName,
	})
}

// Balance returns only the balance figure.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance.InexactFloat64()})
}

type depositRequest struct {
	Amount float64 `json:"amount"`
}

// Deposit credits the wallet with mock funds.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.service.Deposit(c.UserContext(), uid, decimal.NewFromFloat(req.Amount))
	if err != nil {
		if errors.Is(err, ErrNonPositiveAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Deposit successful",
		"balance": record.BalanceAfter.InexactFloat64(),
	})
}

type transferRequest struct {
	Amount         float64 `json:"amount"`
	RecipientEmail string  `json:"recipientEmail"`
	PIN            string  `json:"pin"`
}

// Transfer verifies the transaction PIN and moves funds to the recipient.
// Amount, recipient and PIN arrive together in one request.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	valid, err := h.ids.VerifyPIN(c.UserContext(), uid, req.PIN)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if !valid {
		return fiber.NewError(http.StatusBadRequest, "Invalid PIN")
	}

	result, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromUserID:     uid,
		RecipientEmail: req.RecipientEmail,
		Amount:         decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfTransfer),
			errors.Is(err, ErrUnknownRecipient),
			errors.Is(err, ErrNonPositiveAmount),
			errors.Is(err, ErrLimitExceeded),
			errors.Is(err, ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":        true,
		"message":        "Transfer successful",
		"recipientEmail": result.RecipientEmail,
	})
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// VerifyPIN reports whether the submitted PIN matches. A mismatch is a 200
// with valid=false so the gate can re-prompt without treating it as a
// transport failure.
func (h *Handler) VerifyPIN(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.PIN) != 4 {
		return fiber.NewError(http.StatusBadRequest, "PIN must be exactly 4 digits")
	}

	valid, err := h.ids.VerifyPIN(c.UserContext(), uid, req.PIN)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"valid": valid})
}

// UpdatePIN replaces the transaction PIN.
func (h *Handler) UpdatePIN(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.ids.UpdatePIN(c.UserContext(), uid, req.PIN); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "PIN updated successfully"})
}

// PinStatus reports whether a transaction PIN is set. Every account gets a
// PIN at registration, so this is a fixed affirmative for now.
func (h *Handler) PinStatus(c *fiber.Ctx) error {
	if _, err := userID(c); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"hasPin": true})
}

type transactionResponse struct {
	ID                      string  `json:"id"`
	TransactionType         string  `json:"transactionType"`
	Amount                  float64 `json:"amount"`
	BalanceAfterTransaction float64 `json:"balanceAfterTransaction"`
	Description             string  `json:"description"`
	Timestamp               string  `json:"timestamp"`
}

type pageResponse struct {
	Content       []transactionResponse `json:"content"`
	Page          int                   `json:"page"`
	TotalPages    int                   `json:"totalPages"`
	TotalElements int                   `json:"totalElements"`
}

// Transactions returns one statement page.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 10)

	result, err := h.service.Transactions(c.UserContext(), uid, page, size)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toPageResponse(result))
}

// AllTransactions returns the entire statement in one response.
func (h *Handler) AllTransactions(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Transactions(c.UserContext(), uid, 0, maxPageSize)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"content": toPageResponse(result).Content})
}

func (h *Handler) profile(c *fiber.Ctx, uid string) (identity.Profile, error) {
	user, err := h.ids.FindByID(c.UserContext(), uid)
	if err != nil {
		return identity.Profile{}, fiber.NewError(http.StatusNotFound, "user not found")
	}
	return user.Profile, nil
}

func toPageResponse(p Page) pageResponse {
	content := make([]transactionResponse, 0, len(p.Content))
	for _, tx := range p.Content {
		content = append(content, transactionResponse{
			ID:                      tx.ID,
			TransactionType:         tx.Type,
			Amount:                  tx.Amount.InexactFloat64(),
			BalanceAfterTransaction: tx.BalanceAfter.InexactFloat64(),
			Description:             tx.Description,
			Timestamp:               tx.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return pageResponse{Content: content, Page: p.Page, TotalPages: p.TotalPages, TotalElements: p.TotalElements}
}
