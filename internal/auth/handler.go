package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/mini-wallet/mini_wallet/internal/identity"
	"github.com/mini-wallet/mini_wallet/internal/otp"
	"github.com/mini-wallet/mini_wallet/internal/wallet"
)

// Handler exposes the auth endpoints: register, login, the OTP handshake
// and BVN verification.
type Handler struct {
	svc     *Service
	ids     *identity.Service
	wallets *wallet.Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(svc *Service, ids *identity.Service, wallets *wallet.Service) *Handler {
	return &Handler{svc: svc, ids: ids, wallets: wallets}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	PIN       string `json:"pin"`
}

type sessionResponse struct {
	Token string           `json:"token"`
	User  identity.Profile `json:"user"`
}

// Register opens an account with its wallet and returns a session.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.ids.Register(c.UserContext(), identity.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		PIN:       req.PIN,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.wallets.Open(c.UserContext(), user.ID); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.svc.MintFor(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(sessionResponse{Token: token, User: user.Profile})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	OTPRequired bool             `json:"otpRequired,omitempty"`
	Token       string           `json:"token,omitempty"`
	User        identity.Profile `json:"user"`
}

// Login validates credentials. Verified accounts receive an OTP challenge
// instead of an immediate token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.svc.Login(c.UserContext(), identity.Credentials{Identifier: req.Identifier, Password: req.Password})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(loginResponse{
		OTPRequired: outcome.OTPRequired,
		Token:       outcome.Token,
		User:        outcome.User.Profile,
	})
}

type verifyOTPRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
}

// VerifyOTP completes the OTP handshake and returns a session.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.svc.VerifyOTP(c.UserContext(), req.Identifier, req.OTP)
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{Token: token, User: user.Profile})
}

type resendOTPRequest struct {
	Identifier string `json:"identifier"`
}

// ResendOTP issues a fresh code, subject to the cooldown.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ResendOTP(c.UserContext(), req.Identifier); err != nil {
		if errors.Is(err, otp.ErrCooldown) {
			return fiber.NewError(http.StatusTooManyRequests, err.Error())
		}
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "OTP sent"})
}

type verifyBVNRequest struct {
	BVN         string `json:"bvn"`
	DateOfBirth string `json:"dateOfBirth"`
}

type verifyBVNResponse struct {
	Success            bool    `json:"success"`
	VerificationStatus string  `json:"verificationStatus"`
	TransactionLimit   float64 `json:"transactionLimit"`
}

// VerifyBVN runs identity verification for the authenticated user and
// reports the upgraded status and limit.
func (h *Handler) VerifyBVN(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req verifyBVNRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.BVN) != 11 {
		return fiber.NewError(http.StatusBadRequest, "BVN must be exactly 11 digits")
	}
	if req.DateOfBirth == "" {
		return fiber.NewError(http.StatusBadRequest, "date of birth is required")
	}

	user, err := h.ids.VerifyBVN(c.UserContext(), uid, req.BVN, req.DateOfBirth)
	if err != nil {
		if errors.Is(err, identity.ErrBVNRejected) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(verifyBVNResponse{
		Success:            true,
		VerificationStatus: user.VerificationStatus,
		TransactionLimit:   user.TransactionLimit,
	})
}
