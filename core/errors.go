package core

import (
	"errors"

	"certledger/core/certificate"
	"certledger/core/ledger"
	"certledger/core/safemath"
	"certledger/core/settlement"
)

var (
	ErrUnauthorized         = errors.New("core: caller not authorized")
	ErrInvalidAmount        = errors.New("core: amount must be positive")
	ErrInvalidReserveRatio  = errors.New("core: reserve ratio out of bounds")
	ErrInvalidPointsAmount  = errors.New("core: points amount must be positive")
	ErrPointsAmountTooSmall = errors.New("core: points amount below minimum")
)

// codeEntry binds a sentinel error to its stable numeric code and short tag.
// Codes are part of the host contract and must never be renumbered.
type codeEntry struct {
	err  error
	code uint32
	tag  string
}

var codeTable = []codeEntry{
	{ledger.ErrNotFound, 1, "PlayerNotExist"},
	{ledger.ErrAlreadyExists, 2, "PlayerAlreadyExist"},
	{ledger.ErrInsufficientBalance, 3, "InsufficientBalance"},
	{ledger.ErrNonceMismatch, 4, "NonceMismatch"},
	{ErrUnauthorized, 5, "Unauthorized"},
	{ErrUnknownOpcode, 6, "UnknownOpcode"},
	{ErrBadShape, 7, "InvalidCommand"},
	{ErrInvalidAmount, 8, "InvalidAmount"},
	{settlement.ErrInvalidAddressLimbs, 9, "InvalidAddress"},

	{safemath.ErrOverflow, 11, "MathOverflow"},
	{safemath.ErrDivByZero, 12, "DivisionByZero"},
	{safemath.ErrUnderflow, 13, "MathUnderflow"},

	{ledger.ErrInsufficientPoints, 31, "InsufficientPoints"},
	{ErrInvalidPointsAmount, 32, "InvalidPointsAmount"},
	{ErrPointsAmountTooSmall, 33, "PointsAmountTooSmall"},

	{certificate.ErrProductNotFound, 41, "ProductTypeNotExist"},
	{certificate.ErrProductInactive, 42, "ProductTypeInactive"},
	{certificate.ErrNotFound, 43, "CertificateNotExist"},
	{certificate.ErrNotOwned, 44, "CertificateNotOwned"},
	{certificate.ErrNotMatured, 45, "CertificateNotMatured"},
	{certificate.ErrAlreadyRedeemed, 46, "CertificateAlreadyRedeemed"},
	{certificate.ErrNoInterestDue, 47, "InsufficientInterest"},
	{certificate.ErrInvalidPrincipal, 48, "InvalidPrincipalAmount"},
	{certificate.ErrPrincipalTooSmall, 49, "PrincipalAmountTooSmall"},
	{certificate.ErrInvalidAPY, 50, "InvalidApy"},
	{certificate.ErrInvalidDuration, 51, "InvalidDuration"},
	{certificate.ErrInvalidMinAmount, 52, "InvalidMinAmount"},
	{ErrInvalidReserveRatio, 53, "InvalidReserveRatio"},
}

// ErrorCode resolves any engine error to its stable numeric code and tag.
// A nil error is code 0. Errors outside the closed taxonomy report as 255.
func ErrorCode(err error) (uint32, string) {
	if err == nil {
		return 0, ""
	}
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code, entry.tag
		}
	}
	return 255, "Unknown"
}

// ErrorCategory groups an error into the coarse taxonomy exposed to
// operators: validation, authorization, not_found, state or arithmetic.
func ErrorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, certificate.ErrNotOwned):
		return "authorization"
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, certificate.ErrProductNotFound),
		errors.Is(err, certificate.ErrNotFound):
		return "not_found"
	case errors.Is(err, safemath.ErrOverflow),
		errors.Is(err, safemath.ErrUnderflow),
		errors.Is(err, safemath.ErrDivByZero):
		return "arithmetic"
	case errors.Is(err, certificate.ErrNotMatured),
		errors.Is(err, certificate.ErrAlreadyRedeemed),
		errors.Is(err, certificate.ErrNoInterestDue),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientPoints),
		errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrNonceMismatch):
		return "state"
	default:
		return "validation"
	}
}
