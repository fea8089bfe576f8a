package service

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrRateLimited       = errors.New("rate limited")
	ErrAuthDisabled      = errors.New("auth disabled")
)

const (
	loginWindow      = 10 * time.Minute
	loginMaxAttempts = 5
)

// AuthService canjea la passphrase del dueño por un par de tokens.
type AuthService struct {
	logger         *zap.Logger
	passphraseHash []byte
	limiter        AttemptLimiter
	tokens         *JWTService
}

func NewAuthService(logger *zap.Logger, passphraseHash string, tokens *JWTService, limiter AttemptLimiter) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewAttemptLimiter(loginWindow, loginMaxAttempts)
	}
	return &AuthService{
		logger:         logger,
		passphraseHash: []byte(strings.TrimSpace(passphraseHash)),
		limiter:        limiter,
		tokens:         tokens,
	}
}

// Login valida la passphrase; clientKey (ip) alimenta el limitador de intentos.
func (s *AuthService) Login(passphrase, clientKey string) (TokenPair, error) {
	if !s.tokens.Enabled() || len(s.passphraseHash) == 0 {
		return TokenPair{}, ErrAuthDisabled
	}
	if !s.limiter.Allow("login:" + clientKey) {
		s.logger.Warn("login throttled", zap.String("client", clientKey))
		return TokenPair{}, ErrRateLimited
	}
	if err := bcrypt.CompareHashAndPassword(s.passphraseHash, []byte(passphrase)); err != nil {
		s.logger.Info("login rejected", zap.String("client", clientKey))
		return TokenPair{}, ErrInvalidPassphrase
	}
	return s.tokens.GeneratePair(OwnerSubject)
}

func (s *AuthService) Refresh(refreshToken string) (TokenPair, error) {
	return s.tokens.RefreshPair(refreshToken)
}

func (s *AuthService) Logout(refreshToken string) error {
	return s.tokens.RevokeRefresh(refreshToken)
}

// HashPassphrase genera el valor para ACCESS_PASSPHRASE_HASH.
func HashPassphrase(passphrase string) (string, error) {
	if strings.TrimSpace(passphrase) == "" {
		return "", ErrInvalidPassphrase
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
