package helper

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"zipline_manager/config"
	"zipline_manager/constants"
	"zipline_manager/model"
	"zipline_manager/utils"
)

// Services wired by main and reached by the handlers.
var (
	Clock     clockwork.Clock = clockwork.NewRealClock()
	Settings  *config.AppConfig
	Tickets   *TicketStore
	Closures  *ClosureStore
	Schedule  *Calendar
	Fulfiller *Fulfillment
	Payments  utils.PaymentProvider
	Scans     *ScanFeed
	Events    *EventClaimer
	Mailer    *utils.Mailer
	Archive   *VoucherArchive
	Contact   *utils.ContactMailer
)

const AccessTokenTTL = 12 * time.Hour

var (
	ErrTokenClaims   = errors.New("token claims are incomplete")
	ErrNotConfigured = errors.New("service is not configured")
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Authenticate checks the credentials against the admin and staff accounts
// from the environment. An account without a password hash cannot log in.
func Authenticate(cfg *config.AppConfig, username, password string) (model.TokenClaim, bool) {
	accounts := []struct {
		username string
		hash     string
		role     string
	}{
		{cfg.AdminUsername, cfg.AdminPasswordHash, constants.ROLE_ADMIN},
		{cfg.StaffUsername, cfg.StaffPasswordHash, constants.ROLE_STAFF},
	}
	for _, account := range accounts {
		if account.hash == "" || account.username != username {
			continue
		}
		if CheckPasswordHash(password, account.hash) {
			return model.TokenClaim{Username: account.username, Role: account.role}, true
		}
	}
	return model.TokenClaim{}, false
}

func GenerateAccessToken(tokenClaim model.TokenClaim, secret string, now time.Time) (model.TokenData, error) {
	expiresAt := now.Add(AccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": tokenClaim.Username,
		"role":     tokenClaim.Role,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	})

	t, err := token.SignedString([]byte(secret))
	if err != nil {
		return model.TokenData{}, err
	}
	return model.TokenData{AccessToken: t, ExpiresAt: expiresAt.Unix()}, nil
}

func ParseToken(tokenString, secret string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return Clock.Now() }))
}

// ClaimFromToken reads the account stored in a parsed token.
func ClaimFromToken(token *jwt.Token) (model.TokenClaim, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, ErrTokenClaims
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if username == "" || role == "" {
		return model.TokenClaim{}, ErrTokenClaims
	}
	return model.TokenClaim{Username: username, Role: role}, nil
}

// GetInfoAccountFromToken returns the logged-in account set by the
// Protected middleware and whether it is an admin.
func GetInfoAccountFromToken(c *fiber.Ctx) (model.TokenClaim, bool) {
	claim, ok := c.Locals("account").(model.TokenClaim)
	if !ok {
		return model.TokenClaim{}, false
	}
	return claim, claim.Role == constants.ROLE_ADMIN
}
