package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"BACK_FPA_GO/internal/models"
	"BACK_FPA_GO/internal/storage"
	"BACK_FPA_GO/internal/utils"
)

type contextKey string

const userIDKey contextKey = "adminUserID"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login verifies credentials and issues a 24h HS256 token. Wrong email
// and wrong password are indistinguishable from the outside.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !user.Admin || !user.Active {
		utils.RespondError(w, http.StatusForbidden, "account is not an active admin")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"admin": user.Admin,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(h.JWTSecret))
	if err != nil {
		h.Log.Error("token signing failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	utils.RespondJSON(w, http.StatusOK, loginResponse{Token: signed, User: user})
}

// AuthMiddleware rejects requests without a valid admin bearer token and
// stores the user ID on the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(h.JWTSecret), nil
			})
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if isAdmin, _ := claims["admin"].(bool); !isAdmin {
			utils.RespondError(w, http.StatusForbidden, "admin access required")
			return
		}

		sub, _ := claims["sub"].(string)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, sub)))
	})
}

// SeedAdmin creates the initial admin account when the configured email
// does not exist yet. Called once at startup.
func SeedAdmin(ctx context.Context, store storage.Storage, email, password string, log *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := store.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      "Administrator",
		Email:     email,
		Password:  string(hash),
		Admin:     true,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	log.Info("seeded admin account", zap.String("email", email))
	return nil
}
