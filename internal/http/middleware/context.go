package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/domain"
)

type contextKey string

const userHolderKey contextKey = "user_holder"

// userHolder lets outer middleware see the user that inner middleware authenticated
type userHolder struct {
	user *auth.UserContext
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}

func userHolderFrom(ctx context.Context) *userHolder {
	h, _ := ctx.Value(userHolderKey).(*userHolder)
	return h
}

func writeJSONError(w http.ResponseWriter, status int, errType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
