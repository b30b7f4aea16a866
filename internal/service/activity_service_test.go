package service_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityService(t *testing.T) {
	h := newHarness(t)
	userCtx := auth.WithUserContext(context.Background(), &auth.UserContext{UserID: 4, Username: "agent", Role: domain.RoleAgent})
	botCtx := auth.WithUserContext(context.Background(), &auth.UserContext{Username: "bot", Service: true})

	h.activity.Record(userCtx, "login", "logged in")
	h.activity.Record(botCtx, "post", "ignored")
	h.activity.Record(context.Background(), "post", "ignored")

	req := httptest.NewRequest("POST", "/update-resident-data", nil).WithContext(userCtx)
	h.activity.RecordRequest(req, 200)

	logs, err := h.activity.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, domain.UserID(4), l.UserID)
	}

	mine, err := h.activity.List(context.Background(), domain.UserID(5), 10)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
