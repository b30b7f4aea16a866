package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingService_StaffUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateUser(t, h.stores.Users, "agent", domain.RoleAgent, true)
	testutil.CreateUser(t, h.stores.Users, "lawyer", domain.RoleLawyer, true)
	testutil.CreateUser(t, h.stores.Users, "pending", domain.RoleAgent, false)
	testutil.CreateUser(t, h.stores.Users, "root", domain.RoleAdmin, true)

	users, err := h.messaging.StaffUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "agent", users[0].Username)
	assert.Equal(t, "lawyer", users[1].Username)
}

func TestMessagingService_StaffHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, h.stores.Users, "alice", domain.RoleAgent, true)
	bob := testutil.CreateUser(t, h.stores.Users, "bob", domain.RoleManager, true)
	carol := testutil.CreateUser(t, h.stores.Users, "carol", domain.RoleLawyer, true)

	_, err := h.messaging.SendStaff(ctx, domain.UserID(bob.ID), "all", "staff meeting at 9", nil)
	require.NoError(t, err)
	_, err = h.messaging.SendStaff(ctx, domain.UserID(alice.ID), fmt.Sprint(bob.ID), "for bob", nil)
	require.NoError(t, err)
	withFile, err := h.messaging.SendStaff(ctx, domain.UserID(bob.ID), fmt.Sprint(carol.ID), "plan attached", upload("plan.pdf", "data"))
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusConfirmed, withFile.FileStatus)

	t.Run("broadcast plus own conversation", func(t *testing.T) {
		history, err := h.messaging.StaffHistory(ctx, domain.UserID(alice.ID))
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "staff meeting at 9", history[0].Message)
		assert.Equal(t, "bob", history[0].SenderName)
		assert.Equal(t, domain.BroadcastRecipient, history[0].RecipientID)
		assert.Equal(t, "for bob", history[1].Message)
	})

	t.Run("attachment link", func(t *testing.T) {
		history, err := h.messaging.StaffHistory(ctx, domain.UserID(carol.ID))
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "plan.pdf", history[1].FileName)
		assert.True(t, strings.HasPrefix(history[1].FileURL, "/staff-files/staff_"))

		rc, err := h.documents.OpenFile(ctx, storage.KindStaffFiles, withFile.FilePath)
		require.NoError(t, err)
		assert.Equal(t, "data", readAll(t, rc))
	})

	t.Run("deleted sender shows as unknown", func(t *testing.T) {
		require.NoError(t, h.stores.Users.Delete(&domain.User{}, bob.ID).Error)
		history, err := h.messaging.StaffHistory(ctx, domain.UserID(alice.ID))
		require.NoError(t, err)
		assert.Equal(t, mapper.UnknownSender, history[0].SenderName)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := h.messaging.SendStaff(ctx, domain.UserID(alice.ID), "bob", "hi", nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = h.messaging.SendStaff(ctx, domain.UserID(alice.ID), "all", "  ", nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestMessagingService_Chat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	r := testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "u1", "Ruth")

	_, err := h.messaging.SendChat(ctx, &domain.ChatSendRequest{ResidentID: r.ID, Message: "hello"})
	require.NoError(t, err)
	_, err = h.messaging.SendChat(ctx, &domain.ChatSendRequest{ResidentID: r.ID, Message: "again", SenderName: "Ruth"})
	require.NoError(t, err)

	history, err := h.messaging.ChatHistory(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Message)
	assert.Equal(t, service.DefaultChatSender, history[0].SenderName)
	assert.Equal(t, "incoming", history[1].Direction)

	_, err = h.messaging.SendChat(ctx, &domain.ChatSendRequest{ResidentID: 9999, Message: "lost"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	empty, err := h.messaging.ChatHistory(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
